package main

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"ayush-backend/internal/models"
)

// bcryptCost matches the hashes already stored by the previous backend.
const bcryptCost = 10

var validate = validator.New()

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

func (s *server) register(c *gin.Context) {
	var req struct {
		Name      string   `json:"name"`
		Email     string   `json:"email"`
		Password  string   `json:"password"`
		Phone     string   `json:"phone"`
		Addresses []string `json:"addresses"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Please provide name, email and password")
		return
	}
	if !validEmail(req.Email) {
		fail(c, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		s.internalError(c, err)
		return
	}
	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Phone:     strings.TrimSpace(req.Phone),
		Addresses: req.Addresses,
		Role:      models.RoleCustomer,
	}
	if err := s.store.Users.Create(c.Request.Context(), user); err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "msg": "User registered"})
}

func (s *server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	user, err := s.store.Users.ByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		fail(c, http.StatusBadRequest, "Invalid password")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (s *server) me(c *gin.Context) {
	id := currentIdentity(c)
	userID, ok := id.userID()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "user": gin.H{
			"_id":       id.ID,
			"name":      "Administrator",
			"role":      id.Role,
			"addresses": []string{},
		}})
		return
	}
	user, err := s.store.Users.ByID(c.Request.Context(), userID)
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (s *server) updateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name, req.Phone = strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone)
	req.Email = normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Phone == "" {
		fail(c, http.StatusBadRequest, "Name, email and phone are required")
		return
	}
	if !validEmail(req.Email) {
		fail(c, http.StatusBadRequest, "Invalid email address")
		return
	}

	user, err := s.store.Users.UpdateProfile(c.Request.Context(), userID, req.Name, req.Email, req.Phone)
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Profile updated", "user": user})
}

func (s *server) addAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Address) == "" {
		fail(c, http.StatusBadRequest, "Address is required")
		return
	}
	user, err := s.store.Users.AddAddress(c.Request.Context(), userID, strings.TrimSpace(req.Address))
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": user.Addresses})
}

func (s *server) updateAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Index   *int   `json:"index"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil || strings.TrimSpace(req.Address) == "" {
		fail(c, http.StatusBadRequest, "Index and address are required")
		return
	}
	user, err := s.store.Users.UpdateAddress(c.Request.Context(), userID, *req.Index, strings.TrimSpace(req.Address))
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": user.Addresses})
}

func (s *server) deleteAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid address index")
		return
	}
	user, err := s.store.Users.DeleteAddress(c.Request.Context(), userID, index)
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": user.Addresses})
}

func (s *server) uploadProfilePicture(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		fail(c, http.StatusBadRequest, "No image provided")
		return
	}
	if err := s.checkPicture(req.Image); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.Users.SetProfilePicture(c.Request.Context(), userID, req.Image)
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Profile picture updated", "user": user})
}

// checkPicture accepts an http(s) URL or a base64 data URI holding a
// jpeg, png or webp image.
func (s *server) checkPicture(image string) error {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		if _, err := url.ParseRequestURI(image); err != nil {
			return errors.New("Invalid image URL")
		}
		return nil
	}

	meta, data, found := strings.Cut(image, ",")
	if !found || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return errors.New("Image must be a base64 data URI or a URL")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return errors.New("Invalid base64 image data")
	}
	if int64(len(raw)) > s.cfg.Upload.MaxBytes {
		return errors.New("Image is too large")
	}
	if !mimetype.EqualsAny(mimetype.Detect(raw).String(), allowedImageTypes...) {
		return errors.New("Only jpeg, png and webp images are allowed")
	}
	return nil
}

func (s *server) userCount(c *gin.Context) {
	n, err := s.store.Users.Count(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": n})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
