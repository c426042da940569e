package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ayush-backend/internal/models"
	"ayush-backend/internal/store"
)

type productInput struct {
	Name        string          `json:"name" binding:"required"`
	Price       float64         `json:"price" binding:"required,gt=0"`
	Description string          `json:"description" binding:"required"`
	Benefits    string          `json:"benefits"`
	Usage       string          `json:"usage"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock" binding:"gte=0"`
	Category    models.Category `json:"category" binding:"required"`
	Featured    bool            `json:"featured"`
}

type productPatch struct {
	Name        *string          `json:"name"`
	Price       *float64         `json:"price" binding:"omitempty,gt=0"`
	Description *string          `json:"description"`
	Benefits    *string          `json:"benefits"`
	Usage       *string          `json:"usage"`
	Images      *[]string        `json:"images"`
	Stock       *int             `json:"stock" binding:"omitempty,gte=0"`
	Category    *models.Category `json:"category"`
	Featured    *bool            `json:"featured"`
}

func (s *server) listProducts(c *gin.Context) {
	var f store.ProductFilter
	if raw := c.Query("category"); raw != "" {
		f.Category = models.Category(raw)
		if !f.Category.Valid() {
			fail(c, http.StatusBadRequest, "Invalid category")
			return
		}
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid featured flag")
			return
		}
		f.Featured = &featured
	}

	products, err := s.products.List(c.Request.Context(), f)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (s *server) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.products.ByID(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (s *server) createProduct(c *gin.Context) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Name, price, description and category are required")
		return
	}
	if !in.Category.Valid() {
		fail(c, http.StatusBadRequest, "Invalid category")
		return
	}

	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Benefits:    in.Benefits,
		Usage:       in.Usage,
		Images:      in.Images,
		Stock:       in.Stock,
		Category:    in.Category,
		Featured:    in.Featured,
	}
	if err := s.products.Create(c.Request.Context(), p); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": p})
}

func (s *server) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in productPatch
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid product fields")
		return
	}
	if in.Category != nil && !in.Category.Valid() {
		fail(c, http.StatusBadRequest, "Invalid category")
		return
	}

	p, err := s.products.Update(c.Request.Context(), id, store.ProductUpdate{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Benefits:    in.Benefits,
		Usage:       in.Usage,
		Images:      in.Images,
		Stock:       in.Stock,
		Category:    in.Category,
		Featured:    in.Featured,
	})
	if err != nil {
		s.storeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (s *server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.products.Delete(c.Request.Context(), id); err != nil {
		s.storeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Product deleted"})
}

// updateStock takes either a relative {delta} applied atomically or an
// absolute {stock}.
func (s *server) updateStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Delta *int `json:"delta"`
		Stock *int `json:"stock"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || (in.Delta == nil) == (in.Stock == nil) {
		fail(c, http.StatusBadRequest, "Provide either delta or stock")
		return
	}

	var (
		p   *models.Product
		err error
	)
	if in.Delta != nil {
		if *in.Delta > maxStockChange || *in.Delta < -maxStockChange {
			fail(c, http.StatusBadRequest, "Stock change out of range")
			return
		}
		p, err = s.products.AdjustStock(c.Request.Context(), id, *in.Delta)
	} else {
		if *in.Stock < 0 {
			fail(c, http.StatusBadRequest, "Stock cannot be negative")
			return
		}
		p, err = s.products.SetStock(c.Request.Context(), id, *in.Stock)
	}
	if err != nil {
		s.storeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

// uploadProductImages stores the jpeg, png and webp files of the "images"
// field and skips anything else.
func (s *server) uploadProductImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "Expected multipart form with images")
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		fail(c, http.StatusBadRequest, "No images uploaded")
		return
	}
	if len(files) > maxUploadFiles {
		fail(c, http.StatusBadRequest, fmt.Sprintf("At most %d images per upload", maxUploadFiles))
		return
	}

	base := publicBaseURL(c)
	urls := []string{}
	for _, fh := range files {
		if fh.Size > s.cfg.Upload.MaxBytes {
			s.log.WithField("file", fh.Filename).Warn("skipping oversized upload")
			continue
		}
		f, err := fh.Open()
		if err != nil {
			s.internalError(c, err)
			return
		}
		mt, err := mimetype.DetectReader(f)
		f.Close()
		if err != nil {
			s.internalError(c, err)
			return
		}
		if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
			s.log.WithFields(map[string]any{"file": fh.Filename, "mime": mt.String()}).Info("skipping non-image upload")
			continue
		}

		name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), mt.Extension())
		if err := c.SaveUploadedFile(fh, filepath.Join(s.cfg.Upload.Dir, name)); err != nil {
			s.internalError(c, err)
			return
		}
		urls = append(urls, base+"/uploads/"+name)
	}

	if len(urls) == 0 {
		fail(c, http.StatusBadRequest, "Only jpeg, png and webp images are allowed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "urls": urls})
}

func publicBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + c.Request.Host
}
