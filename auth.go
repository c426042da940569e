package main

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/models"
)

// adminKeyID is the identity id given to requests holding ADMIN_API_KEY.
const adminKeyID = "admin-id"

const identityKey = "identity"

type JWTClaims struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
	jwt.StandardClaims
}

type identity struct {
	ID   string
	Role models.Role
}

func (i identity) admin() bool { return i.Role == models.RoleAdmin }

// userID is the document id behind the identity. The admin key identity
// has none.
func (i identity) userID() (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(i.ID)
	return id, err == nil
}

func identityFrom(c *gin.Context) (identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity{}, false
	}
	id, ok := v.(identity)
	return id, ok
}

func currentIdentity(c *gin.Context) identity {
	id, _ := identityFrom(c)
	return id
}

func (s *server) issueToken(u *models.User) (string, error) {
	now := s.now()
	claims := JWTClaims{
		ID:   u.ID.Hex(),
		Role: u.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.cfg.Auth.TokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Auth.JWTSecret))
}

func (s *server) parseToken(tokenStr string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

func (s *server) AuthMiddleware(c *gin.Context) {
	tokenStr := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if tokenStr == "" {
		fail(c, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	if key := s.cfg.Auth.AdminAPIKey; key != "" &&
		subtle.ConstantTimeCompare([]byte(tokenStr), []byte(key)) == 1 {
		c.Set(identityKey, identity{ID: adminKeyID, Role: models.RoleAdmin})
		c.Next()
		return
	}

	claims, err := s.parseToken(tokenStr)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Token is not valid")
		return
	}
	c.Set(identityKey, identity{ID: claims.ID, Role: claims.Role})
	c.Next()
}

func RequireAdmin(c *gin.Context) {
	if !currentIdentity(c).admin() {
		fail(c, http.StatusForbidden, "Access denied")
		return
	}
	c.Next()
}

// requireUser resolves the caller's document id for routes that act on
// behalf of a real account.
func requireUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := currentIdentity(c).userID()
	if !ok {
		fail(c, http.StatusForbidden, "This action needs a user account")
	}
	return id, ok
}
