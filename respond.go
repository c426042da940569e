package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ayush-backend/internal/store"
)

const msgInternal = "Something went wrong!"

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "msg": msg})
}

// internalError logs err against the request and answers with the fixed 500.
func (s *server) internalError(c *gin.Context, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgInternal})
}

// storeError maps repository sentinels to responses. notFound is the
// message used for ErrNotFound.
func (s *server) storeError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrDuplicate):
		fail(c, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, store.ErrInsufficientStock):
		fail(c, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, store.ErrConflict):
		fail(c, http.StatusConflict, "Resource was modified concurrently, please retry")
	case errors.Is(err, store.ErrStockOverflow):
		fail(c, http.StatusBadRequest, "Stock change out of range")
	case errors.Is(err, store.ErrIndexOutOfRange):
		fail(c, http.StatusBadRequest, "Invalid address index")
	default:
		s.internalError(c, err)
	}
}

// pathID parses the ObjectID in the named route parameter.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// listOptions reads ?status=&page=&page_size= for the admin listings.
func listOptions(c *gin.Context) (store.ListOptions, bool) {
	opts := store.ListOptions{Status: c.Query("status")}
	for name, dst := range map[string]*int{"page": &opts.Page, "page_size": &opts.PageSize} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, "Invalid "+name)
			return opts, false
		}
		*dst = n
	}
	return opts, true
}
