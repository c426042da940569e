package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ayush-backend/internal/models"
)

func (s *server) listPoojas(c *gin.Context) {
	poojas, err := s.store.Poojas.List(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": poojas})
}

func (s *server) getPooja(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.store.Poojas.ByID(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err, "Pooja not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

func (s *server) createPooja(c *gin.Context) {
	var in struct {
		Name         string   `json:"name" binding:"required"`
		Description  string   `json:"description"`
		Price        float64  `json:"price" binding:"required,gt=0"`
		Duration     string   `json:"duration"`
		Requirements []string `json:"requirements"`
		Image        string   `json:"image"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Name and a positive price are required")
		return
	}

	p := &models.Pooja{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		Duration:     in.Duration,
		Requirements: in.Requirements,
		Image:        in.Image,
	}
	if err := s.store.Poojas.Create(c.Request.Context(), p); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": p})
}

func (s *server) deletePooja(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.store.Poojas.Delete(c.Request.Context(), id); err != nil {
		s.storeError(c, err, "Pooja not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Pooja deleted"})
}
