package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ramanand1101/webRtc-backend/internal/models"
	"github.com/Ramanand1101/webRtc-backend/internal/store"
)

// CreateUser registers a user record.
func CreateUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := s.CreateUser(c.Request.Context(), req.Name, req.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// GetUser returns a user record by id.
func GetUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.GetUser(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
