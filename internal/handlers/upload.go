package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ramanand1101/webRtc-backend/internal/models"
)

// UploadRecording accepts a recorded session as multipart field "video" and
// stores it under uploadDir. Only webm recordings are accepted. The response
// carries the URL the file is served back from.
func UploadRecording(uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("video")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No video file uploaded"})
			return
		}

		if file.Header.Get("Content-Type") != "video/webm" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Only .webm videos allowed"})
			return
		}

		filename := fmt.Sprintf("host-recording-%d.webm", time.Now().UnixMilli())
		if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, filename)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save video"})
			return
		}

		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		c.JSON(http.StatusOK, models.UploadResponse{
			Message: "Upload successful",
			FileURL: fmt.Sprintf("%s://%s/uploads/%s", scheme, c.Request.Host, filename),
		})
	}
}
