package controllers

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/utils"
)

// GetMediaFile handles GET /api/v1/media/*key - serves locally stored images
// when no object store is configured
func GetMediaFile(c *gin.Context) {
	raw := strings.TrimPrefix(c.Param("key"), "/")

	// Validate key is not empty
	if raw == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Media key is required")
		return
	}

	// Security: Prevent directory traversal attacks
	key := utils.CleanMediaKey(raw)
	if key == "" {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if !utils.IsAllowedImage(key) {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only image files are supported")
		return
	}

	filePath := filepath.Join(utils.UploadDir, filepath.FromSlash(key))

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Serve the file with appropriate headers
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
