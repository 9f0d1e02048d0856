package controllers

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/middleware"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
	"github.com/kendall-kelly/artisan-marketplace-api/utils"
)

// workflowStatus maps workflow error codes to HTTP statuses
var workflowStatus = map[string]int{
	services.CodeNotFound:          http.StatusNotFound,
	services.CodeForbidden:         http.StatusForbidden,
	services.CodeInvalidTransition: http.StatusConflict,
	services.CodeConflict:          http.StatusConflict,
	services.CodeNotAccepted:       http.StatusUnprocessableEntity,
	services.CodeRequestLocked:     http.StatusConflict,
	services.CodeAlreadyApproved:   http.StatusConflict,
	services.CodeAlreadyRated:      http.StatusConflict,
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError renders an error returned by a workflow service
func respondServiceError(c *gin.Context, err error) {
	var validationErrs models.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"fields":  validationErrs.Fields(),
			},
		})
		return
	}

	var workflowErr *services.WorkflowError
	if errors.As(err, &workflowErr) {
		status, ok := workflowStatus[workflowErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		respondError(c, status, workflowErr.Code, workflowErr.Message)
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	log.Printf("Unexpected error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

// currentUser loads the marketplace user behind the request's token.
// On failure it writes the response and returns false.
func currentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	var user models.User
	if err := config.GetDB().Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return nil, false
	}

	return &user, true
}

// idParam parses a numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "A valid "+name+" is required")
		return 0, false
	}
	return uint(id), true
}

// imageURL resolves a storage key through the configured image service
func imageURL(c *gin.Context, key string) *string {
	imageService := services.GetImageService()
	if key == "" || imageService == nil {
		return nil
	}
	url, err := imageService.GetImageURL(c.Request.Context(), key)
	if err != nil {
		log.Printf("Failed to resolve image URL for %s: %v", key, err)
		return nil
	}
	return &url
}

// uploadImage stores an uploaded file through the configured image service
func uploadImage(c *gin.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	imageService := services.GetImageService()
	if imageService == nil {
		return "", errors.New("image service is not configured")
	}
	return imageService.UploadImage(c.Request.Context(), fileHeader, prefix)
}

// discardImage removes an uploaded image whose record was not saved
func discardImage(c *gin.Context, key string) {
	imageService := services.GetImageService()
	if key == "" || imageService == nil {
		return
	}
	if err := imageService.DeleteImage(c.Request.Context(), key); err != nil {
		log.Printf("Failed to discard orphaned image %s: %v", key, err)
	}
}
