package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/permissions"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
	"github.com/shopspring/decimal"
)

// DeadlineLayout is the date format accepted for custom request deadlines
const DeadlineLayout = "2006-01-02"

// CreateCustomRequestRequest is the JSON or multipart body of a new custom request.
// A multipart body may carry the reference image in the "reference_image" field.
type CreateCustomRequestRequest struct {
	ArtisanID   uint   `json:"artisan_id" form:"artisan_id" binding:"required"`
	ProductID   *uint  `json:"product_id" form:"product_id"`
	Description string `json:"description" form:"description"`
	Deadline    string `json:"deadline" form:"deadline" binding:"required"`
}

// QuoteRequest is the artisan's pricing for a custom request
type QuoteRequest struct {
	QuoteAmount   *decimal.Decimal `json:"quote_amount"`
	MaterialPrice *decimal.Decimal `json:"material_price"`
	LabourPrice   *decimal.Decimal `json:"labour_price"`
	Accept        bool             `json:"accept"`
}

// AdvanceStatusRequest moves a custom request to its next production stage
type AdvanceStatusRequest struct {
	Status models.CustomRequestStatus `json:"status" binding:"required"`
}

// CreateCustomRequest handles POST /api/v1/custom-requests (buyers only)
func CreateCustomRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateCustomRequestRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	deadline, err := time.Parse(DeadlineLayout, req.Deadline)
	if err != nil {
		var errs models.ValidationErrors
		errs.Add("deadline", "must be a date formatted as YYYY-MM-DD")
		respondServiceError(c, errs)
		return
	}

	// Reference image is optional
	var referenceKey string
	if fileHeader, err := c.FormFile("reference_image"); err == nil {
		referenceKey, err = uploadImage(c, fileHeader, services.PrefixReferenceImages)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	svc := services.NewCustomRequestService(config.GetDB())
	request, err := svc.Create(c.Request.Context(), user, services.CreateCustomRequestInput{
		ArtisanID:      req.ArtisanID,
		ProductID:      req.ProductID,
		Description:    req.Description,
		ReferenceImage: referenceKey,
		Deadline:       deadline,
	})
	if err != nil {
		discardImage(c, referenceKey)
		respondServiceError(c, err)
		return
	}

	request.ReferenceURL = imageURL(c, request.ReferenceImage)
	respondSuccess(c, http.StatusCreated, request)
}

// ListCustomRequests handles GET /api/v1/custom-requests
func ListCustomRequests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	svc := services.NewCustomRequestService(config.GetDB())
	requests, err := svc.ListForUser(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range requests {
		requests[i].ReferenceURL = imageURL(c, requests[i].ReferenceImage)
	}
	respondSuccess(c, http.StatusOK, requests)
}

// GetCustomRequest handles GET /api/v1/custom-requests/:id
func GetCustomRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewCustomRequestService(config.GetDB())
	request, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if request.BuyerID != user.ID && !permissions.CanAccess(user, request) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view this custom request")
		return
	}

	request.ReferenceURL = imageURL(c, request.ReferenceImage)
	respondSuccess(c, http.StatusOK, request)
}

// QuoteCustomRequest handles PUT /api/v1/custom-requests/:id/quote (assigned artisan)
func QuoteCustomRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	svc := services.NewCustomRequestService(config.GetDB())
	request, err := svc.Quote(c.Request.Context(), user, id, services.QuoteInput{
		QuoteAmount:   req.QuoteAmount,
		MaterialPrice: req.MaterialPrice,
		LabourPrice:   req.LabourPrice,
		Accept:        req.Accept,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, request)
}

// AdvanceCustomRequestStatus handles PUT /api/v1/custom-requests/:id/status (assigned artisan)
func AdvanceCustomRequestStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	svc := services.NewCustomRequestService(config.GetDB())
	request, err := svc.AdvanceStatus(c.Request.Context(), user, id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, request)
}

// UploadArtisanImage handles POST /api/v1/custom-requests/:id/uploads (multipart "image")
func UploadArtisanImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "An image file is required in the \"image\" field")
		return
	}

	key, err := uploadImage(c, fileHeader, services.PrefixArtisanUploads)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	svc := services.NewCustomRequestService(config.GetDB())
	upload, err := svc.AddUpload(c.Request.Context(), user, id, key)
	if err != nil {
		discardImage(c, key)
		respondServiceError(c, err)
		return
	}

	upload.ImageURL = imageURL(c, upload.Image)
	respondSuccess(c, http.StatusCreated, upload)
}

// ListArtisanUploads handles GET /api/v1/custom-requests/:id/uploads
func ListArtisanUploads(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewCustomRequestService(config.GetDB())
	request, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if request.BuyerID != user.ID && !permissions.CanAccess(user, request) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view these uploads")
		return
	}

	uploads, err := svc.Uploads(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range uploads {
		uploads[i].ImageURL = imageURL(c, uploads[i].Image)
	}
	respondSuccess(c, http.StatusOK, uploads)
}
