package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
)

// PostOrderStatusRequest represents the body of a production milestone.
// A multipart body may carry a progress photo in the "image" field.
type PostOrderStatusRequest struct {
	Status      models.MilestoneStatus `json:"status" form:"status"`
	Description *string                `json:"description" form:"description"`
}

// PostOrderStatus handles POST /api/v1/orders/:id/statuses - the order's artisan posts a milestone
func PostOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req PostOrderStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	var imageKey string
	if fileHeader, err := c.FormFile("image"); err == nil {
		imageKey, err = uploadImage(c, fileHeader, services.PrefixOrderImages)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	svc := services.NewMilestoneService(config.GetDB())
	milestone, err := svc.Post(c.Request.Context(), user, id, services.PostMilestoneInput{
		Status:      req.Status,
		Description: req.Description,
		Image:       imageKey,
	})
	if err != nil {
		discardImage(c, imageKey)
		respondServiceError(c, err)
		return
	}

	milestone.ImageURL = imageURL(c, milestone.Image)
	respondSuccess(c, http.StatusCreated, milestone)
}

// ListOrderStatuses handles GET /api/v1/orders/:id/statuses - milestones in posting order
func ListOrderStatuses(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOrderForParty(c, user)
	if !ok {
		return
	}

	svc := services.NewMilestoneService(config.GetDB())
	milestones, err := svc.List(c.Request.Context(), order.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range milestones {
		milestones[i].ImageURL = imageURL(c, milestones[i].Image)
	}
	respondSuccess(c, http.StatusOK, milestones)
}

// ApproveOrderStatus handles PUT /api/v1/order-statuses/:id/approve - the buyer signs off a milestone
func ApproveOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewMilestoneService(config.GetDB())
	result, err := svc.Approve(c.Request.Context(), user, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result.Milestone.ImageURL = imageURL(c, result.Milestone.Image)
	respondSuccess(c, http.StatusOK, gin.H{
		"order_status": result.Milestone,
		"order":        result.Order,
	})
}
