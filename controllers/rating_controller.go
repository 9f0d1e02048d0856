package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
)

// SubmitRatingRequest represents the buyer's feedback on a completed order
type SubmitRatingRequest struct {
	Rating     int     `json:"rating" binding:"required"`
	ReviewText *string `json:"review_text"`
}

// SubmitRating handles POST /api/v1/orders/:id/ratings
func SubmitRating(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	svc := services.NewRatingService(config.GetDB())
	rating, err := svc.Submit(c.Request.Context(), user, id, req.Rating, req.ReviewText)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, rating)
}

// ListRatings handles GET /api/v1/orders/:id/ratings
func ListRatings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOrderForParty(c, user)
	if !ok {
		return
	}

	svc := services.NewRatingService(config.GetDB())
	ratings, err := svc.ListForOrder(c.Request.Context(), order.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, ratings)
}
