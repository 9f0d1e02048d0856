package services

import (
	"context"
	"fmt"
	"log"

	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingService records buyer feedback on completed orders
type RatingService struct {
	db *gorm.DB
}

// NewRatingService creates a service backed by db
func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

// Submit stores the buyer's single rating for a completed order
func (s *RatingService) Submit(ctx context.Context, buyer *models.User, orderID uint, score int, reviewText *string) (*models.Rating, error) {
	db := s.db.WithContext(ctx)

	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsBuyer(buyer) {
		return nil, forbidden("only the buyer of the order can rate it")
	}

	rating := &models.Rating{
		OrderID:    order.ID,
		Order:      order,
		BuyerID:    buyer.ID,
		Buyer:      buyer,
		Rating:     score,
		ReviewText: reviewText,
	}
	if err := rating.Validate().Err(); err != nil {
		return nil, err
	}
	if order.Status != models.OrderCompleted {
		return nil, invalidTransition("only completed orders can be rated, order is %s", order.Status)
	}

	var existing int64
	if err := db.Model(&models.Rating{}).
		Where("order_id = ? AND buyer_id = ?", order.ID, buyer.ID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing ratings: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyRated
	}

	if err := db.Omit(clause.Associations).Create(rating).Error; err != nil {
		// Lost a race against a concurrent submission
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRated
		}
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	log.Printf("Order %d rated %d by buyer %d", order.ID, rating.Rating, buyer.ID)
	return rating, nil
}

// ListForOrder returns the ratings left on an order
func (s *RatingService) ListForOrder(ctx context.Context, orderID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}
