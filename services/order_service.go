package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/permissions"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadyMadeOrderInput is a checkout of a catalog product.
// TotalAmount comes from the pricing collaborator.
type ReadyMadeOrderInput struct {
	ProductID   uint
	CartID      *uint
	Quantity    *int
	TotalAmount decimal.Decimal
}

// CustomOrderInput turns an accepted custom request into an order
type CustomOrderInput struct {
	CustomRequestID uint
	Quantity        *int
	TotalAmount     decimal.Decimal
}

// OrderService runs the order workflow
type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOrderService creates a service backed by db
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// CreateReadyMade places a pending order for a catalog product
func (s *OrderService) CreateReadyMade(ctx context.Context, buyer *models.User, in ReadyMadeOrderInput) (*models.Order, error) {
	if !buyer.IsBuyer() {
		return nil, forbidden("only buyers can place orders")
	}
	db := s.db.WithContext(ctx)

	var errs models.ValidationErrors
	var product models.Inventory
	if err := db.Preload("Artisan").First(&product, in.ProductID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		errs.Add("product", "does not exist")
	}
	if in.CartID != nil {
		var cart models.ShoppingCart
		err := db.First(&cart, *in.CartID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs.Add("cart", "does not exist")
		case err != nil:
			return nil, fmt.Errorf("failed to load cart: %w", err)
		case cart.BuyerID != buyer.ID:
			errs.Add("cart", "must belong to the buyer")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	order := &models.Order{
		CartID:        in.CartID,
		BuyerID:       &buyer.ID,
		Buyer:         buyer,
		ProductID:     &product.ID,
		ArtisanID:     product.ArtisanID,
		Artisan:       &product.Artisan,
		OrderType:     models.OrderTypeReadyMade,
		Status:        models.OrderPending,
		Quantity:      quantityOrDefault(in.Quantity),
		TotalAmount:   in.TotalAmount,
		PaymentStatus: models.PaymentPending,
		Version:       1,
	}
	return s.insert(db, order)
}

// CreateFromCustomRequest places a pending custom order. The request must
// be accepted, belong to the buyer and not already back a live order.
func (s *OrderService) CreateFromCustomRequest(ctx context.Context, buyer *models.User, in CustomOrderInput) (*models.Order, error) {
	if !buyer.IsBuyer() {
		return nil, forbidden("only buyers can place orders")
	}

	var created *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := loadCustomRequest(tx, in.CustomRequestID)
		if err != nil {
			return err
		}
		if request.BuyerID != buyer.ID {
			return forbidden("custom request belongs to another buyer")
		}
		if !request.IsAccepted {
			return ErrNotAccepted
		}

		var live int64
		err = tx.Model(&models.Order{}).
			Where("custom_request_id = ? AND status <> ?", request.ID, models.OrderRejected).
			Count(&live).Error
		if err != nil {
			return fmt.Errorf("failed to check existing orders: %w", err)
		}
		if live > 0 {
			return &WorkflowError{Code: CodeConflict, Message: "custom request already has an order"}
		}

		// Claim the request: a concurrent create read the same version and
		// its bump affects no rows.
		err = updateVersioned(tx, &models.CustomDesignRequest{}, request.ID, request.Version, map[string]interface{}{
			"updated_at": s.now(),
		})
		if err != nil {
			return err
		}

		order := &models.Order{
			BuyerID:         &buyer.ID,
			Buyer:           buyer,
			CustomRequestID: &request.ID,
			ProductID:       request.ProductID,
			ArtisanID:       request.ArtisanID,
			Artisan:         request.Artisan,
			OrderType:       models.OrderTypeCustom,
			Status:          models.OrderPending,
			Quantity:        quantityOrDefault(in.Quantity),
			TotalAmount:     in.TotalAmount,
			PaymentStatus:   models.PaymentPending,
			Version:         1,
		}
		created, err = s.insert(tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get loads an order with its parties
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return loadOrder(s.db.WithContext(ctx), id)
}

// ListForUser returns the orders the user is a party to, newest first
func (s *OrderService) ListForUser(ctx context.Context, user *models.User) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Buyer").Preload("Artisan").Order("created_at DESC")
	switch {
	case user.IsAdmin():
	case user.IsArtisan():
		query = query.Where("artisan_id = ?", user.ID)
	default:
		query = query.Where("buyer_id = ?", user.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Accept moves a pending order to accepted
func (s *OrderService) Accept(ctx context.Context, actor *models.User, id uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	order, err := s.loadForArtisan(db, actor, id)
	if err != nil {
		return nil, err
	}
	return transitionOrder(db, order, models.OrderAccepted, s.now(), nil)
}

// Reject moves a pending order to rejected, recording why and when
func (s *OrderService) Reject(ctx context.Context, actor *models.User, id uint, reason string) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	order, err := s.loadForArtisan(db, actor, id)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	now := s.now()
	return transitionOrder(db, order, models.OrderRejected, now, func(o *models.Order) {
		o.RejectionReason = &reason
		o.RejectionDate = &now
	})
}

// ConfirmDelivery records that the buyer received the goods.
// It does not move the order through its lifecycle.
func (s *OrderService) ConfirmDelivery(ctx context.Context, buyer *models.User, id uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	order, err := loadOrder(db, id)
	if err != nil {
		return nil, err
	}
	if !order.IsBuyer(buyer) {
		return nil, forbidden("only the buyer can confirm delivery")
	}
	if order.Status == models.OrderRejected {
		return nil, invalidTransition("a rejected order cannot be delivered")
	}
	if order.DeliveryConfirmed {
		return order, nil
	}

	now := s.now()
	err = updateVersioned(db, &models.Order{}, order.ID, order.Version, map[string]interface{}{
		"delivery_confirmed": true,
		"updated_at":         now,
	})
	if err != nil {
		return nil, err
	}

	order.DeliveryConfirmed = true
	order.Version++
	order.UpdatedAt = now
	return order, nil
}

func (s *OrderService) insert(db *gorm.DB, order *models.Order) (*models.Order, error) {
	if err := order.Validate().Err(); err != nil {
		return nil, err
	}
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log.Printf("Order %d (%s) created for artisan %d", order.ID, order.OrderType, order.ArtisanID)
	return order, nil
}

func (s *OrderService) loadForArtisan(db *gorm.DB, actor *models.User, id uint) (*models.Order, error) {
	order, err := loadOrder(db, id)
	if err != nil {
		return nil, err
	}
	if !permissions.CanAccess(actor, order) {
		return nil, forbidden("only the assigned artisan can update this order")
	}
	return order, nil
}

// transitionOrder validates and applies a lifecycle move on order using
// its loaded version. mutate may set side fields on the new state.
func transitionOrder(db *gorm.DB, order *models.Order, next models.OrderState, now time.Time, mutate func(*models.Order)) (*models.Order, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, invalidTransition("order cannot move from %s to %s", order.Status, next)
	}

	updated := *order
	updated.Status = next
	if mutate != nil {
		mutate(&updated)
	}
	if err := updated.Validate().Err(); err != nil {
		return nil, err
	}

	err := updateVersioned(db, &models.Order{}, order.ID, order.Version, map[string]interface{}{
		"status":           updated.Status,
		"rejection_reason": updated.RejectionReason,
		"rejection_date":   updated.RejectionDate,
		"updated_at":       now,
	})
	if err != nil {
		return nil, err
	}

	updated.Version++
	updated.UpdatedAt = now
	log.Printf("Order %d moved from %s to %s", order.ID, order.Status, next)
	return &updated, nil
}

func loadOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Buyer").Preload("Artisan").Preload("Product").Preload("CustomRequest").
		First(&order, id).Error
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	return &order, nil
}

func quantityOrDefault(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}
