package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/permissions"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateCustomRequestInput is what a buyer submits when commissioning a piece
type CreateCustomRequestInput struct {
	ArtisanID      uint
	ProductID      *uint
	Description    string
	ReferenceImage string
	Deadline       time.Time
}

// QuoteInput carries the artisan's pricing. Nil amounts leave the stored value unchanged.
type QuoteInput struct {
	QuoteAmount   *decimal.Decimal
	MaterialPrice *decimal.Decimal
	LabourPrice   *decimal.Decimal
	Accept        bool
}

// CustomRequestService runs the custom design request workflow
type CustomRequestService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCustomRequestService creates a service backed by db
func NewCustomRequestService(db *gorm.DB) *CustomRequestService {
	return &CustomRequestService{db: db, now: time.Now}
}

// Create records a new request in material-sourcing, not yet accepted
func (s *CustomRequestService) Create(ctx context.Context, buyer *models.User, in CreateCustomRequestInput) (*models.CustomDesignRequest, error) {
	if !buyer.IsBuyer() {
		return nil, forbidden("only buyers can create custom requests")
	}

	db := s.db.WithContext(ctx)

	var errs models.ValidationErrors
	var artisan models.User
	if in.ArtisanID != 0 {
		if err := db.First(&artisan, in.ArtisanID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to load artisan: %w", err)
			}
			errs.Add("artisan", "does not exist")
		}
	}
	if in.ProductID != nil {
		var count int64
		if err := db.Model(&models.Inventory{}).Where("id = ?", *in.ProductID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if count == 0 {
			errs.Add("product", "does not exist")
		}
	}

	request := &models.CustomDesignRequest{
		BuyerID:        buyer.ID,
		Buyer:          buyer,
		ArtisanID:      in.ArtisanID,
		ProductID:      in.ProductID,
		IsAccepted:     false,
		Description:    in.Description,
		ReferenceImage: in.ReferenceImage,
		Deadline:       in.Deadline,
		Status:         models.CustomRequestMaterialSourcing,
		Version:        1,
	}
	if artisan.ID != 0 {
		request.Artisan = &artisan
	}

	errs = append(errs, request.Validate()...)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := db.Omit(clause.Associations).Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create custom request: %w", err)
	}

	log.Printf("Custom request %d created by buyer %d for artisan %d", request.ID, buyer.ID, request.ArtisanID)
	return request, nil
}

// Get loads a request with its buyer and artisan
func (s *CustomRequestService) Get(ctx context.Context, id uint) (*models.CustomDesignRequest, error) {
	return loadCustomRequest(s.db.WithContext(ctx), id)
}

// ListForUser returns the requests the user is a party to, newest first
func (s *CustomRequestService) ListForUser(ctx context.Context, user *models.User) ([]models.CustomDesignRequest, error) {
	query := s.db.WithContext(ctx).Preload("Buyer").Preload("Artisan").Order("created_at DESC")
	switch {
	case user.IsAdmin():
	case user.IsArtisan():
		query = query.Where("artisan_id = ?", user.ID)
	default:
		query = query.Where("buyer_id = ?", user.ID)
	}

	var requests []models.CustomDesignRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list custom requests: %w", err)
	}
	return requests, nil
}

// Quote stores the artisan's pricing and optionally accepts the request.
// Acceptance cannot be withdrawn.
func (s *CustomRequestService) Quote(ctx context.Context, actor *models.User, id uint, in QuoteInput) (*models.CustomDesignRequest, error) {
	db := s.db.WithContext(ctx)

	request, err := s.loadMutable(db, actor, id)
	if err != nil {
		return nil, err
	}

	updated := *request
	setAmount(&updated.QuoteAmount, in.QuoteAmount)
	setAmount(&updated.MaterialPrice, in.MaterialPrice)
	setAmount(&updated.LabourPrice, in.LabourPrice)
	if in.Accept {
		updated.IsAccepted = true
	}

	if err := updated.Validate().Err(); err != nil {
		return nil, err
	}

	now := s.now()
	err = updateVersioned(db, &models.CustomDesignRequest{}, request.ID, request.Version, map[string]interface{}{
		"quote_amount":   updated.QuoteAmount,
		"material_price": updated.MaterialPrice,
		"labour_price":   updated.LabourPrice,
		"is_accepted":    updated.IsAccepted,
		"updated_at":     now,
	})
	if err != nil {
		return nil, err
	}
	updated.Version++
	updated.UpdatedAt = now

	log.Printf("Custom request %d quoted by user %d (accepted=%t)", request.ID, actor.ID, updated.IsAccepted)
	return &updated, nil
}

// AdvanceStatus moves the request one step forward in production
func (s *CustomRequestService) AdvanceStatus(ctx context.Context, actor *models.User, id uint, next models.CustomRequestStatus) (*models.CustomDesignRequest, error) {
	db := s.db.WithContext(ctx)

	request, err := s.loadMutable(db, actor, id)
	if err != nil {
		return nil, err
	}

	if !request.Status.CanAdvanceTo(next) {
		return nil, invalidTransition("custom request cannot move from %s to %s", request.Status, next)
	}

	now := s.now()
	err = updateVersioned(db, &models.CustomDesignRequest{}, request.ID, request.Version, map[string]interface{}{
		"status":     next,
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}

	request.Status = next
	request.Version++
	request.UpdatedAt = now
	return request, nil
}

// AddUpload attaches an artisan's image to the request. The ownership
// invariant is checked before anything is written.
func (s *CustomRequestService) AddUpload(ctx context.Context, actor *models.User, id uint, imageKey string) (*models.ArtisanUploadImage, error) {
	db := s.db.WithContext(ctx)

	request, err := loadCustomRequest(db, id)
	if err != nil {
		return nil, err
	}

	upload := &models.ArtisanUploadImage{
		CustomRequestID: request.ID,
		CustomRequest:   request,
		ArtisanID:       &actor.ID,
		Artisan:         actor,
		Image:           imageKey,
	}
	if err := upload.Validate().Err(); err != nil {
		return nil, err
	}

	if err := db.Omit(clause.Associations).Create(upload).Error; err != nil {
		return nil, fmt.Errorf("failed to save artisan upload: %w", err)
	}
	return upload, nil
}

// Uploads lists the artisan images attached to a request, oldest first
func (s *CustomRequestService) Uploads(ctx context.Context, id uint) ([]models.ArtisanUploadImage, error) {
	var uploads []models.ArtisanUploadImage
	err := s.db.WithContext(ctx).
		Where("custom_request_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&uploads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}

// loadMutable loads a request the actor may change. Requests tied to a
// completed order are frozen.
func (s *CustomRequestService) loadMutable(db *gorm.DB, actor *models.User, id uint) (*models.CustomDesignRequest, error) {
	request, err := loadCustomRequest(db, id)
	if err != nil {
		return nil, err
	}
	if !permissions.CanAccess(actor, request) {
		return nil, forbidden("only the assigned artisan can update this custom request")
	}

	var completed int64
	err = db.Model(&models.Order{}).
		Where("custom_request_id = ? AND status = ?", request.ID, models.OrderCompleted).
		Count(&completed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check linked orders: %w", err)
	}
	if completed > 0 {
		return nil, ErrRequestLocked
	}
	return request, nil
}

func loadCustomRequest(db *gorm.DB, id uint) (*models.CustomDesignRequest, error) {
	var request models.CustomDesignRequest
	if err := db.Preload("Buyer").Preload("Artisan").First(&request, id).Error; err != nil {
		return nil, lookupErr(err, "custom request")
	}
	return &request, nil
}

func setAmount(dst *decimal.NullDecimal, src *decimal.Decimal) {
	if src != nil {
		*dst = decimal.NewNullDecimal(*src)
	}
}
