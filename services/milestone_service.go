package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/kendall-kelly/artisan-marketplace-api/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostMilestoneInput is an artisan's production checkpoint
type PostMilestoneInput struct {
	Status      models.MilestoneStatus
	Description *string
	Image       string
}

// ApprovalResult is the approved milestone and the order as it stands afterwards
type ApprovalResult struct {
	Milestone *models.OrderStatusUpdate
	Order     *models.Order
}

// MilestoneService runs the order status / buyer approval sub-workflow
type MilestoneService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMilestoneService creates a service backed by db
func NewMilestoneService(db *gorm.DB) *MilestoneService {
	return &MilestoneService{db: db, now: time.Now}
}

// Post appends a milestone to an accepted order. Only the order's artisan may post.
func (s *MilestoneService) Post(ctx context.Context, actor *models.User, orderID uint, in PostMilestoneInput) (*models.OrderStatusUpdate, error) {
	db := s.db.WithContext(ctx)

	order, err := loadOrder(db, orderID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanAccess(actor, order) {
		return nil, forbidden("only the assigned artisan can post milestones")
	}
	if order.Status != models.OrderAccepted {
		return nil, invalidTransition("milestones can only be posted on accepted orders, order is %s", order.Status)
	}

	status := in.Status
	if status == "" {
		status = models.MilestonePending
	}

	milestone := &models.OrderStatusUpdate{
		OrderID:     order.ID,
		Order:       order,
		ArtisanID:   actor.ID,
		Artisan:     actor,
		Status:      status,
		Description: in.Description,
		Image:       in.Image,
		Version:     1,
	}
	if err := milestone.Validate().Err(); err != nil {
		return nil, err
	}

	if err := db.Omit(clause.Associations).Create(milestone).Error; err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}

	log.Printf("Milestone %d (%s) posted on order %d", milestone.ID, milestone.Status, order.ID)
	return milestone, nil
}

// Approve records the buyer's approval of a milestone and, in the same
// transaction, completes the order once its production is fully signed off.
func (s *MilestoneService) Approve(ctx context.Context, buyer *models.User, milestoneID uint) (*ApprovalResult, error) {
	var result *ApprovalResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var milestone models.OrderStatusUpdate
		if err := tx.First(&milestone, milestoneID).Error; err != nil {
			return lookupErr(err, "milestone")
		}
		order, err := loadOrder(tx, milestone.OrderID)
		if err != nil {
			return err
		}
		if !order.IsBuyer(buyer) {
			return forbidden("only the buyer of the order can approve milestones")
		}
		if milestone.BuyerApproval {
			return ErrAlreadyApproved
		}

		// Every approval bumps the order version first, so approvals of
		// sibling milestones contend on the order row and the completion
		// check below always sees the others' committed approvals.
		now := s.now()
		err = updateVersioned(tx, &models.Order{}, order.ID, order.Version, map[string]interface{}{
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		order.Version++
		order.UpdatedAt = now

		err = updateVersioned(tx, &models.OrderStatusUpdate{}, milestone.ID, milestone.Version, map[string]interface{}{
			"buyer_approval":     true,
			"approval_timestamp": now,
		})
		if err != nil {
			return err
		}
		milestone.BuyerApproval = true
		milestone.ApprovalTimestamp = &now
		milestone.Version++

		order, err = completeIfSignedOff(tx, order, now)
		if err != nil {
			return err
		}

		result = &ApprovalResult{Milestone: &milestone, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List returns an order's milestones in the order they were posted
func (s *MilestoneService) List(ctx context.Context, orderID uint) ([]models.OrderStatusUpdate, error) {
	return listMilestones(s.db.WithContext(ctx), orderID)
}

// completeIfSignedOff completes an accepted order once every milestone is approved
func completeIfSignedOff(tx *gorm.DB, order *models.Order, now time.Time) (*models.Order, error) {
	if order.Status != models.OrderAccepted {
		return order, nil
	}

	milestones, err := listMilestones(tx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(milestones) == 0 {
		return order, nil
	}
	for _, m := range milestones {
		if !m.BuyerApproval {
			return order, nil
		}
	}

	return transitionOrder(tx, order, models.OrderCompleted, now, nil)
}

func listMilestones(db *gorm.DB, orderID uint) ([]models.OrderStatusUpdate, error) {
	var milestones []models.OrderStatusUpdate
	err := db.Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}
