package models

import "time"

// MilestoneStatus is the production stage an artisan reports
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in-progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Valid reports whether s is a known milestone status
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted:
		return true
	}
	return false
}

// OrderStatusUpdate is one production milestone an artisan posts against an
// order. The buyer approves each one; approval is the only mutation allowed
// after the record is created.
type OrderStatusUpdate struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"not null;index" json:"order_id"`
	Order             *Order          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	ArtisanID         uint            `gorm:"not null;index" json:"artisan_id"`
	Artisan           *User           `gorm:"foreignKey:ArtisanID;constraint:OnDelete:CASCADE" json:"-"`
	Status            MilestoneStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Description       *string         `gorm:"type:text" json:"description"`
	Image             string          `json:"image"`
	ImageURL          *string         `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for image
	BuyerApproval     bool            `gorm:"not null;default:false" json:"buyer_approval"`
	ApprovalTimestamp *time.Time      `json:"approval_timestamp"`
	Version           int             `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the OrderStatusUpdate model
func (OrderStatusUpdate) TableName() string {
	return "order_statuses"
}

// OwnerArtisanID returns the artisan who posted the milestone
func (m *OrderStatusUpdate) OwnerArtisanID() *uint {
	if m == nil || m.ArtisanID == 0 {
		return nil
	}
	id := m.ArtisanID
	return &id
}

// Validate checks the milestone. When Order is loaded the posting artisan
// must be the order's artisan.
func (m *OrderStatusUpdate) Validate() ValidationErrors {
	var errs ValidationErrors

	if m.OrderID == 0 {
		errs.Add("order", "is required")
	}
	if m.ArtisanID == 0 {
		errs.Add("artisan", "is required")
	}
	if m.Artisan != nil && !m.Artisan.IsArtisan() {
		errs.Add("artisan", `must be a user with user_type "artisan"`)
	}
	if m.Order != nil && m.ArtisanID != 0 && m.Order.ArtisanID != m.ArtisanID {
		errs.Add("artisan", "must be the artisan assigned to the order")
	}
	if !m.Status.Valid() {
		errs.Add("status", "must be pending, in-progress or completed")
	}
	if m.BuyerApproval != (m.ApprovalTimestamp != nil) {
		errs.Add("approval_timestamp", "must be set exactly when the buyer has approved")
	}

	return errs
}
