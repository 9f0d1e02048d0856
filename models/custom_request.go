package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomRequestStatus tracks production of a bespoke commission
type CustomRequestStatus string

const (
	CustomRequestMaterialSourcing CustomRequestStatus = "material-sourcing"
	CustomRequestInProgress       CustomRequestStatus = "in-progress"
	CustomRequestCompleted        CustomRequestStatus = "completed"
)

var customRequestFlow = map[CustomRequestStatus]CustomRequestStatus{
	CustomRequestMaterialSourcing: CustomRequestInProgress,
	CustomRequestInProgress:       CustomRequestCompleted,
}

// Valid reports whether s is a known custom request status
func (s CustomRequestStatus) Valid() bool {
	switch s {
	case CustomRequestMaterialSourcing, CustomRequestInProgress, CustomRequestCompleted:
		return true
	}
	return false
}

// CanAdvanceTo reports whether next is the single forward step after s
func (s CustomRequestStatus) CanAdvanceTo(next CustomRequestStatus) bool {
	want, ok := customRequestFlow[s]
	return ok && want == next
}

// CustomDesignRequest is a buyer's bespoke order proposal addressed to one artisan
type CustomDesignRequest struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	BuyerID        uint                `gorm:"not null;index" json:"buyer_id"`
	Buyer          *User               `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"buyer,omitempty"`
	ArtisanID      uint                `gorm:"not null;index" json:"artisan_id"`
	Artisan        *User               `gorm:"foreignKey:ArtisanID;constraint:OnDelete:CASCADE" json:"artisan,omitempty"`
	ProductID      *uint               `gorm:"index" json:"product_id"`
	Product        *Inventory          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	IsAccepted     bool                `gorm:"not null;default:false" json:"is_accepted"`
	Description    string              `gorm:"type:text" json:"description"`
	ReferenceImage string              `json:"reference_image"`
	ReferenceURL   *string             `gorm:"-" json:"reference_image_url,omitempty"` // computed field, presigned URL for reference image
	Deadline       time.Time           `gorm:"type:date;not null" json:"deadline"`
	Status         CustomRequestStatus `gorm:"type:varchar(50);not null;default:'material-sourcing'" json:"status"`
	QuoteAmount    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"quote_amount"`
	MaterialPrice  decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"material_price"`
	LabourPrice    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"labour_price"`
	Version        int                 `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the CustomDesignRequest model
func (CustomDesignRequest) TableName() string {
	return "custom_design_requests"
}

// OwnerArtisanID returns the artisan the request is addressed to
func (r *CustomDesignRequest) OwnerArtisanID() *uint {
	if r == nil || r.ArtisanID == 0 {
		return nil
	}
	id := r.ArtisanID
	return &id
}

// Validate checks the request's own invariants. Buyer and Artisan are
// checked for user type only when they are loaded.
func (r *CustomDesignRequest) Validate() ValidationErrors {
	var errs ValidationErrors

	if r.BuyerID == 0 {
		errs.Add("buyer", "is required")
	}
	if r.ArtisanID == 0 {
		errs.Add("artisan", "is required")
	}
	if r.BuyerID != 0 && r.BuyerID == r.ArtisanID {
		errs.Add("artisan", "must be a different user than the buyer")
	}
	if r.Buyer != nil && !r.Buyer.IsBuyer() {
		errs.Add("buyer", `must be a user with user_type "buyer"`)
	}
	if r.Artisan != nil && !r.Artisan.IsArtisan() {
		errs.Add("artisan", `must be a user with user_type "artisan"`)
	}
	if r.Deadline.IsZero() {
		errs.Add("deadline", "is required")
	}
	if !r.Status.Valid() {
		errs.Add("status", "is not a valid custom request status")
	}

	checkNonNegative(&errs, "quote_amount", r.QuoteAmount)
	checkNonNegative(&errs, "material_price", r.MaterialPrice)
	checkNonNegative(&errs, "labour_price", r.LabourPrice)

	return errs
}
