package models

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// OrderType says whether an order came from the catalog or from a custom request
type OrderType string

const (
	OrderTypeReadyMade OrderType = "ready-made"
	OrderTypeCustom    OrderType = "custom"
)

// OrderState is the lifecycle state of an order
type OrderState string

const (
	OrderPending   OrderState = "pending"
	OrderAccepted  OrderState = "accepted"
	OrderRejected  OrderState = "rejected"
	OrderCompleted OrderState = "completed"
)

// PaymentStatus is a placeholder for the payment collaborator's result
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// MaxRejectionReasonLength bounds Order.RejectionReason
const MaxRejectionReasonLength = 50

var orderTransitions = map[OrderState][]OrderState{
	OrderPending:  {OrderAccepted, OrderRejected},
	OrderAccepted: {OrderCompleted},
}

// CanTransitionTo reports whether the order lifecycle allows s -> next
func (s OrderState) CanTransitionTo(next OrderState) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves s
func (s OrderState) IsTerminal() bool {
	return s == OrderRejected || s == OrderCompleted
}

// Order is a concrete purchase fulfilled by one artisan
type Order struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	CartID            *uint                `gorm:"index" json:"cart_id"`
	Cart              *ShoppingCart        `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"-"`
	BuyerID           *uint                `gorm:"index" json:"buyer_id"`
	Buyer             *User                `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"buyer,omitempty"`
	CustomRequestID   *uint                `gorm:"index" json:"custom_request_id"`
	CustomRequest     *CustomDesignRequest `gorm:"foreignKey:CustomRequestID;constraint:OnDelete:SET NULL" json:"custom_request,omitempty"`
	ProductID         *uint                `gorm:"index" json:"product_id"`
	Product           *Inventory           `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	ArtisanID         uint                 `gorm:"not null;index" json:"artisan_id"`
	Artisan           *User                `gorm:"foreignKey:ArtisanID;constraint:OnDelete:CASCADE" json:"artisan,omitempty"`
	OrderType         OrderType            `gorm:"type:varchar(20);not null" json:"order_type"`
	Status            OrderState           `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Quantity          int                  `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
	TotalAmount       decimal.Decimal      `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	RejectionReason   *string              `gorm:"size:50" json:"rejection_reason"`
	RejectionDate     *time.Time           `json:"rejection_date"`
	DeliveryConfirmed bool                 `gorm:"not null;default:false" json:"delivery_confirmed"`
	PaymentStatus     PaymentStatus        `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Version           int                  `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OwnerArtisanID returns the artisan fulfilling the order
func (o *Order) OwnerArtisanID() *uint {
	if o == nil || o.ArtisanID == 0 {
		return nil
	}
	id := o.ArtisanID
	return &id
}

// IsBuyer reports whether u placed the order
func (o *Order) IsBuyer(u *User) bool {
	return u != nil && o.BuyerID != nil && *o.BuyerID == u.ID
}

// Validate checks field constraints and cross-field invariants
func (o *Order) Validate() ValidationErrors {
	var errs ValidationErrors

	if o.ArtisanID == 0 {
		errs.Add("artisan", "is required")
	}
	if o.Artisan != nil && !o.Artisan.IsArtisan() {
		errs.Add("artisan", `must be a user with user_type "artisan"`)
	}
	if o.Buyer != nil && !o.Buyer.IsBuyer() {
		errs.Add("buyer", `must be a user with user_type "buyer"`)
	}
	if o.Quantity < 1 {
		errs.Add("quantity", "must be at least 1")
	}
	if o.TotalAmount.IsNegative() {
		errs.Add("total_amount", "must not be negative")
	}

	switch o.OrderType {
	case OrderTypeCustom:
		if o.CustomRequestID == nil {
			errs.Add("custom_request", "is required for custom orders")
		}
	case OrderTypeReadyMade:
		if o.ProductID == nil {
			errs.Add("product", "is required for ready-made orders")
		}
	default:
		errs.Add("order_type", "must be ready-made or custom")
	}

	switch o.Status {
	case OrderPending, OrderAccepted, OrderCompleted:
		if o.RejectionReason != nil || o.RejectionDate != nil {
			errs.Add("rejection_reason", "may only be set on rejected orders")
		}
	case OrderRejected:
		if o.RejectionReason == nil || *o.RejectionReason == "" {
			errs.Add("rejection_reason", "is required when rejecting an order")
		} else if utf8.RuneCountInString(*o.RejectionReason) > MaxRejectionReasonLength {
			errs.Add("rejection_reason", "must be at most 50 characters")
		}
		if o.RejectionDate == nil {
			errs.Add("rejection_date", "is required when rejecting an order")
		}
	default:
		errs.Add("status", "is not a valid order status")
	}

	switch o.PaymentStatus {
	case PaymentPending, PaymentCompleted, PaymentFailed:
	default:
		errs.Add("payment_status", "is not a valid payment status")
	}

	return errs
}
