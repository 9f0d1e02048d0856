package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a buyer's write-once feedback on a completed order
type Rating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;uniqueIndex:idx_rating_order_buyer" json:"order_id"`
	Order      *Order    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	BuyerID    uint      `gorm:"not null;uniqueIndex:idx_rating_order_buyer" json:"buyer_id"`
	Buyer      *User     `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Rating     int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	ReviewText *string   `gorm:"type:text" json:"review_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the Rating model
func (Rating) TableName() string {
	return "ratings"
}

// Validate checks the score range and, when loaded, that the author bought the order
func (r *Rating) Validate() ValidationErrors {
	var errs ValidationErrors

	if r.OrderID == 0 {
		errs.Add("order", "is required")
	}
	if r.BuyerID == 0 {
		errs.Add("buyer", "is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		errs.Add("rating", "must be an integer between 1 and 5")
	}
	if r.Buyer != nil && !r.Buyer.IsBuyer() {
		errs.Add("buyer", `must be a user with user_type "buyer"`)
	}
	if r.Order != nil && (r.Order.BuyerID == nil || *r.Order.BuyerID != r.BuyerID) {
		errs.Add("buyer", "must be the buyer of the order")
	}

	return errs
}
