package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory is a ready-made product listed by an artisan.
// Listing management lives outside this service; orders only reference it.
type Inventory struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ArtisanID uint            `gorm:"not null;index" json:"artisan_id"`
	Artisan   User            `gorm:"foreignKey:ArtisanID;constraint:OnDelete:CASCADE" json:"-"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image     string          `json:"image"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Inventory model
func (Inventory) TableName() string {
	return "inventories"
}

// ShoppingCart groups ready-made items a buyer checks out together
type ShoppingCart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuyerID   uint      `gorm:"not null;index" json:"buyer_id"`
	Buyer     User      `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ShoppingCart model
func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// Profile carries the public avatar of a user
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// PortfolioImage is one piece in an artisan's showcase
type PortfolioImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArtisanID uint      `gorm:"not null;index" json:"artisan_id"`
	Artisan   User      `gorm:"foreignKey:ArtisanID;constraint:OnDelete:CASCADE" json:"-"`
	Image     string    `gorm:"not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the PortfolioImage model
func (PortfolioImage) TableName() string {
	return "portfolio_images"
}
