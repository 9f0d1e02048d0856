package models

import (
	"time"

	"gorm.io/gorm"
)

// UserType distinguishes buyers, artisans and administrators
type UserType string

const (
	UserTypeBuyer   UserType = "buyer"
	UserTypeArtisan UserType = "artisan"
	UserTypeAdmin   UserType = "admin"
)

// Valid reports whether t is a known user type
func (t UserType) Valid() bool {
	switch t {
	case UserTypeBuyer, UserTypeArtisan, UserTypeAdmin:
		return true
	}
	return false
}

// User represents a marketplace account
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	UserType  UserType       `gorm:"type:varchar(20);not null;default:'buyer'" json:"user_type"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsBuyer reports whether the user places orders
func (u *User) IsBuyer() bool {
	return u != nil && u.UserType == UserTypeBuyer
}

// IsArtisan reports whether the user fulfills orders
func (u *User) IsArtisan() bool {
	return u != nil && u.UserType == UserTypeArtisan
}

// IsAdmin reports whether the user administers the marketplace
func (u *User) IsAdmin() bool {
	return u != nil && u.UserType == UserTypeAdmin
}
