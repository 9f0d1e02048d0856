package models

import "time"

// ArtisanUploadImage is a work-in-progress picture an artisan attaches to a custom request
type ArtisanUploadImage struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	CustomRequestID uint                 `gorm:"not null;index" json:"custom_request_id"`
	CustomRequest   *CustomDesignRequest `gorm:"foreignKey:CustomRequestID;constraint:OnDelete:CASCADE" json:"-"`
	ArtisanID       *uint                `gorm:"index" json:"artisan_id"`
	Artisan         *User                `gorm:"foreignKey:ArtisanID;constraint:OnDelete:CASCADE" json:"-"`
	Image           string               `gorm:"not null" json:"image"`
	ImageURL        *string              `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for image
	CreatedAt       time.Time            `json:"created_at"`
}

// TableName specifies the table name for the ArtisanUploadImage model
func (ArtisanUploadImage) TableName() string {
	return "artisan_upload_images"
}

// OwnerArtisanID returns the uploading artisan, falling back to the request's artisan
func (u *ArtisanUploadImage) OwnerArtisanID() *uint {
	if u == nil {
		return nil
	}
	if u.ArtisanID != nil {
		return u.ArtisanID
	}
	return u.CustomRequest.OwnerArtisanID()
}

// Validate enforces upload ownership. The tagged artisan must be an artisan
// and, when the request has an assigned artisan, must be that artisan.
// Artisan and CustomRequest must be loaded for those checks to apply.
func (u *ArtisanUploadImage) Validate() ValidationErrors {
	var errs ValidationErrors

	if u.CustomRequestID == 0 {
		errs.Add("custom_request", "is required")
	}
	if u.Image == "" {
		errs.Add("image", "is required")
	}

	if u.ArtisanID != nil && u.Artisan != nil && !u.Artisan.IsArtisan() {
		errs.Add("artisan", `only users with user_type "artisan" can upload images`)
	}
	if u.ArtisanID != nil && u.CustomRequest != nil && u.CustomRequest.ArtisanID != 0 &&
		u.CustomRequest.ArtisanID != *u.ArtisanID {
		errs.Add("artisan", "the uploading artisan must match the artisan assigned to the custom request")
	}

	return errs
}
