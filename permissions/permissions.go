package permissions

import "github.com/kendall-kelly/artisan-marketplace-api/models"

// ArtisanOwned is any resource assigned to a single artisan.
// OwnerArtisanID returns nil when no artisan is assigned.
type ArtisanOwned interface {
	OwnerArtisanID() *uint
}

// CanAccess decides whether requester may read or mutate an artisan-owned resource.
// Admins may access everything; otherwise only the resource's artisan may.
// The buyer of an order is not covered here.
func CanAccess(requester *models.User, resource ArtisanOwned) bool {
	if requester == nil {
		return false
	}
	if requester.IsAdmin() {
		return true
	}
	if resource == nil {
		return false
	}
	owner := resource.OwnerArtisanID()
	return owner != nil && *owner == requester.ID
}
