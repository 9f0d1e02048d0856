package services

import (
	"fmt"

	"gorm.io/gorm"
)

// updateVersioned applies updates to the row id only if it still carries
// version, and bumps the version. A stale version affects zero rows and is
// reported as ErrConflict, so of two concurrent writers exactly one wins.
func updateVersioned(tx *gorm.DB, model interface{}, id uint, version int, updates map[string]interface{}) error {
	updates["version"] = gorm.Expr("version + 1")

	result := tx.Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
