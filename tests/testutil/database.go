package testutil

import (
	"strings"
	"testing"

	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database and installs it as
// the application database. The connection is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	RequireTestEnvironment(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Every connection to ":memory:" is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(nil)
		_ = sqlDB.Close()
	})
	return db
}

// SeedUser inserts a marketplace user for the given Auth0 subject
func SeedUser(t *testing.T, db *gorm.DB, auth0ID, name string, userType models.UserType) models.User {
	t.Helper()

	user := models.User{
		Auth0ID:  auth0ID,
		Name:     name,
		Email:    strings.TrimPrefix(auth0ID, "auth0|") + "@example.com",
		UserType: userType,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", auth0ID, err)
	}
	return user
}
