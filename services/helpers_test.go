package services

import (
	"bytes"
	"mime/multipart"
	"testing"
	"time"

	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, auth0ID string, userType models.UserType) *models.User {
	user := &models.User{
		Auth0ID:  auth0ID,
		Name:     "User " + auth0ID,
		Email:    auth0ID + "@example.com",
		UserType: userType,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// newFileHeader builds a multipart.FileHeader the way gin hands one to a handler
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["image"][0]
}
