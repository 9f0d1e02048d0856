package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// AllowedImageFormats lists accepted image extensions
var AllowedImageFormats = []string{".png", ".jpg", ".jpeg", ".webp"}

var (
	// UploadDir is the local media root used when no object store is configured
	// Can be overridden for testing
	UploadDir = "./media"
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// IsAllowedImage reports whether filename has an accepted image extension
func IsAllowedImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedImageFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateImageFile validates the uploaded file format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	if !IsAllowedImage(fileHeader.Filename) {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedImageFormats, ", ")),
		}
	}

	return nil
}

// CleanMediaKey normalises a stored media key and rejects keys that would
// escape the media root. It returns "" for unusable keys.
func CleanMediaKey(key string) string {
	if key == "" || strings.Contains(key, "\\") {
		return ""
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || strings.Contains(key, "..") {
		return ""
	}
	return cleaned
}

// SaveUploadedFile saves the uploaded file under uploadDir/subdir
// Returns the media key (subdir/filename) of the saved file
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir, subdir string) (key string, err error) {
	targetDir := filepath.Join(uploadDir, filepath.FromSlash(subdir))
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Generate unique filename to prevent collisions
	filename := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(fileHeader.Filename))
	fullPath := filepath.Join(targetDir, filename)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			fmt.Printf("warning: failed to close source file: %v\n", closeErr)
		}
	}()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return path.Join(subdir, filename), nil
}

// GetImageURL returns the URL path for accessing a locally stored image
func GetImageURL(key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/media/%s", key)
}
