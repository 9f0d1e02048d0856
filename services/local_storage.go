package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/artisan-marketplace-api/utils"
)

// LocalStorage keeps media on the local filesystem under root.
// Used in development when no bucket is configured; the relocation
// batch later moves these files into S3.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates local storage rooted at root
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// UploadFile saves a multipart upload under root/prefix
func (l *LocalStorage) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return utils.SaveUploadedFile(fileHeader, l.root, prefix)
}

// PutObject writes content to root/key
func (l *LocalStorage) PutObject(ctx context.Context, key string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetPresignedURL returns the API path serving key
func (l *LocalStorage) GetPresignedURL(ctx context.Context, key string) (string, error) {
	return utils.GetImageURL(key), nil
}

// DeleteFile removes root/key; a missing file is not an error
func (l *LocalStorage) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	full, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (l *LocalStorage) resolve(key string) (string, error) {
	cleaned := utils.CleanMediaKey(key)
	if cleaned == "" {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}
