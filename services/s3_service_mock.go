package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
)

// MockS3Service is an in-memory implementation of S3Interface for testing
type MockS3Service struct {
	uploadedFiles map[string][]byte // map of S3 key to file content
	failures      map[string]error  // keys whose PutObject should fail
	mu            sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
		failures:      make(map[string]error),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// FailOn makes every PutObject for key return err
func (m *MockS3Service) FailOn(key string, err error) {
	m.mu.Lock()
	m.failures[key] = err
	m.mu.Unlock()
}

// UploadFile simulates uploading a multipart file
func (m *MockS3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	content, err := readFileHeader(fileHeader)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/mock_%s", prefix, fileHeader.Filename)
	if err := m.PutObject(ctx, key, content); err != nil {
		return "", err
	}
	return key, nil
}

// PutObject stores content in memory, honouring ctx cancellation and injected failures
func (m *MockS3Service) PutObject(ctx context.Context, key string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failures[key]; ok {
		return err
	}
	m.uploadedFiles[key] = append([]byte(nil), content...)
	return nil
}

// GetPresignedURL simulates generating a presigned URL
func (m *MockS3Service) GetPresignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.uploadedFiles[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteFile simulates deleting a file from S3
func (m *MockS3Service) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.uploadedFiles, key)
	m.mu.Unlock()

	return nil
}

// GetUploadedFiles returns all uploaded files (for testing assertions)
func (m *MockS3Service) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.uploadedFiles))
	for k, v := range m.uploadedFiles {
		files[k] = v
	}
	return files
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[key]
	return exists
}

// Clear removes all files and injected failures
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.uploadedFiles = make(map[string][]byte)
	m.failures = make(map[string]error)
	m.mu.Unlock()
}
