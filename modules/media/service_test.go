package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryFileStore is an in-memory FileStore for service tests.
type memoryFileStore struct {
	mu    sync.Mutex
	files map[string]*File
}

func newMemoryFileStore() *memoryFileStore {
	return &memoryFileStore{files: make(map[string]*File)}
}

func (s *memoryFileStore) Create(_ context.Context, f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *f
	s.files[f.ID] = &clone
	return nil
}

func (s *memoryFileStore) Get(_ context.Context, fileID, userID string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok || f.UserID != userID {
		return nil, ErrFileNotFound
	}
	clone := *f
	return &clone, nil
}

func (s *memoryFileStore) List(_ context.Context, userID string) ([]File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := []File{}
	for _, f := range s.files {
		if f.UserID == userID {
			files = append(files, *f)
		}
	}
	return files, nil
}

func (s *memoryFileStore) Delete(_ context.Context, fileID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok || f.UserID != userID {
		return ErrFileNotFound
	}
	delete(s.files, fileID)
	return nil
}

func testServiceConfig(t *testing.T) *Config {
	return &Config{
		UploadPath:   t.TempDir(),
		BaseURL:      "http://localhost:8080",
		MaxFileSize:  1024,
		AllowedTypes: []string{"image/jpeg", "image/png"},
	}
}

func TestValidateUpload(t *testing.T) {
	svc := NewService(testServiceConfig(t), nil)

	tests := []struct {
		name        string
		size        int64
		contentType string
		wantErr     error
	}{
		{"ok", 512, "image/jpeg", nil},
		{"at limit", 1024, "image/png", nil},
		{"empty", 0, "image/jpeg", ErrEmptyFile},
		{"negative size", -1, "image/jpeg", ErrEmptyFile},
		{"too large", 2048, "image/jpeg", ErrFileTooLarge},
		{"wrong type", 512, "application/pdf", ErrUnsupportedType},
		{"no type", 512, "", ErrUnsupportedType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateUpload(tc.size, tc.contentType)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestSaveGetDeleteRoundTrip(t *testing.T) {
	cfg := testServiceConfig(t)
	svc := NewService(cfg, newMemoryFileStore())
	ctx := context.Background()

	saved, err := svc.Save(ctx, "user-1", "photo.jpg", "image/jpeg", 11,
		strings.NewReader("hello bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), saved.Size)
	assert.Equal(t, "http://localhost:8080/media/files/"+saved.ID, saved.URL)

	onDisk, err := os.ReadFile(filepath.Join(cfg.UploadPath, "user-1", saved.ID+".jpg"))
	require.NoError(t, err)
	assert.Equal(t, "hello bytes", string(onDisk))

	got, err := svc.Get(ctx, saved.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, saved.URL, got.URL, "Get resolves the URL like List does")
	assert.Equal(t, saved.Path, got.Path)

	// Another user cannot see or delete the file.
	_, err = svc.Get(ctx, saved.ID, "user-2")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, saved.ID, "user-2"), ErrFileNotFound)

	require.NoError(t, svc.Delete(ctx, saved.ID, "user-1"))
	_, err = svc.Get(ctx, saved.ID, "user-1")
	assert.ErrorIs(t, err, ErrFileNotFound)
	_, err = os.Stat(filepath.Join(cfg.UploadPath, "user-1", saved.ID+".jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRejectsLyingContentLength(t *testing.T) {
	svc := NewService(testServiceConfig(t), newMemoryFileStore())

	// Declared size passes validation; the stream is far larger.
	_, err := svc.Save(context.Background(), "user-1", "photo.jpg", "image/jpeg", 512,
		strings.NewReader(strings.Repeat("x", 4096)))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		fileName    string
		contentType string
		want        string
	}{
		{"photo.jpg", "image/jpeg", ".jpg"},
		{"PHOTO.JPG", "image/jpeg", ".jpg"},
		{"holiday.webp", "image/webp", ".webp"},
		{"noext", "image/png", ".png"},
		{"noext", "image/gif", ".gif"},
		{"weird." + strings.Repeat("x", 10), "image/jpeg", ".jpg"},
		{"noext", "application/octet-stream", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, extensionFor(tc.fileName, tc.contentType),
			"%s / %s", tc.fileName, tc.contentType)
	}
}
