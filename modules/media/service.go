package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge    = errors.New("media: file exceeds maximum size")
	ErrUnsupportedType = errors.New("media: unsupported content type")
	ErrEmptyFile       = errors.New("media: empty file")
)

// Service stores upload bytes on local disk and their metadata in
// Postgres. Files are grouped in per-user subdirectories named by the
// generated file ID, so client-supplied names never touch the filesystem.
type Service struct {
	cfg   *Config
	store FileStore
}

func NewService(cfg *Config, store FileStore) *Service {
	return &Service{cfg: cfg, store: store}
}

// ValidateUpload checks declared size and content type before any bytes
// are read.
func (s *Service) ValidateUpload(size int64, contentType string) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > s.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, s.cfg.MaxFileSize)
	}
	if !slices.Contains(s.cfg.AllowedTypes, contentType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return nil
}

// Save streams the upload to disk and records its metadata. The reader is
// wrapped in a hard limit so a lying Content-Length cannot blow past the
// configured maximum.
func (s *Service) Save(ctx context.Context, userID, fileName, contentType string, size int64, r io.Reader) (*File, error) {
	if err := s.ValidateUpload(size, contentType); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	relPath := filepath.Join(userID, id+extensionFor(fileName, contentType))
	absPath := filepath.Join(s.cfg.UploadPath, relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(r, s.cfg.MaxFileSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.cfg.MaxFileSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	f := &File{
		ID:          id,
		UserID:      userID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        written,
		Path:        relPath,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(ctx, f); err != nil {
		_ = os.Remove(absPath)
		return nil, err
	}
	s.resolveURL(f)
	return f, nil
}

// Get returns one file's metadata with its URL resolved.
func (s *Service) Get(ctx context.Context, fileID, userID string) (*File, error) {
	f, err := s.store.Get(ctx, fileID, userID)
	if err != nil {
		return nil, err
	}
	s.resolveURL(f)
	return f, nil
}

// List returns the user's uploads, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]File, error) {
	files, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range files {
		s.resolveURL(&files[i])
	}
	return files, nil
}

// Delete removes the metadata row and the bytes on disk. A missing disk
// file is not an error; the metadata row is authoritative.
func (s *Service) Delete(ctx context.Context, fileID, userID string) error {
	f, err := s.store.Get(ctx, fileID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, fileID, userID); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.cfg.UploadPath, f.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload from disk: %w", err)
	}
	return nil
}

func (s *Service) resolveURL(f *File) {
	f.URL = strings.TrimSuffix(s.cfg.BaseURL, "/") + "/media/files/" + f.ID
}

// extensionFor keeps the original extension when it is plausible,
// otherwise derives one from the content type.
func extensionFor(fileName, contentType string) string {
	if ext := filepath.Ext(fileName); len(ext) > 1 && len(ext) <= 6 {
		return strings.ToLower(ext)
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
