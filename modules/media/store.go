package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// File is the metadata row for one uploaded file. The bytes live on disk
// under the module's upload path; Path is relative to it.
type File struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Path        string    `json:"-"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

var ErrFileNotFound = errors.New("media: file not found")

// FileStore persists upload metadata.
type FileStore interface {
	Create(ctx context.Context, f *File) error
	Get(ctx context.Context, fileID, userID string) (*File, error)
	List(ctx context.Context, userID string) ([]File, error)
	Delete(ctx context.Context, fileID, userID string) error
}

// Store is the production FileStore, backed by Postgres.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS media_files (
			id           UUID PRIMARY KEY,
			user_id      UUID NOT NULL,
			file_name    TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size         BIGINT NOT NULL,
			path         TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS media_files_user_idx ON media_files (user_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("create media_files table: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, f *File) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO media_files (id, user_id, file_name, content_type, size, path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.UserID, f.FileName, f.ContentType, f.Size, f.Path, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert media file: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, fileID, userID string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, file_name, content_type, size, path, created_at
		FROM media_files WHERE id = $1 AND user_id = $2`, fileID, userID).
		Scan(&f.ID, &f.UserID, &f.FileName, &f.ContentType, &f.Size, &f.Path, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query media file: %w", err)
	}
	return f, nil
}

func (s *Store) List(ctx context.Context, userID string) ([]File, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, file_name, content_type, size, path, created_at
		FROM media_files WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list media files: %w", err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.UserID, &f.FileName, &f.ContentType, &f.Size,
			&f.Path, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) Delete(ctx context.Context, fileID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM media_files WHERE id = $1 AND user_id = $2`, fileID, userID)
	if err != nil {
		return fmt.Errorf("delete media file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}
