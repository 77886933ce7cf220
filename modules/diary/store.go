package diary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Diary is a journal owned by one user, a container for entries.
type Diary struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CoverImage  string    `json:"coverImage,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Entry is one dated record inside a diary.
type Entry struct {
	ID        string    `json:"id"`
	DiaryID   string    `json:"diaryId"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Location  string    `json:"location,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrDiaryNotFound = errors.New("diary: not found")

// Store persists diaries and entries in Postgres. All queries are scoped
// by user so one user can never see another's diaries.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS diaries (
			id          UUID PRIMARY KEY,
			user_id     UUID NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			cover_image TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS diaries_user_idx ON diaries (user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS diary_entries (
			id         UUID PRIMARY KEY,
			diary_id   UUID NOT NULL REFERENCES diaries (id) ON DELETE CASCADE,
			user_id    UUID NOT NULL,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			location   TEXT NOT NULL DEFAULT '',
			tags       TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS diary_entries_diary_idx ON diary_entries (diary_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("create diary tables: %w", err)
	}
	return nil
}

func (s *Store) ListDiaries(ctx context.Context, userID string) ([]Diary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, title, description, cover_image, created_at, updated_at
		FROM diaries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list diaries: %w", err)
	}
	defer rows.Close()

	diaries := []Diary{}
	for rows.Next() {
		var d Diary
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &d.CoverImage,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan diary: %w", err)
		}
		diaries = append(diaries, d)
	}
	return diaries, rows.Err()
}

func (s *Store) CreateDiary(ctx context.Context, d *Diary) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO diaries (id, user_id, title, description, cover_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		d.ID, d.UserID, d.Title, d.Description, d.CoverImage, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert diary: %w", err)
	}
	return nil
}

func (s *Store) GetDiary(ctx context.Context, diaryID, userID string) (*Diary, error) {
	d := &Diary{}
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, title, description, cover_image, created_at, updated_at
		FROM diaries WHERE id = $1 AND user_id = $2`, diaryID, userID).
		Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &d.CoverImage, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDiaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query diary: %w", err)
	}
	return d, nil
}

func (s *Store) UpdateDiary(ctx context.Context, d *Diary) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE diaries SET title = $3, description = $4, cover_image = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		d.ID, d.UserID, d.Title, d.Description, d.CoverImage)
	if err != nil {
		return fmt.Errorf("update diary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDiaryNotFound
	}
	return nil
}

func (s *Store) DeleteDiary(ctx context.Context, diaryID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM diaries WHERE id = $1 AND user_id = $2`, diaryID, userID)
	if err != nil {
		return fmt.Errorf("delete diary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDiaryNotFound
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, diaryID string, offset, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, diary_id, user_id, title, content, location, tags, created_at
		FROM diary_entries WHERE diary_id = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`, diaryID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) CreateEntry(ctx context.Context, e *Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO diary_entries (id, diary_id, user_id, title, content, location, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.DiaryID, e.UserID, e.Title, e.Content, e.Location, e.Tags, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// SearchEntries matches the query case-insensitively against entry title
// and content across all of the user's diaries.
func (s *Store) SearchEntries(ctx context.Context, userID, query string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, diary_id, user_id, title, content, location, tags, created_at
		FROM diary_entries
		WHERE user_id = $1 AND (title ILIKE '%' || $2 || '%' OR content ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC LIMIT $3`, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DiaryID, &e.UserID, &e.Title, &e.Content,
			&e.Location, &e.Tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
