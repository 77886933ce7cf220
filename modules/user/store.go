package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile is the user-facing profile layered over an auth account.
// Preferences are free-form client settings (locale, theme, notification
// switches) stored as JSON.
type Profile struct {
	UserID         string         `json:"userId"`
	DisplayName    string         `json:"displayName"`
	Bio            string         `json:"bio,omitempty"`
	Location       string         `json:"location,omitempty"`
	ProfilePicture string         `json:"profilePicture,omitempty"`
	Preferences    map[string]any `json:"preferences"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

var ErrProfileNotFound = errors.New("user: profile not found")

// Store persists profiles in Postgres.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_profiles (
			user_id         UUID PRIMARY KEY,
			display_name    TEXT NOT NULL DEFAULT '',
			bio             TEXT NOT NULL DEFAULT '',
			location        TEXT NOT NULL DEFAULT '',
			profile_picture TEXT NOT NULL DEFAULT '',
			preferences     JSONB NOT NULL DEFAULT '{}',
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create user_profiles table: %w", err)
	}
	return nil
}

// Get loads a profile. A user who never edited their profile gets an empty
// one rather than a not-found error.
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	p := &Profile{}
	var prefs []byte
	err := s.db.QueryRow(ctx, `
		SELECT user_id, display_name, bio, location, profile_picture, preferences, updated_at
		FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DisplayName, &p.Bio, &p.Location, &p.ProfilePicture, &prefs, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Profile{UserID: userID, Preferences: map[string]any{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

// Upsert writes the whole profile row.
func (s *Store) Upsert(ctx context.Context, p *Profile) error {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, display_name, bio, location, profile_picture, preferences, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			profile_picture = EXCLUDED.profile_picture,
			preferences = EXCLUDED.preferences,
			updated_at = now()`,
		p.UserID, p.DisplayName, p.Bio, p.Location, p.ProfilePicture, prefs)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
