package user

import (
	"context"
	"errors"
	"strings"
)

var ErrBioTooLong = errors.New("user: bio exceeds maximum length")

// Service applies profile update rules on top of the store.
type Service struct {
	cfg   *Config
	store *Store
}

func NewService(cfg *Config, store *Store) *Service {
	return &Service{cfg: cfg, store: store}
}

// GetProfile returns the profile, resolving relative picture paths against
// the configured base URL.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.resolvePicture(p)
	return p, nil
}

// ProfileUpdate carries the editable profile fields. Nil pointers leave the
// current value untouched.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=120"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location" validate:"omitempty,max=120"`
}

// UpdateProfile applies a partial update.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Bio != nil {
		if len(*upd.Bio) > s.cfg.MaxBioLength {
			return nil, ErrBioTooLong
		}
		p.Bio = *upd.Bio
	}
	if upd.Location != nil {
		p.Location = strings.TrimSpace(*upd.Location)
	}

	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.resolvePicture(p)
	return p, nil
}

// SetProfilePicture stores the picture URL, typically produced by a media
// module upload.
func (s *Service) SetProfilePicture(ctx context.Context, userID, url string) (*Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.ProfilePicture = url
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.resolvePicture(p)
	return p, nil
}

// GetPreferences returns the stored preference map.
func (s *Service) GetPreferences(ctx context.Context, userID string) (map[string]any, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Preferences, nil
}

// UpdatePreferences merges the given keys into the stored preferences.
// Setting a key to null removes it.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (map[string]any, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Preferences = MergePreferences(p.Preferences, prefs)
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p.Preferences, nil
}

// MergePreferences overlays updates onto current, deleting keys whose
// update value is nil.
func MergePreferences(current, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(updates))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}

func (s *Service) resolvePicture(p *Profile) {
	if p.ProfilePicture != "" && strings.HasPrefix(p.ProfilePicture, "/") {
		p.ProfilePicture = strings.TrimSuffix(s.cfg.BaseURL, "/") + p.ProfilePicture
	}
}
