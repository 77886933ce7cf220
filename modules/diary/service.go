package diary

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service applies ownership checks, pagination limits and caching on top
// of the store.
type Service struct {
	cfg   *Config
	store *Store
	cache *EntryCache
}

func NewService(cfg *Config, store *Store, cache *EntryCache) *Service {
	return &Service{cfg: cfg, store: store, cache: cache}
}

// Page describes a validated pagination window.
type Page struct {
	Number int
	Size   int
}

// ClampPage normalizes raw pagination input: page numbers start at 1, zero
// or negative sizes fall back to the default, oversized requests are capped.
func (s *Service) ClampPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = s.cfg.DefaultPageSize
	}
	if size > s.cfg.MaxPageSize {
		size = s.cfg.MaxPageSize
	}
	return Page{Number: page, Size: size}
}

func (s *Service) ListDiaries(ctx context.Context, userID string) ([]Diary, error) {
	return s.store.ListDiaries(ctx, userID)
}

func (s *Service) CreateDiary(ctx context.Context, userID, title, description, coverImage string) (*Diary, error) {
	d := &Diary{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		CoverImage:  coverImage,
		CreatedAt:   time.Now().UTC(),
	}
	d.UpdatedAt = d.CreatedAt
	if err := s.store.CreateDiary(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDiary(ctx context.Context, diaryID, userID string) (*Diary, error) {
	return s.store.GetDiary(ctx, diaryID, userID)
}

// DiaryUpdate carries the editable diary fields; nil means unchanged.
type DiaryUpdate struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	CoverImage  *string `json:"coverImage" validate:"omitempty,max=2048"`
}

func (s *Service) UpdateDiary(ctx context.Context, diaryID, userID string, upd DiaryUpdate) (*Diary, error) {
	d, err := s.store.GetDiary(ctx, diaryID, userID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		d.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		d.Description = *upd.Description
	}
	if upd.CoverImage != nil {
		d.CoverImage = *upd.CoverImage
	}
	if err := s.store.UpdateDiary(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDiary(ctx context.Context, diaryID, userID string) error {
	if err := s.store.DeleteDiary(ctx, diaryID, userID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, diaryID)
	return nil
}

// ListEntries returns one page of a diary's entries, newest first, served
// from cache when possible. Ownership is checked before touching the cache
// so a foreign diary ID always reads as not found.
func (s *Service) ListEntries(ctx context.Context, diaryID, userID string, page Page) ([]Entry, error) {
	if _, err := s.store.GetDiary(ctx, diaryID, userID); err != nil {
		return nil, err
	}

	if entries, ok := s.cache.Get(ctx, diaryID, page.Number, page.Size); ok {
		return entries, nil
	}

	offset := (page.Number - 1) * page.Size
	entries, err := s.store.ListEntries(ctx, diaryID, offset, page.Size)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, diaryID, page.Number, page.Size, entries)
	return entries, nil
}

func (s *Service) CreateEntry(ctx context.Context, diaryID, userID string, title, content, location string, tags []string) (*Entry, error) {
	if _, err := s.store.GetDiary(ctx, diaryID, userID); err != nil {
		return nil, err
	}

	e := &Entry{
		ID:        uuid.New().String(),
		DiaryID:   diaryID,
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Content:   content,
		Location:  location,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if err := s.store.CreateEntry(ctx, e); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, diaryID)
	return e, nil
}

// SearchEntries runs a text search over the user's entries, capped at the
// configured result limit.
func (s *Service) SearchEntries(ctx context.Context, userID, query string, limit int) ([]Entry, error) {
	if limit < 1 || limit > s.cfg.SearchLimit {
		limit = s.cfg.SearchLimit
	}
	return s.store.SearchEntries(ctx, userID, strings.TrimSpace(query), limit)
}
