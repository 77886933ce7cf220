package diary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EntryCache caches entry listing pages in redis. Invalidation bumps a
// per-diary version counter that is part of every page key, so stale pages
// simply expire instead of requiring key scans. A nil client disables the
// cache entirely.
type EntryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEntryCache(client *redis.Client, ttl time.Duration) *EntryCache {
	return &EntryCache{client: client, ttl: ttl}
}

// Enabled reports whether a redis client is attached.
func (c *EntryCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *EntryCache) versionKey(diaryID string) string {
	return "diary:entries:version:" + diaryID
}

func (c *EntryCache) pageKey(ctx context.Context, diaryID string, page, size int) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey(diaryID)).Int64()
	if errors.Is(err, redis.Nil) {
		version = 0
	} else if err != nil {
		return "", fmt.Errorf("read cache version: %w", err)
	}
	return fmt.Sprintf("diary:entries:%s:v%d:p%d:s%d", diaryID, version, page, size), nil
}

// Get returns a cached page, or (nil, false) on miss or any cache error.
// Cache failures are never fatal to a read.
func (c *EntryCache) Get(ctx context.Context, diaryID string, page, size int) ([]Entry, bool) {
	if !c.Enabled() {
		return nil, false
	}
	key, err := c.pageKey(ctx, diaryID, page, size)
	if err != nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores a page. Errors are swallowed; the cache is best effort.
func (c *EntryCache) Set(ctx context.Context, diaryID string, page, size int, entries []Entry) {
	if !c.Enabled() {
		return
	}
	key, err := c.pageKey(ctx, diaryID, page, size)
	if err != nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate bumps the diary's version so every cached page for it becomes
// unreachable.
func (c *EntryCache) Invalidate(ctx context.Context, diaryID string) {
	if !c.Enabled() {
		return
	}
	_ = c.client.Incr(ctx, c.versionKey(diaryID)).Err()
}
