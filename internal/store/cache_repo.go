package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// CacheRepo persists the extraction cache backing the meeting-level
// document cache (spec §4.4 phase 3): one row per unique attachment
// URL, so a retried job doesn't re-fetch or re-extract what it already
// paid for.
type CacheRepo struct {
	db bun.IDB
}

// HashURL derives the cache key for a URL.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for url, or ErrNotFound if absent.
func (r *CacheRepo) Get(ctx context.Context, url string) (*models.CacheEntry, error) {
	entry := new(models.CacheEntry)
	err := r.db.NewSelect().Model(entry).Where("url_hash = ?", HashURL(url)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get cache entry for %q: %w", url, err)
	}
	return entry, nil
}

// Put stores (or replaces) the extracted content, or skip reason, for a
// URL.
func (r *CacheRepo) Put(ctx context.Context, url, content, skipReason string) error {
	entry := &models.CacheEntry{
		URLHash:    HashURL(url),
		URL:        url,
		Content:    content,
		SkipReason: skipReason,
	}
	_, err := r.db.NewInsert().
		Model(entry).
		On("CONFLICT (url_hash) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("skip_reason = EXCLUDED.skip_reason").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: put cache entry for %q: %w", url, err)
	}
	return nil
}
