package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CacheEntry is one extracted-attachment cache row, keyed by a hash of
// the attachment URL so the meeting-level document cache (spec §4.4
// phase 3) survives across a job's retries.
type CacheEntry struct {
	bun.BaseModel `bun:"table:cache"`

	URLHash    string    `bun:",pk" json:"url_hash"`
	URL        string    `json:"url"`
	Content    string    `json:"content"`
	SkipReason string    `json:"skip_reason,omitempty"`
	CreatedAt  time.Time `bun:",nullzero,default:current_timestamp" json:"created_at"`
}
