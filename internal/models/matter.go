package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MatterMetadata holds the attachment-change-detection fingerprint and
// any auxiliary fields that don't warrant their own column.
type MatterMetadata struct {
	AttachmentHash string `json:"attachment_hash,omitempty"`
}

// Matter is a legislative item (ordinance, resolution, bill) tracked
// across every meeting it appears on.
type Matter struct {
	bun.BaseModel `bun:"table:city_matters"`

	ID               string          `bun:",pk" json:"id"`
	Banana           string          `json:"banana"`
	MatterFile       string          `json:"matter_file,omitempty"`
	MatterVendorID   string          `json:"matter_id,omitempty"`
	MatterType       string          `json:"matter_type,omitempty"`
	Title            string          `json:"title"`
	Sponsors         []string        `bun:"type:jsonb" json:"sponsors,omitempty"`
	CanonicalSummary string          `json:"canonical_summary,omitempty"`
	CanonicalTopics  []string        `bun:"type:jsonb" json:"canonical_topics,omitempty"`
	Attachments      []Attachment    `bun:"type:jsonb" json:"attachments,omitempty"`
	Metadata         *MatterMetadata `bun:"type:jsonb" json:"metadata,omitempty"`
	FirstSeen        *time.Time      `json:"first_seen,omitempty"`
	LastSeen         *time.Time      `json:"last_seen,omitempty"`
	AppearanceCount  int             `json:"appearance_count"`
	CreatedAt        time.Time       `bun:",nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time       `bun:",nullzero,default:current_timestamp" json:"updated_at"`
}

// AttachmentHash returns the matter's current recorded attachment
// fingerprint, or the empty string if none has been computed yet.
func (m *Matter) AttachmentHash() string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata.AttachmentHash
}

// MatterAppearance records one instance of a Matter on one meeting's
// agenda. The tuple (MatterID, MeetingID, ItemID) is unique.
type MatterAppearance struct {
	bun.BaseModel `bun:"table:matter_appearances"`

	ID          string    `bun:",pk" json:"id"`
	MatterID    string    `json:"matter_id"`
	MeetingID   string    `json:"meeting_id"`
	ItemID      string    `json:"item_id"`
	CommitteeID *string   `json:"committee_id,omitempty"`
	Action      string    `json:"action,omitempty"`
	VoteOutcome string    `json:"vote_outcome,omitempty"`
	VoteTally   string    `json:"vote_tally,omitempty"`
	Sequence    int       `json:"sequence"`
	CreatedAt   time.Time `bun:",nullzero,default:current_timestamp" json:"created_at"`
}
