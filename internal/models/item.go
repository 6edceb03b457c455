package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/uptrace/bun"
)

// AttachmentType classifies an agenda item attachment for extraction
// routing purposes.
type AttachmentType string

const (
	AttachmentTypePDF         AttachmentType = "pdf"
	AttachmentTypeDoc         AttachmentType = "doc"
	AttachmentTypeSpreadsheet AttachmentType = "spreadsheet"
	AttachmentTypeUnknown     AttachmentType = "unknown"
)

// Attachment is one file linked from an agenda item.
type Attachment struct {
	Name string         `json:"name"`
	URL  string         `json:"url"`
	Type AttachmentType `json:"type"`
}

// AttachmentSetHash hashes the sorted (url, name) tuples of a set of
// attachments (spec invariant 7: "Permuting the order of attachments
// does not change attachment_hash"). It is the single implementation
// shared by the ingestion orchestrator (per-item hashes) and the
// processor (matter-level hashes over the union of attachments across
// every appearance, spec §4.5.3).
func AttachmentSetHash(attachments []Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	keys := make([]string, len(attachments))
	for i, a := range attachments {
		keys[i] = a.URL + "\x00" + a.Name
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Vote is a single council member's recorded vote on a matter during a
// specific meeting. The unique key is (MemberID, MatterID, MeetingID).
type Vote struct {
	bun.BaseModel `bun:"table:votes"`

	MemberID  string         `bun:",pk" json:"member_id"`
	MatterID  string         `bun:",pk" json:"matter_id"`
	MeetingID string         `bun:",pk" json:"meeting_id"`
	Vote      string         `json:"vote"` // aye | nay | abstain | absent | recused
	Sequence  *int           `json:"sequence,omitempty"`
	Metadata  map[string]any `bun:"type:jsonb" json:"metadata,omitempty"`
}

// AgendaItem is one row on a meeting's agenda.
type AgendaItem struct {
	bun.BaseModel `bun:"table:items"`

	ID             string       `bun:",pk" json:"id"`
	MeetingID      string       `json:"meeting_id"`
	Title          string       `json:"title"`
	Sequence       int          `json:"sequence"`
	Attachments    []Attachment `bun:"type:jsonb" json:"attachments,omitempty"`
	AttachmentHash string       `json:"attachment_hash,omitempty"`
	MatterID       *string      `json:"matter_id,omitempty"`
	MatterFile     string       `json:"matter_file,omitempty"`
	MatterType     string       `json:"matter_type,omitempty"`
	AgendaNumber   string       `json:"agenda_number,omitempty"`
	Sponsors       []string     `bun:"type:jsonb" json:"sponsors,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	Topics         []string     `bun:"type:jsonb" json:"topics,omitempty"`
	FilterReason   string       `json:"filter_reason,omitempty"`
}

// NeedsProcessing reports whether this item still needs summarization:
// it has neither a summary nor a reason it was intentionally skipped.
func (i *AgendaItem) NeedsProcessing() bool {
	return i.Summary == "" && i.FilterReason == ""
}
