package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MeetingStatus reflects the vendor's own characterization of whether
// the meeting is actually happening as scheduled.
type MeetingStatus string

const (
	MeetingStatusNormal       MeetingStatus = "normal"
	MeetingStatusCancelled    MeetingStatus = "cancelled"
	MeetingStatusPostponed    MeetingStatus = "postponed"
	MeetingStatusRevised      MeetingStatus = "revised"
	MeetingStatusRescheduled  MeetingStatus = "rescheduled"
)

// ProcessingStatus tracks a meeting's position in the state machine
// described by spec §4.8: pending -> processing -> {completed, failed},
// with automatic reset from processing back to pending after staleness.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// Participation captures how a member of the public can follow or join
// a meeting: contact info and streaming links. Stored as a JSON column.
type Participation struct {
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	VirtualURL    string   `json:"virtual_url,omitempty"`
	StreamingURLs []string `json:"streaming_urls,omitempty"`
	MeetingID     string   `json:"meeting_id,omitempty"`
}

// MergeFirstNonEmpty fills any empty field of p from other, used by the
// processor (spec §4.5.1 step 7) to merge participation info parsed from
// the first and last items' text, or from the packet text, into what the
// meeting already carries: first non-empty value per field wins.
func (p *Participation) MergeFirstNonEmpty(other Participation) {
	if p.Email == "" {
		p.Email = other.Email
	}
	if p.Phone == "" {
		p.Phone = other.Phone
	}
	if p.VirtualURL == "" {
		p.VirtualURL = other.VirtualURL
	}
	if len(p.StreamingURLs) == 0 {
		p.StreamingURLs = other.StreamingURLs
	}
	if p.MeetingID == "" {
		p.MeetingID = other.MeetingID
	}
}

// Meeting is one scheduled meeting of a civic body.
type Meeting struct {
	bun.BaseModel `bun:"table:meetings"`

	ID               string           `bun:",pk" json:"id"`
	Banana           string           `json:"banana"`
	Title            string           `json:"title"`
	Date             *time.Time       `json:"date,omitempty"`
	AgendaURL        string           `json:"agenda_url,omitempty"`
	PacketURLs       []string         `bun:",array" json:"packet_urls,omitempty"`
	Summary          string           `json:"summary,omitempty"`
	Topics           []string         `bun:",array" json:"topics,omitempty"`
	Participation    *Participation   `bun:"type:jsonb" json:"participation,omitempty"`
	Status           MeetingStatus    `json:"status"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ProcessingMethod string           `json:"processing_method,omitempty"`
	ProcessingTime   *time.Duration   `json:"processing_time,omitempty"`
	CommitteeID      *string          `json:"committee_id,omitempty"`
	CreatedAt        time.Time        `bun:",nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time        `bun:",nullzero,default:current_timestamp" json:"updated_at"`
}

// HasSourceURL reports whether the meeting carries at least one of the
// two URL fields the spec requires (invariant 1 in spec §3).
func (m *Meeting) HasSourceURL() bool {
	return m.AgendaURL != "" || len(m.PacketURLs) > 0
}
