package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// JobType discriminates the two kinds of payload a QueueJob can carry.
type JobType string

const (
	JobTypeMeeting JobType = "meeting"
	JobTypeMatter  JobType = "matter"
)

// JobStatus is the queue's own lifecycle, independent of the meeting
// processing_status state machine (spec §4.3/§4.8).
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusDeadLetter JobStatus = "dead_letter"
)

// MeetingJob asks the processor to summarize (or re-summarize) one
// meeting, item-level or monolithically depending on what it has.
type MeetingJob struct {
	MeetingID string `json:"meeting_id"`
}

// MatterJob asks the processor to summarize the union of attachments
// across every appearance of one matter, then back-fill every item.
type MatterJob struct {
	MatterID  string   `json:"matter_id"`
	MeetingID string   `json:"meeting_id"`
	ItemIDs   []string `json:"item_ids"`
}

// SerializePayload encodes a MeetingJob or MatterJob to JSON for storage
// in the queue table's payload column.
func SerializePayload(payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("models: serialize queue payload: %w", err)
	}
	return string(b), nil
}

// QueueJob is a durable unit of work (spec §3, §4.3).
type QueueJob struct {
	bun.BaseModel `bun:"table:queue"`

	ID           string     `bun:",pk" json:"id"`
	JobType      JobType    `json:"job_type"`
	Payload      string     `bun:"type:jsonb" json:"payload"`
	Banana       string     `json:"banana"`
	Priority     int        `json:"priority"`
	Status       JobStatus  `json:"status"`
	RetryCount   int        `json:"retry_count"`
	SourceURL    string     `bun:",unique" json:"source_url"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `bun:",nullzero,default:current_timestamp" json:"created_at"`
}

// DecodeMeetingJob parses the job's payload as a MeetingJob. Callers
// must check JobType == JobTypeMeeting first.
func (q *QueueJob) DecodeMeetingJob() (*MeetingJob, error) {
	var mj MeetingJob
	if err := json.Unmarshal([]byte(q.Payload), &mj); err != nil {
		return nil, fmt.Errorf("models: decode meeting job payload: %w", err)
	}
	return &mj, nil
}

// DecodeMatterJob parses the job's payload as a MatterJob. Callers must
// check JobType == JobTypeMatter first.
func (q *QueueJob) DecodeMatterJob() (*MatterJob, error) {
	var mj MatterJob
	if err := json.Unmarshal([]byte(q.Payload), &mj); err != nil {
		return nil, fmt.Errorf("models: decode matter job payload: %w", err)
	}
	return &mj, nil
}
