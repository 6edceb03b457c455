package policy

import (
	"strconv"
	"time"

	"github.com/engagic/core/internal/models"
)

// meetingPriorityBase and matterPriorityBase anchor the two priority
// scales: meetings run 0-150, matters run -100-50, so meeting work
// always outranks matter backfill at equal date distance (spec §4.3).
const (
	meetingPriorityBase = 150
	matterPriorityBase  = 50
)

// daysDistance mirrors original_source/pipeline/orchestrators/enqueue_decider.py:
// an unknown date is treated as maximally far away (999 days) rather
// than as "now", so undated meetings sink to the bottom of the queue
// instead of monopolizing it.
func daysDistance(date *time.Time) int {
	if date == nil {
		return 999
	}
	d := time.Since(*date)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// EnqueueDecider decides whether a meeting needs (re-)processing and at
// what priority (spec §4.3, §200).
type EnqueueDecider struct{}

// ShouldEnqueue implements spec §200's rule: a meeting needs processing
// iff at least one agenda item lacks both a summary and a filter_reason,
// or (no items are present and the meeting has no existing monolithic
// summary). Returns (true, "") when it should be enqueued, or
// (false, reason) when it should be skipped.
func (EnqueueDecider) ShouldEnqueue(meeting *models.Meeting, items []*models.AgendaItem) (bool, string) {
	if len(items) > 0 {
		done := 0
		for _, item := range items {
			if item.Summary != "" || item.FilterReason != "" {
				done++
			}
		}
		if done == len(items) {
			return false, "all " + strconv.Itoa(len(items)) + " items already processed"
		}
		return true, ""
	}

	if meeting.Summary != "" {
		return false, "meeting already has summary (monolithic)"
	}
	return true, ""
}

// Priority scores a meeting by date proximity: the closer to now (past
// or future), the higher the priority, clamped to [0, 150].
func (EnqueueDecider) Priority(meeting *models.Meeting) int {
	score := meetingPriorityBase - daysDistance(meeting.Date)
	if score < 0 {
		return 0
	}
	return score
}

// MatterEnqueueDecider decides whether a matter's attachments need
// (re-)summarizing (spec §4.3, §200).
type MatterEnqueueDecider struct{}

// ShouldEnqueue implements spec §200's matter rule: a matter needs
// processing iff it has at least one attachment, and either it has no
// canonical summary yet or its recorded attachment_hash no longer
// matches the current one.
func (MatterEnqueueDecider) ShouldEnqueue(existing *models.Matter, currentAttachmentHash string, hasAttachments bool) (bool, string) {
	if !hasAttachments {
		return false, "no_attachments"
	}
	if existing == nil {
		return true, ""
	}
	if existing.CanonicalSummary == "" {
		return true, ""
	}
	if existing.AttachmentHash() == currentAttachmentHash {
		return false, "attachments_unchanged"
	}
	return true, ""
}

// Priority scores a matter the same way as a meeting but on a lower,
// negative-capable scale so matter backfill never outranks fresh
// meeting work at the same date distance.
func (MatterEnqueueDecider) Priority(meetingDate *time.Time) int {
	score := matterPriorityBase - daysDistance(meetingDate)
	if score < -100 {
		return -100
	}
	return score
}
