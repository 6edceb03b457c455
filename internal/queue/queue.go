package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/store"
)

// Queue is the only enqueue surface this module exposes: two typed
// methods, one per job kind, over store.QueueRepo's untyped Enqueue.
// Per DESIGN.md's resolution of spec §9 open question 1, there is no
// legacy untyped enqueue path.
type Queue struct {
	repo       *store.QueueRepo
	staleAfter time.Duration
}

// New wraps repo with the given staleness window (how long a job may
// sit in "processing" before a fresh Enqueue call is allowed to reclaim
// it — spec §4.3).
func New(repo *store.QueueRepo, staleAfter time.Duration) *Queue {
	return &Queue{repo: repo, staleAfter: staleAfter}
}

// EnqueueMeetingJob enqueues (or refreshes) a meeting summarization job
// keyed on the meeting's agenda URL, so repeated ingestion runs of the
// same meeting don't pile up duplicate jobs (spec §4.3).
func (q *Queue) EnqueueMeetingJob(ctx context.Context, banana string, priority int, meeting *models.Meeting) (string, error) {
	payload, err := models.SerializePayload(models.MeetingJob{MeetingID: meeting.ID})
	if err != nil {
		return "", fmt.Errorf("queue: serialize meeting job for %q: %w", meeting.ID, err)
	}
	sourceURL := meeting.AgendaURL
	if sourceURL == "" && len(meeting.PacketURLs) > 0 {
		sourceURL = meeting.PacketURLs[0]
	}
	id, err := q.repo.Enqueue(ctx, store.EnqueueParams{
		JobType:   models.JobTypeMeeting,
		Payload:   payload,
		Banana:    banana,
		Priority:  priority,
		SourceURL: sourceURL,
	}, q.staleAfter)
	if err != nil {
		return "", err // may be store.ErrAlreadyQueued; callers check with errors.Is
	}
	return id, nil
}

// EnqueueMatterJob enqueues (or refreshes) a matter summarization job,
// keyed on a synthetic source URL (matters have no single canonical
// URL; the matter ID plus the triggering meeting disambiguates it).
func (q *Queue) EnqueueMatterJob(ctx context.Context, banana string, priority int, job models.MatterJob) (string, error) {
	payload, err := models.SerializePayload(job)
	if err != nil {
		return "", fmt.Errorf("queue: serialize matter job for %q: %w", job.MatterID, err)
	}
	sourceURL := fmt.Sprintf("matter://%s/%s", job.MatterID, job.MeetingID)
	id, err := q.repo.Enqueue(ctx, store.EnqueueParams{
		JobType:   models.JobTypeMatter,
		Payload:   payload,
		Banana:    banana,
		Priority:  priority,
		SourceURL: sourceURL,
	}, q.staleAfter)
	if err != nil {
		return "", err
	}
	return id, nil
}
