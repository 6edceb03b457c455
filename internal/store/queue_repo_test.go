package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/store"
	"github.com/engagic/core/test/storetest"
)

func seedCity(t *testing.T, s *store.Store, banana string) {
	t.Helper()
	err := s.Cities.Upsert(context.Background(), &models.City{
		Banana:      banana,
		VendorName:  banana,
		DisplayName: banana,
		Status:      models.CityStatusActive,
	})
	require.NoError(t, err)
}

func TestQueueRepo_EnqueueDequeueRoundTrip(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	payload, err := models.SerializePayload(models.MeetingJob{MeetingID: "testcityCA_abc123"})
	require.NoError(t, err)

	id, err := s.Queue.Enqueue(ctx, store.EnqueueParams{
		JobType:   models.JobTypeMeeting,
		Payload:   payload,
		Banana:    "testcityCA",
		Priority:  140,
		SourceURL: "https://example.com/agenda.pdf",
	}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := s.Queue.Dequeue(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, models.JobStatusProcessing, job.Status)

	_, err = s.Queue.Dequeue(ctx, "")
	assert.ErrorIs(t, err, store.ErrNoJobAvailable)

	require.NoError(t, s.Queue.MarkComplete(ctx, job.ID))
}

func TestQueueRepo_EnqueueAlreadyPendingIsANoOp(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	params := store.EnqueueParams{
		JobType:   models.JobTypeMeeting,
		Payload:   "{}",
		Banana:    "testcityCA",
		Priority:  100,
		SourceURL: "https://example.com/duplicate.pdf",
	}
	_, err := s.Queue.Enqueue(ctx, params, time.Hour)
	require.NoError(t, err)

	_, err = s.Queue.Enqueue(ctx, params, time.Hour)
	assert.ErrorIs(t, err, store.ErrAlreadyQueued)
}

func TestQueueRepo_MarkFailedRetriesThenDeadLetters(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	id, err := s.Queue.Enqueue(ctx, store.EnqueueParams{
		JobType:   models.JobTypeMeeting,
		Payload:   "{}",
		Banana:    "testcityCA",
		Priority:  100,
		SourceURL: "https://example.com/retry.pdf",
	}, time.Hour)
	require.NoError(t, err)

	// MarkFailed resets a retryable failure straight back to pending, so
	// each loop iteration can re-Dequeue the same job without a fresh
	// Enqueue call.
	for i := 0; i < 3; i++ {
		_, err := s.Queue.Dequeue(ctx, "")
		require.NoError(t, err)
		require.NoError(t, s.Queue.MarkFailed(ctx, id, "transient failure", true))
	}

	jobs, err := s.Queue.ListDeadLetter(ctx, "testcityCA")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobStatusDeadLetter, jobs[0].Status)
	assert.GreaterOrEqual(t, jobs[0].RetryCount, 3)
}

func TestQueueRepo_SweepStale(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	_, err := s.Queue.Enqueue(ctx, store.EnqueueParams{
		JobType:   models.JobTypeMeeting,
		Payload:   "{}",
		Banana:    "testcityCA",
		Priority:  100,
		SourceURL: "https://example.com/stale.pdf",
	}, time.Hour)
	require.NoError(t, err)

	_, err = s.Queue.Dequeue(ctx, "")
	require.NoError(t, err)

	ids, err := s.Queue.SweepStale(ctx, 0) // zero staleAfter: everything in-flight is "stale"
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
