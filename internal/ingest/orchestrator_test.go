package ingest_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engagic/core/internal/ingest"
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/queue"
	"github.com/engagic/core/internal/store"
	"github.com/engagic/core/internal/vendoradapter"
	"github.com/engagic/core/test/storetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedCity(t *testing.T, s *store.Store, banana string) {
	t.Helper()
	require.NoError(t, s.Cities.Upsert(context.Background(), &models.City{
		Banana:      banana,
		VendorName:  banana,
		DisplayName: banana,
		Status:      models.CityStatusActive,
	}))
}

func sampleRecord() vendoradapter.MeetingRecord {
	return vendoradapter.MeetingRecord{
		MeetingID: "12345",
		Title:     "City Council Regular Meeting",
		Start:     "2026-03-05T18:00:00Z",
		AgendaURL: "https://example.gov/agenda/12345.html",
		Items: []vendoradapter.ItemRecord{
			{
				ItemID:     "1",
				Title:      "Public Comment",
				Sequence:   0,
				MatterType: "",
			},
			{
				ItemID:     "2",
				Title:      "An Ordinance Amending the Zoning Code",
				Sequence:   1,
				MatterFile: "BL2026-100",
				Attachments: []vendoradapter.Attachment{
					{Name: "Ordinance.pdf", URL: "https://example.gov/o.pdf", Type: vendoradapter.AttachmentTypePDF},
				},
				Sponsors: []string{"Jane Smith"},
				Votes: []vendoradapter.VoteRecord{
					{Name: "Jane Smith", Vote: "aye"},
				},
			},
		},
	}
}

func TestOrchestrator_Ingest_CreatesMeetingItemsAndMatters(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	q := queue.New(s.Queue, time.Hour)
	o := ingest.NewOrchestrator(s, q, testLogger())

	result, err := o.Ingest(ctx, "testcityCA", sampleRecord())
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.ItemCount)
	assert.Equal(t, 1, result.MatterCount, "only the non-procedural item tracks a matter")
	assert.True(t, result.Enqueued)

	meeting, err := s.Meetings.Get(ctx, result.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, "City Council Regular Meeting", meeting.Title)

	items, err := s.Items.ListForMeeting(ctx, result.MeetingID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var proceduralItem, matterItem *models.AgendaItem
	for _, it := range items {
		if it.FilterReason != "" {
			proceduralItem = it
		} else {
			matterItem = it
		}
	}
	require.NotNil(t, proceduralItem)
	require.NotNil(t, matterItem)
	assert.Nil(t, proceduralItem.MatterID, "procedural items never track a matter")
	require.NotNil(t, matterItem.MatterID, "referential integrity: this item must reference a matter")

	matter, err := s.Matters.Get(ctx, *matterItem.MatterID)
	require.NoError(t, err)
	assert.Equal(t, "BL2026-100", matter.MatterFile)
	assert.Equal(t, 1, matter.AppearanceCount)
}

func TestOrchestrator_Ingest_IsIdempotent(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	q := queue.New(s.Queue, time.Hour)
	o := ingest.NewOrchestrator(s, q, testLogger())

	rec := sampleRecord()
	first, err := o.Ingest(ctx, "testcityCA", rec)
	require.NoError(t, err)

	second, err := o.Ingest(ctx, "testcityCA", rec)
	require.NoError(t, err)
	assert.Equal(t, first.MeetingID, second.MeetingID)
	assert.Equal(t, 0, second.MatterCount, "re-ingesting the same record creates no new appearances")

	matterItems, err := s.Items.ListForMeeting(ctx, first.MeetingID)
	require.NoError(t, err)
	var matterID string
	for _, it := range matterItems {
		if it.MatterID != nil {
			matterID = *it.MatterID
		}
	}
	require.NotEmpty(t, matterID)

	matter, err := s.Matters.Get(ctx, matterID)
	require.NoError(t, err)
	assert.Equal(t, 1, matter.AppearanceCount, "appearance_count must not grow on re-ingest of the same meeting")
}

func TestOrchestrator_Ingest_PreservesSummaryOnReIngest(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	q := queue.New(s.Queue, time.Hour)
	o := ingest.NewOrchestrator(s, q, testLogger())

	rec := sampleRecord()
	first, err := o.Ingest(ctx, "testcityCA", rec)
	require.NoError(t, err)

	meeting, err := s.Meetings.Get(ctx, first.MeetingID)
	require.NoError(t, err)
	meeting.Summary = "already summarized"
	meeting.Topics = []string{"zoning"}
	require.NoError(t, s.Meetings.UpdateProcessingResult(ctx, meeting))

	_, err = o.Ingest(ctx, "testcityCA", rec)
	require.NoError(t, err)

	reloaded, err := s.Meetings.Get(ctx, first.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, "already summarized", reloaded.Summary, "re-ingest must not clear an existing summary")
}

func TestOrchestrator_Ingest_AttachmentChangeBetweenReadings(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	q := queue.New(s.Queue, time.Hour)
	o := ingest.NewOrchestrator(s, q, testLogger())

	first := sampleRecord()
	first.Title = "City Council - First Reading"
	firstResult, err := o.Ingest(ctx, "testcityCA", first)
	require.NoError(t, err)

	// Simulate the processor having already summarized the first
	// reading's attachments, the way ProcessMeeting/ProcessMatterJob
	// would via MatterRepo.WriteCanonicalSummary.
	firstItems, err := s.Items.ListForMeeting(ctx, firstResult.MeetingID)
	require.NoError(t, err)
	var firstMatterID string
	for _, it := range firstItems {
		if it.MatterID != nil {
			firstMatterID = *it.MatterID
		}
	}
	require.NotEmpty(t, firstMatterID)
	require.NoError(t, s.Matters.WriteCanonicalSummary(ctx, firstMatterID, "first reading summary", []string{"budget"}, "v1-hash"))

	second := sampleRecord()
	second.MeetingID = "67890"
	second.Start = "2026-03-12T18:00:00Z"
	second.Title = "City Council - Second Reading"
	second.Items[1].Attachments = []vendoradapter.Attachment{
		{Name: "Ordinance.pdf", URL: "https://example.gov/o-v2.pdf", Type: vendoradapter.AttachmentTypePDF},
	}
	result, err := o.Ingest(ctx, "testcityCA", second)
	require.NoError(t, err)
	require.Equal(t, 1, result.MatterCount, "same matter_file, new meeting: a fresh appearance")

	items, err := s.Items.ListForMeeting(ctx, result.MeetingID)
	require.NoError(t, err)
	var matterID string
	for _, it := range items {
		if it.MatterID != nil {
			matterID = *it.MatterID
		}
	}
	require.NotEmpty(t, matterID)

	matter, err := s.Matters.Get(ctx, matterID)
	require.NoError(t, err)
	assert.Equal(t, 2, matter.AppearanceCount)
	assert.Equal(t, firstMatterID, matterID, "second reading must resolve to the same matter")
	assert.Contains(t, matter.Attachments[0].URL, "v2", "attachments must refresh when the hash changes")
	assert.Equal(t, "v1-hash", matter.AttachmentHash(),
		"ingestion must not touch metadata.attachment_hash: only the processor's "+
			"WriteCanonicalSummary may advance it, or the enqueue decider would "+
			"wrongly see the new attachments as already summarized")
	assert.Equal(t, "first reading summary", matter.CanonicalSummary, "canonical_summary is processor-owned, not touched by ingest")
}

func TestOrchestrator_Ingest_SkipsInvalidRecord(t *testing.T) {
	s := storetest.NewTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityCA")

	q := queue.New(s.Queue, time.Hour)
	o := ingest.NewOrchestrator(s, q, testLogger())

	result, err := o.Ingest(ctx, "testcityCA", vendoradapter.MeetingRecord{Title: "Missing everything else"})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.NotEmpty(t, result.SkipReason)
}
