package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/engagic/core/internal/models"
)

func TestEnqueueDecider_ShouldEnqueue_AllItemsProcessed(t *testing.T) {
	meeting := &models.Meeting{}
	items := []*models.AgendaItem{
		{Summary: "a summary"},
		{FilterReason: "procedural item"},
	}

	should, reason := EnqueueDecider{}.ShouldEnqueue(meeting, items)
	assert.False(t, should)
	assert.Equal(t, "all 2 items already processed", reason)
}

func TestEnqueueDecider_ShouldEnqueue_SomeItemsPending(t *testing.T) {
	meeting := &models.Meeting{}
	items := []*models.AgendaItem{
		{Summary: "a summary"},
		{},
	}

	should, reason := EnqueueDecider{}.ShouldEnqueue(meeting, items)
	assert.True(t, should)
	assert.Empty(t, reason)
}

func TestEnqueueDecider_ShouldEnqueue_NoItems_AlreadyMonolithicSummary(t *testing.T) {
	meeting := &models.Meeting{Summary: "already summarized"}

	should, reason := EnqueueDecider{}.ShouldEnqueue(meeting, nil)
	assert.False(t, should)
	assert.Equal(t, "meeting already has summary (monolithic)", reason)
}

func TestEnqueueDecider_ShouldEnqueue_NoItems_NoSummaryYet(t *testing.T) {
	meeting := &models.Meeting{}

	should, reason := EnqueueDecider{}.ShouldEnqueue(meeting, nil)
	assert.True(t, should)
	assert.Empty(t, reason)
}

func TestEnqueueDecider_Priority(t *testing.T) {
	now := time.Now()
	today := &models.Meeting{Date: &now}
	assert.Equal(t, 150, EnqueueDecider{}.Priority(today))

	undated := &models.Meeting{}
	assert.Equal(t, 0, EnqueueDecider{}.Priority(undated))

	farFuture := now.Add(365 * 24 * time.Hour)
	farMeeting := &models.Meeting{Date: &farFuture}
	assert.Equal(t, 0, EnqueueDecider{}.Priority(farMeeting))
}

func TestMatterEnqueueDecider_ShouldEnqueue(t *testing.T) {
	d := MatterEnqueueDecider{}

	should, reason := d.ShouldEnqueue(nil, "hash1", false)
	assert.False(t, should)
	assert.Equal(t, "no_attachments", reason)

	should, reason = d.ShouldEnqueue(nil, "hash1", true)
	assert.True(t, should)
	assert.Empty(t, reason)

	existing := &models.Matter{}
	should, reason = d.ShouldEnqueue(existing, "hash1", true)
	assert.True(t, should)
	assert.Empty(t, reason)

	existing = &models.Matter{
		CanonicalSummary: "summarized already",
		Metadata:         &models.MatterMetadata{AttachmentHash: "hash1"},
	}
	should, reason = d.ShouldEnqueue(existing, "hash1", true)
	assert.False(t, should)
	assert.Equal(t, "attachments_unchanged", reason)

	should, reason = d.ShouldEnqueue(existing, "hash2", true)
	assert.True(t, should)
	assert.Empty(t, reason)
}

func TestMatterEnqueueDecider_Priority(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 50, MatterEnqueueDecider{}.Priority(&now))
	assert.Equal(t, -100, MatterEnqueueDecider{}.Priority(nil))
}
