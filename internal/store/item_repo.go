package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// ItemRepo persists AgendaItem rows.
type ItemRepo struct {
	db bun.IDB
}

// ListForMeeting returns every item on one meeting's agenda, ordered by
// sequence.
func (r *ItemRepo) ListForMeeting(ctx context.Context, meetingID string) ([]*models.AgendaItem, error) {
	var items []*models.AgendaItem
	err := r.db.NewSelect().Model(&items).
		Where("meeting_id = ?", meetingID).
		OrderExpr("sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list items for meeting %q: %w", meetingID, err)
	}
	return items, nil
}

// GetForMeetings batches ListForMeeting across many meetings into one
// query, returning a map keyed by meeting ID (spec §4.2's
// get_items_for_meetings).
func (r *ItemRepo) GetForMeetings(ctx context.Context, meetingIDs []string) (map[string][]*models.AgendaItem, error) {
	out := make(map[string][]*models.AgendaItem, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return out, nil
	}
	var items []*models.AgendaItem
	err := r.db.NewSelect().Model(&items).
		Where("meeting_id IN (?)", bun.In(meetingIDs)).
		OrderExpr("meeting_id ASC, sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: get items for meetings: %w", err)
	}
	for _, it := range items {
		out[it.MeetingID] = append(out[it.MeetingID], it)
	}
	return out, nil
}

// ListForMatter returns every item referencing a matter, across every
// meeting it has appeared on — used by matter-level processing (spec
// §4.5.3) to aggregate attachments and by back-fill.
func (r *ItemRepo) ListForMatter(ctx context.Context, matterID string) ([]*models.AgendaItem, error) {
	var items []*models.AgendaItem
	err := r.db.NewSelect().Model(&items).Where("matter_id = ?", matterID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list items for matter %q: %w", matterID, err)
	}
	return items, nil
}

// Upsert inserts or replaces one agenda item, keyed by its composite ID.
func (r *ItemRepo) Upsert(ctx context.Context, item *models.AgendaItem) error {
	_, err := r.db.NewInsert().
		Model(item).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("sequence = EXCLUDED.sequence").
		Set("attachments = EXCLUDED.attachments").
		Set("attachment_hash = EXCLUDED.attachment_hash").
		Set("matter_id = EXCLUDED.matter_id").
		Set("matter_file = EXCLUDED.matter_file").
		Set("matter_type = EXCLUDED.matter_type").
		Set("agenda_number = EXCLUDED.agenda_number").
		Set("sponsors = EXCLUDED.sponsors").
		Set("filter_reason = EXCLUDED.filter_reason").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: upsert item %q: %w", item.ID, err)
	}
	return nil
}

// UpdateSummary writes a processor-produced summary+topics onto one
// item, never touching anything else (summaries are processor-owned,
// spec §3 lifecycle: "never overwritten on re-ingest").
func (r *ItemRepo) UpdateSummary(ctx context.Context, itemID, summary string, topics []string) error {
	_, err := r.db.NewUpdate().
		Model((*models.AgendaItem)(nil)).
		Set("summary = ?", summary).
		Set("topics = ?", topics).
		Where("id = ?", itemID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: update item %q summary: %w", itemID, err)
	}
	return nil
}
