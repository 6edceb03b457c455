package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// MeetingRepo persists Meeting rows.
type MeetingRepo struct {
	db bun.IDB
}

// Get fetches one meeting by ID.
func (r *MeetingRepo) Get(ctx context.Context, id string) (*models.Meeting, error) {
	meeting := new(models.Meeting)
	err := r.db.NewSelect().Model(meeting).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get meeting %q: %w", id, err)
	}
	return meeting, nil
}

// GetBatch returns a map from meeting ID to Meeting for every ID found,
// in one query, avoiding the N+1 pattern the spec warns about (§4.2).
func (r *MeetingRepo) GetBatch(ctx context.Context, ids []string) (map[string]*models.Meeting, error) {
	if len(ids) == 0 {
		return map[string]*models.Meeting{}, nil
	}
	var meetings []*models.Meeting
	if err := r.db.NewSelect().Model(&meetings).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("store: get meetings batch: %w", err)
	}
	out := make(map[string]*models.Meeting, len(meetings))
	for _, m := range meetings {
		out[m.ID] = m
	}
	return out, nil
}

// Upsert inserts or updates a meeting by ID. Callers that need to
// preserve an existing summary/topics/processing_status on re-ingest
// (spec §4.4 phase 5) must read-then-merge before calling Upsert; this
// method always writes exactly the fields given.
func (r *MeetingRepo) Upsert(ctx context.Context, m *models.Meeting) error {
	_, err := r.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("date = EXCLUDED.date").
		Set("agenda_url = EXCLUDED.agenda_url").
		Set("packet_urls = EXCLUDED.packet_urls").
		Set("summary = EXCLUDED.summary").
		Set("topics = EXCLUDED.topics").
		Set("participation = EXCLUDED.participation").
		Set("status = EXCLUDED.status").
		Set("processing_status = EXCLUDED.processing_status").
		Set("processing_method = EXCLUDED.processing_method").
		Set("processing_time = EXCLUDED.processing_time").
		Set("committee_id = EXCLUDED.committee_id").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: upsert meeting %q: %w", m.ID, err)
	}
	return nil
}

// UpdateProcessingResult persists the outcome of a processor run (spec
// §4.5.1 step 8 / §4.5.2): summary and/or topics, processing_method,
// processing_status and processing_time, without touching anything else
// about the meeting row.
func (r *MeetingRepo) UpdateProcessingResult(ctx context.Context, m *models.Meeting) error {
	_, err := r.db.NewUpdate().
		Model(m).
		Column("summary", "topics", "participation", "processing_method", "processing_status", "processing_time").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: update meeting processing result %q: %w", m.ID, err)
	}
	return nil
}

// SetProcessingStatus transitions a meeting's processing_status. It
// writes only processing_status and updated_at; started_at bookkeeping
// lives on queue jobs, not meetings.
func (r *MeetingRepo) SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus) error {
	_, err := r.db.NewUpdate().
		Model((*models.Meeting)(nil)).
		Set("processing_status = ?", status).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: set meeting %q processing_status: %w", id, err)
	}
	return nil
}

// ResetStaleProcessing resets any meeting whose processing_status has
// been "processing" for longer than threshold back to pending (spec
// §4.8's stale-recovery transition). Returns the IDs reset.
func (r *MeetingRepo) ResetStaleProcessing(ctx context.Context, thresholdMinutes int) ([]string, error) {
	var ids []string
	err := r.db.NewUpdate().
		Model((*models.Meeting)(nil)).
		Set("processing_status = ?", models.ProcessingStatusPending).
		Set("updated_at = current_timestamp").
		Where("processing_status = ?", models.ProcessingStatusProcessing).
		Where("updated_at < now() - (? || ' minutes')::interval", thresholdMinutes).
		Returning("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("store: reset stale meeting processing: %w", err)
	}
	return ids, nil
}
