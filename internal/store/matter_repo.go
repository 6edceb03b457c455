package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// MatterRepo persists Matter rows.
type MatterRepo struct {
	db bun.IDB
}

// Get fetches one matter by ID.
func (r *MatterRepo) Get(ctx context.Context, id string) (*models.Matter, error) {
	matter := new(models.Matter)
	err := r.db.NewSelect().Model(matter).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get matter %q: %w", id, err)
	}
	return matter, nil
}

// GetBatch returns a map from matter ID to Matter for every ID found, in
// one query (spec §4.2's get_matters_batch).
func (r *MatterRepo) GetBatch(ctx context.Context, ids []string) (map[string]*models.Matter, error) {
	if len(ids) == 0 {
		return map[string]*models.Matter{}, nil
	}
	var matters []*models.Matter
	if err := r.db.NewSelect().Model(&matters).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("store: get matters batch: %w", err)
	}
	out := make(map[string]*models.Matter, len(matters))
	for _, m := range matters {
		out[m.ID] = m
	}
	return out, nil
}

// Create inserts a brand-new matter with first_seen = last_seen =
// meeting date and appearance_count = 1 (spec §4.4 phase 8, first
// branch).
func (r *MatterRepo) Create(ctx context.Context, m *models.Matter) error {
	if m.MatterFile == "" && m.MatterVendorID == "" {
		return fmt.Errorf("store: create matter %q: %w", m.ID, NewValidationError("matter_file/matter_id", "at least one identifier is required"))
	}
	m.AppearanceCount = 1
	_, err := r.db.NewInsert().Model(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: create matter %q: %w", m.ID, err)
	}
	return nil
}

// TouchAppearance updates last_seen and increments appearance_count for
// an existing matter seen again on a new meeting (spec §4.4 phase 8,
// second branch). Also refreshes attachments/attachment hash if they
// changed; callers pass the already-merged Matter value to write.
func (r *MatterRepo) TouchAppearance(ctx context.Context, m *models.Matter) error {
	_, err := r.db.NewUpdate().
		Model(m).
		Column("last_seen", "appearance_count", "attachments", "metadata", "sponsors", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: touch matter appearance %q: %w", m.ID, err)
	}
	return nil
}

// WriteCanonicalSummary persists a processor-produced canonical summary
// plus the attachment hash it was generated against (spec §4.5.3 and
// invariant 6: "a matter's canonical_summary changes only when
// metadata.attachment_hash changes").
func (r *MatterRepo) WriteCanonicalSummary(ctx context.Context, matterID, summary string, topics []string, attachmentHash string) error {
	_, err := r.db.NewUpdate().
		Model((*models.Matter)(nil)).
		Set("canonical_summary = ?", summary).
		Set("canonical_topics = ?", topics).
		Set("metadata = ?", &models.MatterMetadata{AttachmentHash: attachmentHash}).
		Set("updated_at = current_timestamp").
		Where("id = ?", matterID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: write canonical summary for matter %q: %w", matterID, err)
	}
	return nil
}
