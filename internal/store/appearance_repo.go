package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// MatterAppearanceRepo persists MatterAppearance junction rows, keyed
// (matter_id, meeting_id, item_id). There is no natural deterministic
// key here the way there is for meetings/matters, so rows get a random
// uuid surrogate key, the same way tarsy uses google/uuid for session
// IDs.
type MatterAppearanceRepo struct {
	db bun.IDB
}

// Exists reports whether an appearance already exists for this
// (matter, meeting, item) tuple — used by ingestion phase 9 to keep
// re-ingestion idempotent.
func (r *MatterAppearanceRepo) Exists(ctx context.Context, matterID, meetingID, itemID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.MatterAppearance)(nil)).
		Where("matter_id = ? AND meeting_id = ? AND item_id = ?", matterID, meetingID, itemID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("store: check matter appearance existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new matter appearance row, assigning a surrogate ID
// if the caller left it blank.
func (r *MatterAppearanceRepo) Create(ctx context.Context, a *models.MatterAppearance) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(a).Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: create matter appearance: %w", err)
	}
	return nil
}

// ListForMatter returns every appearance of one matter, across all
// meetings, used by matter-level processing to know which meetings to
// back-fill.
func (r *MatterAppearanceRepo) ListForMatter(ctx context.Context, matterID string) ([]*models.MatterAppearance, error) {
	var appearances []*models.MatterAppearance
	err := r.db.NewSelect().Model(&appearances).Where("matter_id = ?", matterID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list appearances for matter %q: %w", matterID, err)
	}
	return appearances, nil
}
