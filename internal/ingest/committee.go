package ingest

import (
	"context"
	"strings"

	"github.com/engagic/core/internal/store"
)

func normalizeForCommitteeMatch(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// findCommittee implements ingestion phase 4's optional title lookup:
// a meeting titled "Planning Commission Regular Meeting" should link to
// a committee named "Planning Commission" even though the strings
// aren't equal, so this scans the city's (typically small) committee
// list for the longest normalized name that appears as a substring of
// the meeting title. Returns nil, nil when nothing matches — the
// caller treats that as "no committee link", not an error.
func findCommittee(ctx context.Context, committees *store.CommitteeRepo, banana, meetingTitle string) (*string, error) {
	all, err := committees.ListForCity(ctx, banana)
	if err != nil {
		return nil, err
	}
	normalizedTitle := normalizeForCommitteeMatch(meetingTitle)

	var best *string
	bestLen := -1
	for _, c := range all {
		if c.NormalizedName == "" || !strings.Contains(normalizedTitle, c.NormalizedName) {
			continue
		}
		if len(c.NormalizedName) > bestLen {
			id := c.ID
			best = &id
			bestLen = len(c.NormalizedName)
		}
	}
	return best, nil
}
