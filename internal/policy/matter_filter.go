// Package policy holds the small, easily-extended rule sets that decide
// what gets tracked as a matter, what gets summarized, and what gets
// enqueued: the matter filter (spec §4.7) and the two enqueue deciders
// (spec §4.3/§4.4 step 9), kept separate from storage and ingestion so
// they can be tuned without touching either.
package policy

import "strings"

// proceduralTitles and proceduralMatterTypes are the static stop-list
// spec §198 calls "parameterized by a static list; easy to extend."
// original_source/pipeline/filters.py held the authoritative list but
// was dropped by the source filter that produced original_source/
// (_INDEX.md notes 7 files filtered out); this list is reconstructed
// from the titles spec.md itself names as procedural (§341, §371) plus
// the standard municipal-agenda boilerplate the rest of the corpus
// treats the same way.
var proceduralTitles = map[string]bool{
	"public comment":            true,
	"public comments":           true,
	"closed session":            true,
	"call to order":             true,
	"roll call":                 true,
	"pledge of allegiance":      true,
	"adjournment":               true,
	"approval of minutes":       true,
	"approval of agenda":        true,
	"announcements":             true,
	"staff communications":      true,
	"council communications":    true,
	"adjourn":                   true,
	"recess":                    true,
	"executive session":         true,
}

var proceduralMatterTypes = map[string]bool{
	"ceremonial":     true,
	"closed session": true,
	"proclamation":   true,
	"presentation":   true,
}

// MatterFilter decides whether an agenda item is procedural: one the
// pipeline never tracks as a Matter and never summarizes (spec §4.7).
type MatterFilter struct {
	titles      map[string]bool
	matterTypes map[string]bool
}

// NewMatterFilter builds a filter seeded with the default stop-lists.
// Callers that need to extend it can construct one directly instead.
func NewMatterFilter() *MatterFilter {
	return &MatterFilter{titles: proceduralTitles, matterTypes: proceduralMatterTypes}
}

// IsProcedural reports whether title or matterType mark this item as
// procedural (spec §4.7, §198).
func (f *MatterFilter) IsProcedural(title, matterType string) bool {
	norm := strings.ToLower(strings.TrimSpace(title))
	if f.titles[norm] {
		return true
	}
	if matterType != "" && f.matterTypes[strings.ToLower(strings.TrimSpace(matterType))] {
		return true
	}
	return false
}
