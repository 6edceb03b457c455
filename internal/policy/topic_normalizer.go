package policy

import "strings"

// NormalizeTopics deduplicates and tidies the topic tags an LLM summary
// call returns: trims whitespace, drops empties, and collapses
// case/spacing variants of the same topic to whichever spelling was
// seen first. original_source/analysis/topics/normalizer.py (imported
// by processor.py as get_normalizer().normalize(...)) was filtered out
// of the retrieval pack along with the rest of analysis/topics/, so this
// is a from-scratch reimplementation of what its call sites need, not a
// port — spec.md and original_source/ are both silent on the exact
// synonym table, so no attempt is made to merge near-duplicate topics
// beyond case/whitespace folding.
func NormalizeTopics(topics []string) []string {
	seen := make(map[string]bool, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}
