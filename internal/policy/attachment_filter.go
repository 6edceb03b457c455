package policy

import "strings"

// Thresholds for detecting low-value attachments — public-comment
// compilations that would burn extraction and LLM budget without
// adding anything summarizable — mirrored exactly from
// original_source/pipeline/processor.py's module-level constants
// (spec §168).
const (
	publicCommentPageThreshold      = 1000
	publicCommentOCRRatioThreshold  = 0.30
	publicCommentOCRMinPages        = 50
	publicCommentSignatureThreshold = 20
)

// ExtractionStats summarizes one attachment's extraction result enough
// to classify it, without the extract package needing to depend on
// policy (policy depends on nothing but the stats it's handed).
type ExtractionStats struct {
	PageCount int
	OCRPages  int
	Text      string
}

// IsLowValueAttachment reports whether an extracted attachment looks
// like a public-comment compilation rather than substantive content
// (spec §168): an excessive page count, a high OCR ratio on a long
// document, or many "Sincerely," sign-offs.
func IsLowValueAttachment(stats ExtractionStats) (bool, string) {
	if stats.PageCount > publicCommentPageThreshold {
		return true, "excessive page count"
	}
	if stats.PageCount > publicCommentOCRMinPages && stats.PageCount > 0 {
		ratio := float64(stats.OCRPages) / float64(stats.PageCount)
		if ratio > publicCommentOCRRatioThreshold {
			return true, "high OCR ratio"
		}
	}
	if count := strings.Count(stats.Text, "Sincerely,"); count > publicCommentSignatureThreshold {
		return true, "excessive signature count"
	}
	return false, ""
}

// IsPublicCommentAttachment flags an attachment by name/title alone,
// before extraction: titles like "Public Comments" or "Correspondence"
// that the pipeline never bothers fetching (spec §4.5.1's per-item
// low-value check, ahead of the shared document cache).
func IsPublicCommentAttachment(name string) bool {
	norm := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(norm, "public comment"):
		return true
	case strings.Contains(norm, "correspondence"):
		return true
	case strings.Contains(norm, "parcel table"):
		return true
	case strings.Contains(norm, "parcel list"):
		return true
	}
	return false
}
