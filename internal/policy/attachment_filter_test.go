package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLowValueAttachment(t *testing.T) {
	low, reason := IsLowValueAttachment(ExtractionStats{PageCount: 1200})
	assert.True(t, low)
	assert.Equal(t, "excessive page count", reason)

	low, reason = IsLowValueAttachment(ExtractionStats{PageCount: 60, OCRPages: 30})
	assert.True(t, low)
	assert.Equal(t, "high OCR ratio", reason)

	low, _ = IsLowValueAttachment(ExtractionStats{PageCount: 10, Text: strings.Repeat("Sincerely, ", 25)})
	assert.True(t, low)

	low, reason = IsLowValueAttachment(ExtractionStats{PageCount: 20, Text: "an ordinary staff report"})
	assert.False(t, low)
	assert.Empty(t, reason)
}

func TestIsPublicCommentAttachment(t *testing.T) {
	assert.True(t, IsPublicCommentAttachment("Public Comments - Batch 1"))
	assert.True(t, IsPublicCommentAttachment("Correspondence Received"))
	assert.True(t, IsPublicCommentAttachment("Parcel List for Assessment"))
	assert.False(t, IsPublicCommentAttachment("Staff Report"))
}
