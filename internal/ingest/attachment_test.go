package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/engagic/core/internal/vendoradapter"
)

func TestComputeAttachmentHash_StableUnderPermutation(t *testing.T) {
	a := []vendoradapter.Attachment{
		{Name: "Ordinance.pdf", URL: "https://example.gov/o.pdf"},
		{Name: "Exhibit A.pdf", URL: "https://example.gov/a.pdf"},
	}
	b := []vendoradapter.Attachment{a[1], a[0]}

	assert.Equal(t, computeAttachmentHash(a), computeAttachmentHash(b))
}

func TestComputeAttachmentHash_ChangesWithURL(t *testing.T) {
	a := []vendoradapter.Attachment{{Name: "Ordinance.pdf", URL: "https://example.gov/o-v1.pdf"}}
	b := []vendoradapter.Attachment{{Name: "Ordinance.pdf", URL: "https://example.gov/o-v2.pdf"}}

	assert.NotEqual(t, computeAttachmentHash(a), computeAttachmentHash(b))
}

func TestComputeAttachmentHash_Empty(t *testing.T) {
	assert.Equal(t, "", computeAttachmentHash(nil))
}

func TestConvertAttachments(t *testing.T) {
	in := []vendoradapter.Attachment{{Name: "a", URL: "u", Type: vendoradapter.AttachmentTypePDF}}
	out := convertAttachments(in)
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "u", out[0].URL)
}

func TestNormalizeForCommitteeMatch(t *testing.T) {
	assert.Equal(t, "planning commission", normalizeForCommitteeMatch("  Planning   Commission "))
}
