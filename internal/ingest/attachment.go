package ingest

import (
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/vendoradapter"
)

// computeAttachmentHash hashes an item's attachments via
// models.AttachmentSetHash (spec invariant 7: reordering attachments
// never changes the hash, but any URL or name change does).
func computeAttachmentHash(attachments []vendoradapter.Attachment) string {
	return models.AttachmentSetHash(convertAttachments(attachments))
}

// convertAttachments maps the vendor adapter's wire attachment type to
// the persisted model type; the two vocabularies are kept separate
// (see vendoradapter doc comment) but share the same values today.
func convertAttachments(in []vendoradapter.Attachment) []models.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Attachment, len(in))
	for i, a := range in {
		out[i] = models.Attachment{Name: a.Name, URL: a.URL, Type: models.AttachmentType(a.Type)}
	}
	return out
}
