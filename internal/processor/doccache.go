package processor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/engagic/core/internal/extract"
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/policy"
	"github.com/engagic/core/internal/store"
)

// versionPattern recognizes vendor filenames like "Ordinance Ver2.pdf":
// a base name, whitespace, then "Ver" and a version number. Ported
// verbatim from original_source/pipeline/processor.py's
// _filter_document_versions (case-insensitive, space before "Ver").
var versionPattern = regexp.MustCompile(`(?i)(.+?)\s+Ver(\d+)`)

// filterDocumentVersions keeps only the highest-numbered "Ver" variant
// per base filename, passing non-versioned URLs through unchanged
// (spec §4.5.1 step 3: avoid summarizing both Ver1 and Ver2 of the same
// attachment).
func filterDocumentVersions(urls []string) []string {
	type versioned struct {
		num int
		url string
	}
	groups := make(map[string][]versioned)
	var nonVersioned []string

	for _, u := range urls {
		filename := u
		if idx := strings.LastIndex(u, "/"); idx != -1 {
			filename = u[idx+1:]
		}
		m := versionPattern.FindStringSubmatch(filename)
		if m == nil {
			nonVersioned = append(nonVersioned, u)
			continue
		}
		base := strings.TrimSpace(m[1])
		num, err := strconv.Atoi(m[2])
		if err != nil {
			nonVersioned = append(nonVersioned, u)
			continue
		}
		groups[base] = append(groups[base], versioned{num: num, url: u})
	}

	filtered := append([]string{}, nonVersioned...)
	for _, versions := range groups {
		best := versions[0]
		for _, v := range versions[1:] {
			if v.num > best.num {
				best = v
			}
		}
		filtered = append(filtered, best.url)
	}
	return filtered
}

// eligibleAttachmentType reports whether an attachment's type is worth
// fetching for text (spec §4.5.1: pdf/doc/unknown only; spreadsheets are
// never extracted).
func eligibleAttachmentType(t models.AttachmentType) bool {
	return t == models.AttachmentTypePDF || t == models.AttachmentTypeDoc || t == models.AttachmentTypeUnknown
}

// docEntry is one cached attachment's extraction result.
type docEntry struct {
	Text      string
	PageCount int
	Name      string
}

// documentCache is a meeting-level, version-filtered, deduplicated
// attachment cache keyed by URL (spec §4.5.1 step 3): every item that
// references the same URL shares one extraction instead of re-fetching
// it once per item.
type documentCache struct {
	docs       map[string]docEntry
	itemURLs   map[string][]string // item ID -> filtered attachment URLs
	sharedURLs map[string]bool     // urls referenced by more than one item and present in docs
}

// buildDocumentCache extracts text for every unique, version-filtered,
// eligible attachment URL across items, grounded in
// original_source/pipeline/processor.py's _build_document_cache: fetch
// once per URL, skip known low-value attachments by name before
// fetching, and skip extraction results that look like public-comment
// compilations after fetching. cacheRepo backs this in-memory cache
// with the persisted extraction cache (spec §4.4 phase 3), so a job
// retried after a crash doesn't pay for extraction it already ran.
func buildDocumentCache(ctx context.Context, items []*models.AgendaItem, extractor extract.Extractor, cacheRepo *store.CacheRepo, log *slog.Logger) *documentCache {
	cache := &documentCache{
		docs:     make(map[string]docEntry),
		itemURLs: make(map[string][]string),
	}

	urlToName := make(map[string]string)
	urlToItems := make(map[string][]string)
	allURLs := make(map[string]bool)

	for _, item := range items {
		var itemURLs []string
		for _, att := range item.Attachments {
			if !eligibleAttachmentType(att.Type) || att.URL == "" {
				continue
			}
			itemURLs = append(itemURLs, att.URL)
			if att.Name != "" {
				if _, ok := urlToName[att.URL]; !ok {
					urlToName[att.URL] = att.Name
				}
			}
		}
		filtered := filterDocumentVersions(itemURLs)
		cache.itemURLs[item.ID] = filtered
		for _, u := range filtered {
			allURLs[u] = true
			urlToItems[u] = append(urlToItems[u], item.ID)
		}
	}

	log.Info("collected unique attachment urls", slog.Int("url_count", len(allURLs)), slog.Int("item_count", len(items)))

	for u := range allURLs {
		name := urlToName[u]
		if name != "" && policy.IsPublicCommentAttachment(name) {
			log.Info("skipping low-value attachment", slog.String("attachment_name", name))
			continue
		}

		if cached, ok := lookupCache(ctx, cacheRepo, u); ok {
			if cached.SkipReason != "" {
				log.Info("skipping cached low-value attachment", slog.String("attachment", nameOr(name, u)), slog.String("reason", cached.SkipReason))
				continue
			}
			cache.docs[u] = docEntry{Text: cached.Content, Name: nameOr(name, u)}
			log.Info("reused cached extraction", slog.String("attachment", nameOr(name, u)), slog.Bool("shared", len(urlToItems[u]) > 1))
			continue
		}

		result, err := extractor.Extract(ctx, u, name)
		if err != nil {
			log.Warn("failed to extract document", slog.String("attachment", nameOr(name, u)), slog.String("error", err.Error()))
			continue
		}
		if result.Content == "" {
			continue
		}
		stats := policy.ExtractionStats{PageCount: result.PageCount, OCRPages: result.OCRPages, Text: result.Content}
		if lowValue, reason := policy.IsLowValueAttachment(stats); lowValue {
			log.Info("skipping public comment compilation", slog.String("attachment", nameOr(name, u)), slog.String("reason", reason))
			putCache(ctx, cacheRepo, u, "", reason, log)
			continue
		}

		cache.docs[u] = docEntry{Text: result.Content, PageCount: result.PageCount, Name: nameOr(name, u)}
		putCache(ctx, cacheRepo, u, result.Content, "", log)
		log.Info("extracted document", slog.String("attachment", nameOr(name, u)), slog.Int("pages", result.PageCount), slog.Bool("shared", len(urlToItems[u]) > 1))
	}

	cache.sharedURLs = make(map[string]bool)
	for u, itemIDs := range urlToItems {
		if len(itemIDs) > 1 {
			if _, ok := cache.docs[u]; ok {
				cache.sharedURLs[u] = true
			}
		}
	}

	return cache
}

// lookupCache consults the persisted extraction cache, if one was
// supplied. A nil cacheRepo (as in tests that exercise the in-memory
// cache alone) always misses.
func lookupCache(ctx context.Context, cacheRepo *store.CacheRepo, url string) (*models.CacheEntry, bool) {
	if cacheRepo == nil {
		return nil, false
	}
	entry, err := cacheRepo.Get(ctx, url)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// putCache persists an extraction outcome. Failures are logged, not
// fatal: the persisted cache is an optimization, not a correctness
// requirement.
func putCache(ctx context.Context, cacheRepo *store.CacheRepo, url, content, skipReason string, log *slog.Logger) {
	if cacheRepo == nil {
		return
	}
	if err := cacheRepo.Put(ctx, url, content, skipReason); err != nil {
		log.Warn("failed to persist extraction cache entry", slog.String("url", url), slog.String("error", err.Error()))
	}
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// sharedContext assembles the shared-document text block once per
// meeting: every URL referenced by more than one item, sorted for
// determinism, each under a "=== name ===" header (ported verbatim from
// _process_meeting_with_items' shared_parts assembly).
func (c *documentCache) sharedContext() string {
	if len(c.sharedURLs) == 0 {
		return ""
	}
	urls := make([]string, 0, len(c.sharedURLs))
	for u := range c.sharedURLs {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	parts := make([]string, 0, len(urls))
	for _, u := range urls {
		doc := c.docs[u]
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", doc.Name, doc.Text))
	}
	return strings.Join(parts, "\n\n")
}

// allText assembles every cached document's text, regardless of which
// item(s) reference it, sorted by URL for determinism. Used by
// matter-level processing (spec §4.5.3), where the cache is built over
// every item across every appearance and the whole union is summarized
// as one prompt rather than split into shared/per-item blocks.
func (c *documentCache) allText() string {
	if len(c.docs) == 0 {
		return ""
	}
	urls := make([]string, 0, len(c.docs))
	for u := range c.docs {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	parts := make([]string, 0, len(urls))
	for _, u := range urls {
		doc := c.docs[u]
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", doc.Name, doc.Text))
	}
	return strings.Join(parts, "\n\n")
}

// itemText assembles one item's own (non-shared) attachment text,
// returning "" if nothing item-specific was cached for it.
func (c *documentCache) itemText(itemID string) (text string, pageCount int) {
	var parts []string
	for _, u := range c.itemURLs[itemID] {
		if c.sharedURLs[u] {
			continue
		}
		doc, ok := c.docs[u]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", doc.Name, doc.Text))
		pageCount += doc.PageCount
	}
	if len(parts) == 0 {
		return "", 0
	}
	return strings.Join(parts, "\n\n"), pageCount
}
