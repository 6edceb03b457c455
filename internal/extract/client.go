// Package extract fetches agenda-item attachments and extracts their
// text, grounded in emergent's pkg/kreuzberg client — an HTTP client
// speaking to a Kreuzberg-shaped document-extraction service (PDF/DOCX/
// image OCR), adapted here to fetch the attachment URL itself (the
// teacher's callers already held file bytes; this pipeline only holds a
// URL per spec §4.4 phase 3/§168) before forwarding bytes for
// extraction.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// defaultRecycleAfter is how many fetch requests an HTTPExtractor makes
// before it rebuilds its underlying http.Client, ported from
// original_source/analysis/analyzer_async.py's `_recycle_after = 100`
// (spec §4.5/§6: "HTTP session recycle | Requests before rebuild
// (default 100)") to bound the connection pool and TLS session cache
// growth a long-lived worker otherwise accumulates.
const defaultRecycleAfter = 100

// Result is what one attachment's extraction yields: enough to feed the
// summarizer and enough to run the low-value-attachment heuristics
// (spec §168).
type Result struct {
	Content   string `json:"content"`
	PageCount int    `json:"page_count,omitempty"`
	OCRPages  int    `json:"ocr_pages,omitempty"`
}

// Error represents an extraction-service failure. Retryable distinguishes
// a transient failure (service unavailable, timeout) from a permanent
// one (corrupt or unsupported file) so callers — and eventually
// internal/queue's MarkFailed call — know whether retrying is worth it.
type Error struct {
	Message    string
	Detail     string
	StatusCode int
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Extractor fetches content at url and extracts its text.
type Extractor interface {
	Extract(ctx context.Context, url, filename string) (*Result, error)
}

// HTTPExtractor fetches the attachment itself over HTTP, then forwards
// the bytes to a Kreuzberg-compatible extraction service.
type HTTPExtractor struct {
	extractBaseURL string
	timeout        time.Duration
	log            *slog.Logger

	recycleAfter int
	mu           sync.Mutex
	httpClient   *http.Client
	requestCount int
}

// NewHTTPExtractor builds an extractor pointed at extractBaseURL (a
// Kreuzberg-compatible service's base URL).
func NewHTTPExtractor(extractBaseURL string, timeout time.Duration, log *slog.Logger) *HTTPExtractor {
	return &HTTPExtractor{
		httpClient:     &http.Client{Timeout: timeout},
		extractBaseURL: extractBaseURL,
		timeout:        timeout,
		log:            log,
		recycleAfter:   defaultRecycleAfter,
	}
}

// session returns the current http.Client, rebuilding it once
// recycleAfter requests have passed through it (spec §5's "HTTP session
// inside the analyzer is per-worker; recycled periodically").
func (c *HTTPExtractor) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount++
	if c.requestCount > c.recycleAfter {
		c.httpClient = &http.Client{Timeout: c.timeout}
		c.requestCount = 1
		c.log.Debug("recycled extractor http session", slog.Int("recycle_after", c.recycleAfter))
	}
	return c.httpClient
}

// Extract downloads url and extracts its text, retrying transient
// failures with exponential backoff (spec §6's extraction client
// resilience requirement).
func (c *HTTPExtractor) Extract(ctx context.Context, url, filename string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result *Result
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	err := backoff.Retry(func() error {
		content, fetchErr := c.fetch(ctx, url)
		if fetchErr != nil {
			var svcErr *Error
			if errors.As(fetchErr, &svcErr) && !svcErr.Retryable {
				return backoff.Permanent(fetchErr)
			}
			return fetchErr
		}
		r, extractErr := c.extract(ctx, content, filename)
		if extractErr != nil {
			var svcErr *Error
			if errors.As(extractErr, &svcErr) && !svcErr.Retryable {
				return backoff.Permanent(extractErr)
			}
			return extractErr
		}
		result = r
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPExtractor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: build fetch request for %q: %w", url, err)
	}
	resp, err := c.session().Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("fetching attachment at %s", url), Detail: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &Error{Message: fmt.Sprintf("attachment source returned %d", resp.StatusCode), StatusCode: resp.StatusCode, Retryable: true}
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{Message: fmt.Sprintf("attachment source returned %d", resp.StatusCode), StatusCode: resp.StatusCode, Retryable: false}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extract: read attachment body from %q: %w", url, err)
	}
	return body, nil
}

func (c *HTTPExtractor) extract(ctx context.Context, content []byte, filename string) (*Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("extract: create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("extract: write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("extract: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.extractBaseURL+"/extract", &buf)
	if err != nil {
		return nil, fmt.Errorf("extract: build extract request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.session().Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("extraction service unavailable at %s", c.extractBaseURL), Detail: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extract: read response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, &Error{Message: "extraction service error", Detail: string(body), StatusCode: resp.StatusCode, Retryable: true}
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{Message: "extraction rejected attachment", Detail: string(body), StatusCode: resp.StatusCode, Retryable: false}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("extract: decode response: %w", err)
	}
	c.log.Debug("extraction completed", slog.String("filename", filename), slog.Int("content_length", len(result.Content)))
	return &result, nil
}
