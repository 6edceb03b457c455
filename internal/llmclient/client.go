// Package llmclient talks to the summarization LLM. Reworked from
// tarsy's pkg/llm/client.go, which wraps a gRPC connection to a
// streaming "thinking" chat service — this pipeline needs one
// request/response call per item or matter (a prompt in, a summary and
// topic tags out, spec §4.6), not a multi-turn chat stream, so the
// transport drops gRPC+protobuf for a plain JSON HTTP client (see
// DESIGN.md §3 for why) while keeping tarsy's model/temperature/
// max-tokens configuration knobs and retry posture.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Request is one summarization call: either an agenda item's extracted
// attachment text, or a matter's union of attachment text across every
// appearance (spec §4.6).
type Request struct {
	Text        string
	Title       string
	Model       string
	Temperature *float32
	MaxTokens   *int32
}

// Response is a summary plus the topic tags spec §4.6 requires.
type Response struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// RateLimitError means the caller should back off and retry later
// (HTTP 429).
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("llmclient: rate limited, retry after %v", e.RetryAfter)
}

// defaultRetryAfter is used when a 429 response carries no Retry-After
// header, or one that can't be parsed.
const defaultRetryAfter = 2 * time.Second

// parseRetryAfter reads a Retry-After header value, which per RFC 9110
// is either a number of seconds or an HTTP-date. Falls back to
// defaultRetryAfter when empty or unparseable.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return defaultRetryAfter
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}

// rateLimitAwareBackOff wraps a BackOff so a server-specified
// Retry-After duration can override the next interval once, for the
// attempt immediately following a 429 response, instead of the
// exponential schedule guessing at a wait time (spec §4.5: "the LLM
// client returns retry-after signals; the worker honours them").
type rateLimitAwareBackOff struct {
	backoff.BackOff
	override time.Duration
}

func (b *rateLimitAwareBackOff) NextBackOff() time.Duration {
	if b.override > 0 {
		d := b.override
		b.override = 0
		return d
	}
	return b.BackOff.NextBackOff()
}

// PermanentError means the request itself is unprocessable (e.g. the
// model rejected the prompt) and retrying verbatim won't help.
type PermanentError struct {
	Message string
}

func (e *PermanentError) Error() string { return "llmclient: " + e.Message }

// Summarizer produces a summary and topic tags for one prompt.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*Response, error)
}

// HTTPSummarizer is a JSON-over-HTTP summarization client, configured
// with tarsy's same model/temperature/max-tokens knobs.
type HTTPSummarizer struct {
	httpClient   *http.Client
	baseURL      string
	defaultModel string
	temperature  *float32
	maxTokens    *int32
	log          *slog.Logger
}

// NewHTTPSummarizer builds a client pointed at baseURL (a
// summarization service exposing POST /summarize).
func NewHTTPSummarizer(baseURL, defaultModel string, temperature *float32, maxTokens *int32, timeout time.Duration, log *slog.Logger) *HTTPSummarizer {
	return &HTTPSummarizer{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		defaultModel: defaultModel,
		temperature:  temperature,
		maxTokens:    maxTokens,
		log:          log,
	}
}

type summarizeRequestBody struct {
	Text        string   `json:"text"`
	Title       string   `json:"title,omitempty"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int32   `json:"max_tokens,omitempty"`
}

// Summarize calls the summarization service, retrying rate-limited
// requests with exponential backoff and failing fast on permanent
// rejections (spec §4.6, §7's retry posture).
func (c *HTTPSummarizer) Summarize(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	temperature := req.Temperature
	if temperature == nil {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == nil {
		maxTokens = c.maxTokens
	}

	body, err := json.Marshal(summarizeRequestBody{
		Text:        req.Text,
		Title:       req.Title,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient: marshal request: %w", err)
	}

	var result *Response
	rlBackoff := &rateLimitAwareBackOff{BackOff: backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)}
	policy := backoff.WithContext(rlBackoff, ctx)
	err = backoff.Retry(func() error {
		r, callErr := c.call(ctx, body)
		if callErr != nil {
			var perm *PermanentError
			if errors.As(callErr, &perm) {
				return backoff.Permanent(callErr)
			}
			var rl *RateLimitError
			if errors.As(callErr, &rl) {
				rlBackoff.override = rl.RetryAfter
				c.log.Warn("llm rate limited, honoring retry-after", slog.Duration("retry_after", rl.RetryAfter))
			}
			return callErr
		}
		result = r
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPSummarizer) call(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmclient: call summarization service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llmclient: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("llmclient: summarization service returned %d: %s", resp.StatusCode, respBody)
	case resp.StatusCode >= 400:
		return nil, &PermanentError{Message: fmt.Sprintf("summarization rejected (status %d): %s", resp.StatusCode, respBody)}
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("llmclient: decode response: %w", err)
	}
	return &result, nil
}
