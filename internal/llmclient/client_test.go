package llmclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPSummarizer_Summarize_Success(t *testing.T) {
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body summarizeRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "default-model", body.Model)
		_ = json.NewEncoder(w).Encode(Response{Summary: "a summary", Topics: []string{"budget"}})
	}))
	defer svc.Close()

	c := NewHTTPSummarizer(svc.URL, "default-model", nil, nil, 5*time.Second, testLogger())
	resp, err := c.Summarize(context.Background(), Request{Text: "some attachment text"})
	require.NoError(t, err)
	assert.Equal(t, "a summary", resp.Summary)
	assert.Equal(t, []string{"budget"}, resp.Topics)
}

func TestHTTPSummarizer_Summarize_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad prompt"))
	}))
	defer svc.Close()

	c := NewHTTPSummarizer(svc.URL, "default-model", nil, nil, 5*time.Second, testLogger())
	_, err := c.Summarize(context.Background(), Request{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestHTTPSummarizer_Summarize_RateLimitRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(Response{Summary: "eventually", Topics: nil})
	}))
	defer svc.Close()

	c := NewHTTPSummarizer(svc.URL, "default-model", nil, nil, 5*time.Second, testLogger())
	resp, err := c.Summarize(context.Background(), Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "eventually", resp.Summary)
	assert.Equal(t, 3, attempts)
}

func TestHTTPSummarizer_Summarize_HonorsRetryAfterHeader(t *testing.T) {
	attempts := 0
	var firstAttemptAt, secondAttemptAt time.Time
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			firstAttemptAt = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		secondAttemptAt = time.Now()
		_ = json.NewEncoder(w).Encode(Response{Summary: "ok", Topics: nil})
	}))
	defer svc.Close()

	c := NewHTTPSummarizer(svc.URL, "default-model", nil, nil, 5*time.Second, testLogger())
	_, err := c.Summarize(context.Background(), Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.GreaterOrEqual(t, secondAttemptAt.Sub(firstAttemptAt), 900*time.Millisecond)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, defaultRetryAfter, parseRetryAfter(""))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter("not-a-number"))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, defaultRetryAfter, parseRetryAfter("-3"))

	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 5*time.Second)
	assert.LessOrEqual(t, d, 10*time.Second)
}
