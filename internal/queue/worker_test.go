package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPollInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = 1 * time.Second
	cfg.PollIntervalJitter = 500 * time.Millisecond
	w := NewWorker("test-worker", "", nil, cfg, nil)

	for i := 0; i < 100; i++ {
		d := w.pollInterval()
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestWorkerPollIntervalNoJitter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = 1 * time.Second
	cfg.PollIntervalJitter = 0
	w := NewWorker("test-worker", "", nil, cfg, nil)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 1*time.Second, w.pollInterval())
	}
}

func TestWorkerHealth(t *testing.T) {
	w := NewWorker("worker-1", "", nil, DefaultConfig(), nil)

	h := w.Health()
	assert.Equal(t, "worker-1", h.ID)
	assert.False(t, h.Working)
	assert.Empty(t, h.CurrentJobID)
	assert.Equal(t, 0, h.JobsProcessed)

	w.setWorking("job-abc")
	h = w.Health()
	assert.True(t, h.Working)
	assert.Equal(t, "job-abc", h.CurrentJobID)

	w.setIdle()
	h = w.Health()
	assert.False(t, h.Working)
	assert.Empty(t, h.CurrentJobID)
}

func TestIsPermanent(t *testing.T) {
	permanent := &PermanentError{Err: assertionError{"bad payload"}}
	assert.True(t, IsPermanent(permanent))

	transient := assertionError{"connection refused"}
	assert.False(t, IsPermanent(transient))
}

type assertionError struct{ msg string }

func (e assertionError) Error() string { return e.msg }
