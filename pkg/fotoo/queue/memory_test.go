package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoo-app/fotoo/pkg/fotoo/queue"
)

// countingHandler fails the first failures deliveries, then succeeds.
type countingHandler struct {
	mu       sync.Mutex
	failures int
	calls    int
	done     chan struct{}
}

func newCountingHandler(failures int) *countingHandler {
	return &countingHandler{failures: failures, done: make(chan struct{})}
}

func (h *countingHandler) handle(_ context.Context, _ uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient failure")
	}
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	return nil
}

func (h *countingHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func runQueue(t *testing.T, q *queue.Memory, handle queue.Handler) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = q.Run(ctx, handle) }()
	return cancel
}

func TestMemoryQueueDelivers(t *testing.T) {
	q := queue.NewMemory(queue.MemoryConfig{Workers: 1})
	h := newCountingHandler(0)
	cancel := runQueue(t, q, h.handle)
	defer cancel()

	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never delivered")
	}
	assert.Equal(t, 1, h.callCount())
}

func TestMemoryQueueRetriesWithBackoff(t *testing.T) {
	q := queue.NewMemory(queue.MemoryConfig{
		Workers: 1,
		Policy:  queue.RetryPolicy{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond},
	})
	h := newCountingHandler(2)
	cancel := runQueue(t, q, h.handle)
	defer cancel()

	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded after retries")
	}
	assert.Equal(t, 3, h.callCount())
}

func TestMemoryQueueStopsAtAttemptCeiling(t *testing.T) {
	q := queue.NewMemory(queue.MemoryConfig{
		Workers: 1,
		Policy:  queue.RetryPolicy{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond},
	})
	// Fails more times than the policy allows.
	h := newCountingHandler(10)
	cancel := runQueue(t, q, h.handle)
	defer cancel()

	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))

	// Wait past where a third attempt would land.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 2, h.callCount())
}

func TestMemoryQueueEnqueueHonorsContext(t *testing.T) {
	q := queue.NewMemory(queue.MemoryConfig{Workers: 1, Buffer: 1})

	// Fill the buffer with no worker running.
	require.NoError(t, q.Enqueue(context.Background(), uuid.New()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, uuid.New())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryPolicy(t *testing.T) {
	p := queue.RetryPolicy{MaxAttempts: 3, BaseDelay: 5 * time.Second}

	assert.Equal(t, 5*time.Second, p.Backoff(1))
	assert.Equal(t, 10*time.Second, p.Backoff(2))
	assert.Equal(t, 20*time.Second, p.Backoff(3))

	assert.False(t, p.Exhausted(1))
	assert.False(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))
	assert.True(t, p.Exhausted(4))
}
