package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records published payloads instead of reaching a broker.
type fakeConn struct {
	mu        sync.Mutex
	published [][]byte
	notify    chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{notify: make(chan []byte, 8)}
}

func (c *fakeConn) Publish(_ string, data []byte) error {
	c.mu.Lock()
	c.published = append(c.published, data)
	c.mu.Unlock()
	c.notify <- data
	return nil
}

func (c *fakeConn) QueueSubscribe(string, string, nats.MsgHandler) (*nats.Subscription, error) {
	return nil, nil
}

func (c *fakeConn) Drain() error { return nil }

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

func newTestNATS(conn *fakeConn, policy RetryPolicy) *NATS {
	return &NATS{
		conn:       conn,
		subject:    "fotoo.process",
		group:      "fotoo-workers",
		policy:     policy,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobTimeout: time.Second,
	}
}

func TestNATSEnqueuePublishesFirstAttempt(t *testing.T) {
	conn := newFakeConn()
	q := newTestNATS(conn, DefaultRetryPolicy)
	assetID := uuid.New()

	require.NoError(t, q.Enqueue(context.Background(), assetID))
	require.Equal(t, 1, conn.count())

	var j job
	require.NoError(t, json.Unmarshal(conn.published[0], &j))
	assert.Equal(t, assetID, j.AssetID)
	assert.Equal(t, 1, j.Attempt)
}

func TestNATSEnqueueHonorsContext(t *testing.T) {
	conn := newFakeConn()
	q := newTestNATS(conn, DefaultRetryPolicy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, conn.count())
}

func TestNATSDispatchDeliversAssetID(t *testing.T) {
	conn := newFakeConn()
	q := newTestNATS(conn, DefaultRetryPolicy)
	assetID := uuid.New()

	data, err := json.Marshal(job{AssetID: assetID, Attempt: 1})
	require.NoError(t, err)

	var got uuid.UUID
	q.dispatch(func(_ context.Context, id uuid.UUID) error {
		got = id
		return nil
	}, data)

	assert.Equal(t, assetID, got)
	assert.Equal(t, 0, conn.count())
}

func TestNATSFailedDispatchRepublishesNextAttempt(t *testing.T) {
	conn := newFakeConn()
	q := newTestNATS(conn, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	assetID := uuid.New()

	data, err := json.Marshal(job{AssetID: assetID, Attempt: 1})
	require.NoError(t, err)

	q.dispatch(func(context.Context, uuid.UUID) error {
		return errors.New("transient failure")
	}, data)

	select {
	case republished := <-conn.notify:
		var j job
		require.NoError(t, json.Unmarshal(republished, &j))
		assert.Equal(t, assetID, j.AssetID)
		assert.Equal(t, 2, j.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never republished")
	}
}

func TestNATSRetryStopsAtAttemptCeiling(t *testing.T) {
	conn := newFakeConn()
	q := newTestNATS(conn, RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond})

	data, err := json.Marshal(job{AssetID: uuid.New(), Attempt: 2})
	require.NoError(t, err)

	q.dispatch(func(context.Context, uuid.UUID) error {
		return errors.New("still failing")
	}, data)

	select {
	case <-conn.notify:
		t.Fatal("exhausted job was republished")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNATSDispatchDropsMalformedPayload(t *testing.T) {
	conn := newFakeConn()
	q := newTestNATS(conn, DefaultRetryPolicy)

	called := false
	q.dispatch(func(context.Context, uuid.UUID) error {
		called = true
		return nil
	}, []byte("not json"))

	assert.False(t, called)
	assert.Equal(t, 0, conn.count())
}
