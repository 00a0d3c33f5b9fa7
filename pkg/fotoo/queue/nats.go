package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NATS delivers jobs over a NATS subject consumed by a queue group, so
// multiple worker processes share one stream of jobs. Retries are carried
// in the message envelope: a failed delivery is republished with an
// incremented attempt count after the backoff delay.
type NATS struct {
	conn    natsConn
	subject string
	group   string
	policy  RetryPolicy
	logger  *slog.Logger

	jobTimeout time.Duration
}

// natsConn is the slice of *nats.Conn the transport uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	URL     string
	Subject string
	Group   string
	Policy  RetryPolicy
	Logger  *slog.Logger

	// JobTimeout bounds one delivery end to end. Transcodes of large
	// videos dominate, so the default is generous.
	JobTimeout time.Duration
}

// NewNATS connects to the broker and returns the transport.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.Subject == "" {
		cfg.Subject = "fotoo.process"
	}
	if cfg.Group == "" {
		cfg.Group = "fotoo-workers"
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = DefaultRetryPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Minute
	}

	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATS{
		conn:       conn,
		subject:    cfg.Subject,
		group:      cfg.Group,
		policy:     cfg.Policy,
		logger:     cfg.Logger,
		jobTimeout: cfg.JobTimeout,
	}, nil
}

// Close drains the connection.
func (q *NATS) Close() {
	if q.conn != nil {
		_ = q.conn.Drain()
	}
}

// Enqueue publishes an asset id as a first-attempt job.
func (q *NATS) Enqueue(ctx context.Context, assetID uuid.UUID) error {
	// Publish is buffered and does not block, so the context only gates
	// entry.
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.publish(job{AssetID: assetID, Attempt: 1})
}

func (q *NATS) publish(j job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	if err := q.conn.Publish(q.subject, b); err != nil {
		return fmt.Errorf("publish job for asset %s: %w", j.AssetID, err)
	}
	return nil
}

// Subscribe attaches the handler to the queue group. Deliveries run on
// NATS callback goroutines; the subscription lives until Close.
func (q *NATS) Subscribe(handle Handler) (*nats.Subscription, error) {
	return q.conn.QueueSubscribe(q.subject, q.group, func(msg *nats.Msg) {
		q.dispatch(handle, msg.Data)
	})
}

// dispatch runs the handler for one delivered message.
func (q *NATS) dispatch(handle Handler, data []byte) {
	var j job
	if err := json.Unmarshal(data, &j); err != nil {
		q.logger.Error("drop malformed job", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.jobTimeout)
	defer cancel()

	if err := handle(ctx, j.AssetID); err != nil {
		q.retry(j, err)
	}
}

func (q *NATS) retry(j job, cause error) {
	if q.policy.Exhausted(j.Attempt) {
		q.logger.Error("job failed, retries exhausted",
			"asset_id", j.AssetID, "attempt", j.Attempt, "err", cause)
		return
	}

	delay := q.policy.Backoff(j.Attempt)
	q.logger.Warn("job failed, scheduling retry",
		"asset_id", j.AssetID, "attempt", j.Attempt, "delay", delay, "err", cause)

	next := job{AssetID: j.AssetID, Attempt: j.Attempt + 1}
	time.AfterFunc(delay, func() {
		if err := q.publish(next); err != nil {
			q.logger.Error("requeue failed", "asset_id", next.AssetID, "err", err)
		}
	})
}
