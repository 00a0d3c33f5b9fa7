// Package queue delivers "process this asset" jobs to the worker pool.
// Delivery is at-least-once with bounded retries; the processing guard in
// the pipeline makes duplicate delivery harmless. Two transports exist:
// an in-process bounded channel and a NATS queue group.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler processes one delivered job. A nil return acknowledges the job;
// an error schedules a retry with backoff until the attempt ceiling.
type Handler func(ctx context.Context, assetID uuid.UUID) error

// RetryPolicy bounds redelivery of failing jobs.
type RetryPolicy struct {
	// MaxAttempts is the total number of deliveries, first one included.
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; it doubles for
	// each attempt after that.
	BaseDelay time.Duration
}

// DefaultRetryPolicy matches the job submission contract: 3 attempts,
// exponential backoff starting at 5 seconds.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 5 * time.Second}

// Backoff returns the delay before the attempt following the given one.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// Exhausted reports whether a job that failed on the given attempt is out
// of retries.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

// job is the wire-level descriptor for one delivery.
type job struct {
	AssetID uuid.UUID `json:"asset_id"`
	Attempt int       `json:"attempt"`
}
