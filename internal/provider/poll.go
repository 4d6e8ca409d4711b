package provider

import (
	"context"
	"time"
)

// PollConfig bounds a readiness poll. Each adapter carries its own
// attempts/interval pair; the interval is constant, no backoff is applied.
type PollConfig struct {
	Attempts int
	Interval time.Duration
}

// AwaitReady invokes describe up to cfg.Attempts times (including the
// first call), returning the first snapshot that satisfies ready without
// any extra delay. Between attempts it sleeps cfg.Interval, honoring
// context cancellation. Describe errors abort the poll immediately; only
// the status check is retried, never the create call that preceded it.
// An exhausted budget yields a ReadinessTimeoutError carrying the
// instance ID and the number of attempts made.
func AwaitReady(ctx context.Context, instanceID string, cfg PollConfig, describe func(context.Context) (*Instance, error), ready func(*Instance) bool) (*Instance, error) {
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		instance, err := describe(ctx)
		if err != nil {
			return nil, err
		}
		if ready(instance) {
			return instance, nil
		}
		if attempt == cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
	return nil, &ReadinessTimeoutError{InstanceID: instanceID, Attempts: cfg.Attempts}
}
