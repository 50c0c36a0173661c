// Package compactor runs the periodic housekeeping of the social store: expired friend
// rejections are purged and owners are told about stories that expired.
package compactor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/steemit/circlemind/pkg/logging"
	"github.com/steemit/circlemind/pkg/telemetry"
)

// Tasks is the work one compaction pass runs.
type Tasks interface {
	PurgeExpiredRejections(ctx context.Context) (int64, error)
	NotifyExpiredStories(ctx context.Context, since, until time.Time) (int, error)
}

// Compactor runs Tasks on a fixed interval
type Compactor struct {
	tasks    Tasks
	interval time.Duration
	now      func() time.Time
	since    time.Time
	logger   *zap.Logger
	runs     metric.Int64Counter
}

// Option configures a Compactor.
type Option func(*Compactor)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Compactor) { c.now = now }
}

// New creates a compactor. The first pass looks back one interval for expired stories.
func New(tasks Tasks, interval time.Duration, opts ...Option) *Compactor {
	c := &Compactor{
		tasks:    tasks,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logging.WithComponent("compactor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.since = c.now().Add(-interval)

	var err error
	if c.runs, err = telemetry.Meter().Int64Counter("circlemind.compactor.runs",
		metric.WithDescription("Compaction passes by outcome")); err != nil {
		c.logger.Warn("Failed to create run counter", zap.Error(err))
	}
	return c
}

// Run executes a pass immediately and then once per interval until ctx is cancelled.
func (c *Compactor) Run(ctx context.Context) error {
	c.logger.Info("Starting compactor", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.RunOnce(ctx); err != nil {
			// the next tick retries; the story window is only advanced on success
			c.logger.Error("Compaction pass failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single pass. Both tasks run even if the first fails; the first error is
// returned.
func (c *Compactor) RunOnce(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "compactor.run")
	defer span.End()
	logger := logging.FromContext(ctx, c.logger)

	var firstErr error
	purged, err := c.tasks.PurgeExpiredRejections(ctx)
	if err != nil {
		firstErr = err
		logger.Error("Failed to purge expired friend rejections", zap.Error(err))
	}

	until := c.now()
	expired, err := c.tasks.NotifyExpiredStories(ctx, c.since, until)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		logger.Error("Failed to notify expired stories", zap.Time("since", c.since), zap.Error(err))
	} else {
		c.since = until
	}

	outcome := "ok"
	if firstErr != nil {
		outcome = "error"
	}
	if c.runs != nil {
		c.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	logger.Info("Compaction pass finished",
		zap.Int64("purged_rejections", purged),
		zap.Int("expired_stories", expired),
		zap.String("outcome", outcome))
	return telemetry.RecordError(span, firstErr)
}
