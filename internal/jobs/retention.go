// Package jobs provides background jobs for gpt-bot.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DeliveryPruner deletes delivery log rows older than a cutoff
type DeliveryPruner interface {
	DeleteOldDeliveries(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RetentionConfig configures the retention job
type RetentionConfig struct {
	// Retention is how long deliveries are kept
	Retention time.Duration

	// Interval between runs when started with Start
	Interval time.Duration

	Logger *slog.Logger
}

// DefaultRetentionConfig keeps 30 days of deliveries and prunes daily
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Retention: 30 * 24 * time.Hour,
		Interval:  24 * time.Hour,
	}
}

// RetentionResult contains the results of one run
type RetentionResult struct {
	Deleted  int64
	Duration time.Duration
}

// RetentionJob keeps the delivery log bounded
type RetentionJob struct {
	store  DeliveryPruner
	config RetentionConfig
}

// NewRetentionJob creates a job. Zero durations take the defaults.
func NewRetentionJob(store DeliveryPruner, config RetentionConfig) *RetentionJob {
	defaults := DefaultRetentionConfig()
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RetentionJob{store: store, config: config}
}

// Run prunes once
func (j *RetentionJob) Run(ctx context.Context) (*RetentionResult, error) {
	start := time.Now()

	deleted, err := j.store.DeleteOldDeliveries(ctx, j.config.Retention)
	if err != nil {
		return nil, fmt.Errorf("pruning deliveries: %w", err)
	}

	result := &RetentionResult{Deleted: deleted, Duration: time.Since(start)}
	j.config.Logger.Info("delivery retention completed",
		"deleted", result.Deleted,
		"retention", j.config.Retention,
		"duration", result.Duration,
	)
	return result, nil
}

// Start runs the job immediately and then every Interval until ctx is
// cancelled. Failed runs are logged and retried on the next tick.
func (j *RetentionJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.config.Logger.Warn("delivery retention failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
