// Package scheduler advances many worlds in bounded batches. Each run
// picks the worlds that are due, advances their clocks, and drives the
// economic, political, environmental, and agent subsystems for each.
package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for zero batch sizes, budgets, or intervals.
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// Options is the scheduler's tunable configuration.
type Options struct {
	Enabled             bool   `yaml:"enabled" json:"enabled"`
	BatchSize           uint32 `yaml:"batch_size" json:"batch_size"`
	MaxProcessingTimeMs uint64 `yaml:"max_processing_time_ms" json:"max_processing_time_ms"`
	RunIntervalMs       uint64 `yaml:"run_interval_ms" json:"run_interval_ms"`
	// Workers is how many worlds may be processed at once. 0 or 1 is sequential.
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		Enabled:             true,
		BatchSize:           10,
		MaxProcessingTimeMs: 30_000,
		RunIntervalMs:       300_000,
		Workers:             1,
	}
}

// Validate rejects configurations the scheduler cannot run with.
func (o Options) Validate() error {
	if o.BatchSize == 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	}
	if o.MaxProcessingTimeMs == 0 {
		return fmt.Errorf("%w: max_processing_time_ms must be positive", ErrInvalidConfig)
	}
	if o.RunIntervalMs == 0 {
		return fmt.Errorf("%w: run_interval_ms must be positive", ErrInvalidConfig)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Budget is the wall-clock limit of one batch.
func (o Options) Budget() time.Duration {
	return time.Duration(o.MaxProcessingTimeMs) * time.Millisecond
}

// Interval is the delay between batches.
func (o Options) Interval() time.Duration {
	return time.Duration(o.RunIntervalMs) * time.Millisecond
}

// Config is the persisted scheduler record.
type Config struct {
	Options
	LastRun time.Time `json:"last_run"`
	NextRun time.Time `json:"next_run"`
	// PerformanceStats holds the JSON-encoded stats of the last batch.
	PerformanceStats string `json:"performance_stats,omitempty"`
}
