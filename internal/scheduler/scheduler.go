package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/ids"
	"github.com/talgya/needs-world/internal/world"
)

// Scheduler runs batches of due worlds. Only one batch runs at a time.
type Scheduler struct {
	store    Store
	subs     Subsystems
	sinks    []EventSink
	eventIDs *ids.Sequence
	now      func() time.Time

	runMu sync.Mutex // held for the duration of a batch

	mu   sync.Mutex
	last *BatchStats
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithEventSinks adds destinations for generated events.
func WithEventSinks(sinks ...EventSink) Option {
	return func(s *Scheduler) { s.sinks = append(s.sinks, sinks...) }
}

// WithEventIDs sets the sequence used to number generated events.
func WithEventIDs(seq *ids.Sequence) Option {
	return func(s *Scheduler) { s.eventIDs = seq }
}

// New creates a scheduler over store driving subs.
func New(store Store, subs Subsystems, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		subs:     subs,
		eventIDs: ids.NewSequence(0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize stores opts as the scheduler record if none exists yet.
// An existing record is left untouched.
func (s *Scheduler) Initialize(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	_, err := s.store.LoadConfig(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, world.ErrNotFound) {
		return fmt.Errorf("load scheduler config: %w", err)
	}
	now := s.now()
	cfg := &Config{Options: opts, NextRun: now}
	if err := s.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save scheduler config: %w", err)
	}
	slog.Info("scheduler initialized", "batch_size", opts.BatchSize, "interval", opts.Interval())
	return nil
}

// Configure validates and stores new options, keeping run timestamps.
func (s *Scheduler) Configure(ctx context.Context, opts Options) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduler config: %w", err)
	}
	cfg.Options = opts
	if err := s.store.SaveConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save scheduler config: %w", err)
	}
	slog.Info("scheduler reconfigured", "enabled", opts.Enabled, "batch_size", opts.BatchSize,
		"budget", opts.Budget(), "interval", opts.Interval(), "workers", opts.Workers)
	return cfg, nil
}

// SetEnabled switches the scheduler on or off.
func (s *Scheduler) SetEnabled(ctx context.Context, enabled bool) error {
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load scheduler config: %w", err)
	}
	cfg.Enabled = enabled
	if err := s.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save scheduler config: %w", err)
	}
	slog.Info("scheduler toggled", "enabled", enabled)
	return nil
}

// Status is the scheduler's state as reported to operators.
type Status struct {
	Config        *Config     `json:"config"`
	TimeUntilNext string      `json:"time_until_next"`
	LastBatch     *BatchStats `json:"last_batch,omitempty"`
}

// Status reports the persisted record and the last batch run by this process.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load scheduler config: %w", err)
	}
	until := cfg.NextRun.Sub(s.now())
	if until < 0 {
		until = 0
	}
	st := Status{Config: cfg, TimeUntilNext: until.Round(time.Second).String()}
	s.mu.Lock()
	if s.last != nil {
		last := *s.last
		st.LastBatch = &last
	}
	s.mu.Unlock()
	return st, nil
}

// Due reports whether the next batch should run now.
func (s *Scheduler) Due(ctx context.Context) (bool, error) {
	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("load scheduler config: %w", err)
	}
	return cfg.Enabled && !cfg.NextRun.After(s.now()), nil
}

// RunBatch processes up to BatchSize due worlds within the time budget.
// Failures inside one world are logged and counted; only a missing or
// unreadable scheduler record, or a failure to list due worlds, fails the run.
func (s *Scheduler) RunBatch(ctx context.Context) (BatchStats, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	stats := BatchStats{RunID: uuid.NewString(), StartedAt: start}

	cfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return stats, fmt.Errorf("load scheduler config: %w", err)
	}
	if !cfg.Enabled {
		stats.Skipped = true
		slog.Debug("scheduler disabled, batch skipped", "run", stats.RunID)
		return stats, nil
	}

	due, err := s.store.DueWorlds(ctx, start)
	if err != nil {
		return stats, fmt.Errorf("list due worlds: %w", err)
	}
	stats.WorldsDue = len(due)
	if len(due) > int(cfg.BatchSize) {
		due = due[:cfg.BatchSize]
	}

	budget := cfg.Budget()
	overBudget := func() bool {
		return s.now().Sub(start) > budget
	}

	if cfg.Workers <= 1 {
		for _, w := range due {
			if ctx.Err() != nil || overBudget() {
				stats.TimedOut = true
				break
			}
			stats.add(s.processWorld(ctx, w, w.Speed.HoursPerTick()))
		}
	} else {
		var (
			g    errgroup.Group
			smu  sync.Mutex
			stop bool
		)
		g.SetLimit(cfg.Workers)
		for _, w := range due {
			if ctx.Err() != nil || overBudget() {
				stop = true
				break
			}
			w := w
			g.Go(func() error {
				ws := s.processWorld(ctx, w, w.Speed.HoursPerTick())
				smu.Lock()
				stats.add(ws)
				smu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		stats.TimedOut = stop
	}

	end := s.now()
	stats.ProcessingTimeMs = uint64(end.Sub(start).Milliseconds())

	cfg.LastRun = end
	cfg.NextRun = end.Add(cfg.Interval())
	if raw, err := json.Marshal(stats); err == nil {
		cfg.PerformanceStats = string(raw)
	}
	if err := s.store.SaveConfig(ctx, cfg); err != nil {
		return stats, fmt.Errorf("save scheduler config: %w", err)
	}

	s.mu.Lock()
	s.last = &stats
	s.mu.Unlock()

	level := slog.LevelInfo
	if stats.ErrorsEncountered > 0 || stats.TimedOut {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "scheduler batch complete",
		"run", stats.RunID,
		"due", stats.WorldsDue,
		"processed", stats.WorldsProcessed,
		"events", stats.EventsGenerated,
		"errors", stats.ErrorsEncountered,
		"timed_out", stats.TimedOut,
		"elapsed", time.Duration(stats.ProcessingTimeMs)*time.Millisecond,
	)
	return stats, nil
}

// AdvanceWorld runs one world's pipeline for the given number of hours
// outside the batch cadence. It waits for any running batch to finish.
func (s *Scheduler) AdvanceWorld(ctx context.Context, id world.WorldID, hours uint64) (BatchStats, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	stats := BatchStats{RunID: uuid.NewString(), StartedAt: start}
	w, err := s.store.GetWorld(ctx, id)
	if err != nil {
		return stats, err
	}
	stats.WorldsDue = 1
	stats.add(s.processWorld(ctx, w, hours))
	stats.ProcessingTimeMs = uint64(s.now().Sub(start).Milliseconds())
	slog.Info("world advanced manually", "world", id, "hours", hours, "events", stats.EventsGenerated, "errors", stats.ErrorsEncountered)
	return stats, nil
}

// SetSpeed changes a world's narrative speed. The world is rescheduled
// relative to now.
func (s *Scheduler) SetSpeed(ctx context.Context, id world.WorldID, speed world.NarrativeSpeed) (*world.World, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	w, err := s.store.GetWorld(ctx, id)
	if err != nil {
		return nil, err
	}
	w.Speed = speed
	w.NextDue = s.now().Add(speed.UpdateInterval())
	if err := s.store.SaveWorld(ctx, w); err != nil {
		return nil, fmt.Errorf("save world %d: %w", id, err)
	}
	slog.Info("world speed changed", "world", id, "speed", speed)
	return w, nil
}

// processWorld runs the full per-world pipeline. Every stage is isolated:
// an error or panic is logged, counted, and the next stage still runs.
func (s *Scheduler) processWorld(ctx context.Context, w *world.World, hours uint64) worldStats {
	var ws worldStats
	var events []engine.Event

	w.Advance(hours, s.now())
	daily := w.CrossedDay(hours)

	stage := func(name string, fn func() error) {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return fn()
		}()
		if err != nil {
			ws.errors++
			slog.Warn("world stage failed", "world", w.ID, "stage", name, "hour", w.TotalHours, "error", err)
		}
	}
	collect := func(category string, gen func() ([]engine.Event, error)) func() error {
		return func() error {
			evs, err := gen()
			ws.count(category, len(evs))
			events = append(events, evs...)
			return err
		}
	}

	if e := s.subs.Economy; e != nil {
		stage("economy.update", func() error { return e.UpdateMarkets(ctx, w) })
		stage("economy.events", collect(engine.CategoryEconomic, func() ([]engine.Event, error) { return e.GenerateEvents(ctx, w) }))
	}
	if p := s.subs.Politics; p != nil {
		stage("politics.update", func() error { return p.UpdateFactions(ctx, w) })
		stage("politics.events", collect(engine.CategoryPolitical, func() ([]engine.Event, error) { return p.GenerateEvents(ctx, w) }))
		stage("politics.resolve", collect(engine.CategoryPolitical, func() ([]engine.Event, error) { return p.ResolveEvents(ctx, w) }))
	}
	if env := s.subs.Environment; env != nil {
		stage("environment.update", func() error { return env.UpdateClimate(ctx, w) })
		stage("environment.events", collect(engine.CategoryNatural, func() ([]engine.Event, error) { return env.GenerateEvents(ctx, w) }))
		stage("environment.resolve", collect(engine.CategoryNatural, func() ([]engine.Event, error) { return env.ResolveEvents(ctx, w) }))
		if daily {
			stage("environment.seasonal", func() error { return env.UpdateSeasonal(ctx, w) })
		}
	}
	if a := s.subs.Agents; a != nil && hours > 0 {
		stage("agents.tick", func() error {
			sum, err := a.TickWorld(ctx, w.ID, hours)
			ws.agents = sum
			return err
		})
	}
	if ds := s.subs.Sync; ds != nil && daily {
		stage("sync", func() error { return ds.Sync(ctx, w) })
	}

	if len(events) > 0 {
		for i := range events {
			if events[i].ID == 0 {
				events[i].ID = s.eventIDs.Next()
			} else {
				s.eventIDs.Observe(events[i].ID)
			}
		}
		for _, sink := range s.sinks {
			stage("events.save", func() error { return sink.SaveEvents(ctx, events) })
		}
	}
	stage("world.save", func() error { return s.store.SaveWorld(ctx, w) })

	slog.Debug("world processed", "world", w.ID, "hour", w.TotalHours, "day", w.Day,
		"season", w.Season, "events", len(events), "errors", ws.errors)
	return ws
}
