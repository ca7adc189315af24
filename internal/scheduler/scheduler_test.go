package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/ids"
	"github.com/talgya/needs-world/internal/world"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock advances by step every time it is read.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// recorder implements every subsystem port and logs calls per world.
type recorder struct {
	mu           sync.Mutex
	calls        map[world.WorldID][]string
	failPolitics world.WorldID
	panicEconomy world.WorldID
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[world.WorldID][]string)}
}

func (r *recorder) log(w *world.World, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[w.ID] = append(r.calls[w.ID], name)
}

func (r *recorder) callsFor(id world.WorldID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls[id]...)
}

func (r *recorder) UpdateMarkets(_ context.Context, w *world.World) error {
	r.log(w, "economy.update")
	if w.ID == r.panicEconomy {
		panic("market exploded")
	}
	return nil
}

type economyEvents struct{ *recorder }

func (e economyEvents) GenerateEvents(_ context.Context, w *world.World) ([]engine.Event, error) {
	e.log(w, "economy.events")
	return []engine.Event{engine.NewEvent(w.ID, w.TotalHours, engine.CategoryEconomic, "boom", "prices soar")}, nil
}

type politics struct{ *recorder }

func (p politics) UpdateFactions(_ context.Context, w *world.World) error {
	p.log(w, "politics.update")
	return nil
}

func (p politics) GenerateEvents(_ context.Context, w *world.World) ([]engine.Event, error) {
	p.log(w, "politics.events")
	if w.ID == p.failPolitics {
		return nil, errors.New("parliament on fire")
	}
	return nil, nil
}

func (p politics) ResolveEvents(_ context.Context, w *world.World) ([]engine.Event, error) {
	p.log(w, "politics.resolve")
	return nil, nil
}

type environment struct{ *recorder }

func (e environment) UpdateClimate(_ context.Context, w *world.World) error {
	e.log(w, "environment.update")
	return nil
}

func (e environment) GenerateEvents(_ context.Context, w *world.World) ([]engine.Event, error) {
	e.log(w, "environment.events")
	return []engine.Event{engine.NewEvent(w.ID, w.TotalHours, engine.CategoryNatural, "storm", "a storm")}, nil
}

func (e environment) ResolveEvents(_ context.Context, w *world.World) ([]engine.Event, error) {
	e.log(w, "environment.resolve")
	return nil, nil
}

func (e environment) UpdateSeasonal(_ context.Context, w *world.World) error {
	e.log(w, "environment.seasonal")
	return nil
}

type agentTicker struct{ *recorder }

func (a agentTicker) TickWorld(_ context.Context, id world.WorldID, elapsed uint64) (engine.TickSummary, error) {
	a.log(&world.World{ID: id}, "agents.tick")
	return engine.TickSummary{WorldID: id, HoursAdvanced: elapsed, Movements: 2, Actions: 3}, nil
}

type syncer struct{ *recorder }

func (s syncer) Sync(_ context.Context, w *world.World) error {
	s.log(w, "sync")
	return nil
}

func subsystems(r *recorder) Subsystems {
	return Subsystems{
		Economy:     economyEvents{r},
		Politics:    politics{r},
		Environment: environment{r},
		Agents:      agentTicker{r},
		Sync:        syncer{r},
	}
}

func dueWorlds(n int, speed world.NarrativeSpeed) []*world.World {
	var out []*world.World
	for i := 1; i <= n; i++ {
		out = append(out, &world.World{
			ID:      world.WorldID(i),
			Name:    "w",
			Active:  true,
			Speed:   speed,
			NextDue: epoch.Add(-time.Duration(n-i+1) * time.Minute),
		})
	}
	return out
}

func newScheduler(t *testing.T, store *MemoryStore, r *recorder, opts Options, clock *fakeClock) *Scheduler {
	t.Helper()
	s := New(store, subsystems(r), WithClock(clock.Now), WithEventSinks(store))
	require.NoError(t, s.Initialize(context.Background(), opts))
	return s
}

func TestBatchSizeLimitsProcessedWorlds(t *testing.T) {
	store := NewMemoryStore(dueWorlds(5, world.SpeedNormal)...)
	opts := DefaultOptions()
	opts.BatchSize = 2
	s := newScheduler(t, store, newRecorder(), opts, &fakeClock{now: epoch})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.WorldsDue)
	assert.Equal(t, uint32(2), stats.WorldsProcessed)
	assert.Zero(t, stats.ErrorsEncountered)
	assert.False(t, stats.TimedOut)
	assert.NotEmpty(t, stats.RunID)

	original := dueWorlds(5, world.SpeedNormal)
	for _, w := range original {
		got, err := store.GetWorld(context.Background(), w.ID)
		require.NoError(t, err)
		if w.ID <= 2 {
			assert.Equal(t, uint64(24), got.TotalHours, "world %d advanced", w.ID)
			assert.True(t, got.NextDue.After(epoch))
		} else {
			assert.Equal(t, uint64(0), got.TotalHours, "world %d untouched", w.ID)
			assert.Equal(t, w.NextDue, got.NextDue, "world %d next_due unchanged", w.ID)
		}
	}

	due, err := store.DueWorlds(context.Background(), epoch)
	require.NoError(t, err)
	assert.Len(t, due, 3)
}

func TestFailingWorldDoesNotAbortBatch(t *testing.T) {
	store := NewMemoryStore(dueWorlds(2, world.SpeedNormal)...)
	r := newRecorder()
	r.failPolitics = 1
	s := newScheduler(t, store, r, DefaultOptions(), &fakeClock{now: epoch})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stats.WorldsProcessed)
	assert.Equal(t, uint32(1), stats.ErrorsEncountered)

	// The failing world still ran every later stage.
	assert.Contains(t, r.callsFor(1), "agents.tick")
	assert.Contains(t, r.callsFor(1), "environment.resolve")
	assert.Contains(t, r.callsFor(2), "agents.tick")
}

func TestPanickingStageIsContained(t *testing.T) {
	store := NewMemoryStore(dueWorlds(2, world.SpeedSlow)...)
	r := newRecorder()
	r.panicEconomy = 2
	s := newScheduler(t, store, r, DefaultOptions(), &fakeClock{now: epoch})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stats.WorldsProcessed)
	assert.Equal(t, uint32(1), stats.ErrorsEncountered)
	assert.Contains(t, r.callsFor(2), "agents.tick")
}

func TestStageOrderAndDailyStages(t *testing.T) {
	store := NewMemoryStore(dueWorlds(1, world.SpeedNormal)...)
	r := newRecorder()
	s := newScheduler(t, store, r, DefaultOptions(), &fakeClock{now: epoch})

	_, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"economy.update", "economy.events",
		"politics.update", "politics.events", "politics.resolve",
		"environment.update", "environment.events", "environment.resolve",
		"environment.seasonal",
		"agents.tick",
		"sync",
	}, r.callsFor(1))
}

func TestSlowWorldSkipsDailyStagesOffBoundary(t *testing.T) {
	store := NewMemoryStore(dueWorlds(1, world.SpeedSlow)...)
	r := newRecorder()
	s := newScheduler(t, store, r, DefaultOptions(), &fakeClock{now: epoch})

	_, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	calls := r.callsFor(1)
	assert.NotContains(t, calls, "environment.seasonal")
	assert.NotContains(t, calls, "sync")

	w, _ := store.GetWorld(context.Background(), 1)
	assert.Equal(t, uint64(1), w.TotalHours)
}

func TestEventCountsAndSink(t *testing.T) {
	store := NewMemoryStore(dueWorlds(3, world.SpeedFast)...)
	s := newScheduler(t, store, newRecorder(), DefaultOptions(), &fakeClock{now: epoch})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stats.EconomicEvents)
	assert.Equal(t, uint32(3), stats.NaturalEvents)
	assert.Equal(t, uint32(6), stats.EventsGenerated)
	assert.Equal(t, 6, stats.AgentMovements)

	events, err := store.RecentEvents(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.NotZero(t, events[0].ID)
	assert.Equal(t, uint64(168), events[0].Hour)
}

func TestBudgetStopsBatchEarly(t *testing.T) {
	store := NewMemoryStore(dueWorlds(5, world.SpeedNormal)...)
	opts := DefaultOptions()
	opts.MaxProcessingTimeMs = 1000
	// Each clock read moves 300ms forward.
	s := newScheduler(t, store, newRecorder(), opts, &fakeClock{now: epoch, step: 300 * time.Millisecond})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.TimedOut)
	assert.Less(t, stats.WorldsProcessed, uint32(5))
	assert.Positive(t, stats.WorldsProcessed)
}

func TestDisabledSchedulerSkips(t *testing.T) {
	store := NewMemoryStore(dueWorlds(3, world.SpeedNormal)...)
	r := newRecorder()
	opts := DefaultOptions()
	opts.Enabled = false
	s := newScheduler(t, store, r, opts, &fakeClock{now: epoch})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Zero(t, stats.WorldsProcessed)
	assert.Empty(t, r.callsFor(1))

	require.NoError(t, s.SetEnabled(context.Background(), true))
	stats, err = s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stats.WorldsProcessed)
}

func TestMissingConfigIsFatal(t *testing.T) {
	s := New(NewMemoryStore(), Subsystems{})
	_, err := s.RunBatch(context.Background())
	require.ErrorIs(t, err, world.ErrNotFound)
}

func TestOldestDueFirst(t *testing.T) {
	worlds := dueWorlds(3, world.SpeedNormal)
	// World 3 has waited longest.
	worlds[2].NextDue = epoch.Add(-time.Hour)
	store := NewMemoryStore(worlds...)
	opts := DefaultOptions()
	opts.BatchSize = 1
	r := newRecorder()
	s := newScheduler(t, store, r, opts, &fakeClock{now: epoch})

	_, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, r.callsFor(3))
	assert.Empty(t, r.callsFor(1))
}

func TestRunPersistsConfigAndStats(t *testing.T) {
	store := NewMemoryStore(dueWorlds(1, world.SpeedNormal)...)
	clock := &fakeClock{now: epoch}
	s := newScheduler(t, store, newRecorder(), DefaultOptions(), clock)

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)

	cfg, err := store.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.LastRun.IsZero())
	assert.Equal(t, cfg.LastRun.Add(cfg.Interval()), cfg.NextRun)

	var saved BatchStats
	require.NoError(t, json.Unmarshal([]byte(cfg.PerformanceStats), &saved))
	assert.Equal(t, stats.RunID, saved.RunID)

	due, err := s.Due(context.Background())
	require.NoError(t, err)
	assert.False(t, due)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.LastBatch)
	assert.Equal(t, stats.RunID, st.LastBatch.RunID)
}

func TestParallelWorkers(t *testing.T) {
	store := NewMemoryStore(dueWorlds(8, world.SpeedNormal)...)
	opts := DefaultOptions()
	opts.Workers = 4
	r := newRecorder()
	s := newScheduler(t, store, r, opts, &fakeClock{now: epoch})

	stats, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(8), stats.WorldsProcessed)
	for i := 1; i <= 8; i++ {
		assert.Len(t, r.callsFor(world.WorldID(i)), 11)
	}
}

func TestConfigureValidates(t *testing.T) {
	store := NewMemoryStore()
	s := newScheduler(t, store, newRecorder(), DefaultOptions(), &fakeClock{now: epoch})

	bad := DefaultOptions()
	bad.BatchSize = 0
	_, err := s.Configure(context.Background(), bad)
	require.ErrorIs(t, err, ErrInvalidConfig)

	good := DefaultOptions()
	good.BatchSize = 3
	cfg, err := s.Configure(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.BatchSize)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	for name, mutate := range map[string]func(*Options){
		"batch":    func(o *Options) { o.BatchSize = 0 },
		"budget":   func(o *Options) { o.MaxProcessingTimeMs = 0 },
		"interval": func(o *Options) { o.RunIntervalMs = 0 },
		"workers":  func(o *Options) { o.Workers = -1 },
	} {
		o := DefaultOptions()
		mutate(&o)
		assert.ErrorIs(t, o.Validate(), ErrInvalidConfig, name)
	}
}

func TestAdvanceWorldRunsPipelineForHours(t *testing.T) {
	worlds := dueWorlds(2, world.SpeedPaused)
	store := NewMemoryStore(worlds...)
	r := newRecorder()
	s := newScheduler(t, store, r, DefaultOptions(), &fakeClock{now: epoch})

	stats, err := s.AdvanceWorld(context.Background(), 2, 24)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.WorldsProcessed)
	assert.Contains(t, r.callsFor(2), "agents.tick")
	assert.Contains(t, r.callsFor(2), "environment.seasonal")
	assert.Empty(t, r.callsFor(1))

	w, err := store.GetWorld(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(24), w.TotalHours)

	_, err = s.AdvanceWorld(context.Background(), 99, 1)
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestSetSpeedReschedules(t *testing.T) {
	store := NewMemoryStore(dueWorlds(1, world.SpeedPaused)...)
	clock := &fakeClock{now: epoch}
	s := newScheduler(t, store, newRecorder(), DefaultOptions(), clock)

	due, err := store.DueWorlds(context.Background(), epoch)
	require.NoError(t, err)
	assert.Empty(t, due, "paused worlds are never due")

	w, err := s.SetSpeed(context.Background(), 1, world.SpeedFast)
	require.NoError(t, err)
	assert.Equal(t, world.SpeedFast, w.Speed)
	assert.Equal(t, epoch.Add(world.SpeedFast.UpdateInterval()), w.NextDue)

	due, err = store.DueWorlds(context.Background(), w.NextDue)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestDailyStagesSurviveMisalignedManualTick(t *testing.T) {
	store := NewMemoryStore(dueWorlds(1, world.SpeedNormal)...)
	r := newRecorder()
	clock := &fakeClock{now: epoch}
	s := newScheduler(t, store, r, DefaultOptions(), clock)
	ctx := context.Background()

	_, err := s.AdvanceWorld(ctx, 1, 5)
	require.NoError(t, err)
	assert.NotContains(t, r.callsFor(1), "environment.seasonal")

	for i := 0; i < 3; i++ {
		clock.mu.Lock()
		clock.now = clock.now.Add(time.Hour)
		clock.mu.Unlock()
		_, err := s.RunBatch(ctx)
		require.NoError(t, err)
	}

	w, err := store.GetWorld(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5+3*24), w.TotalHours)

	var seasonal, synced int
	for _, c := range r.callsFor(1) {
		switch c {
		case "environment.seasonal":
			seasonal++
		case "sync":
			synced++
		}
	}
	assert.Equal(t, 3, seasonal)
	assert.Equal(t, 3, synced)
}

type numberedEconomy struct{ economyEvents }

func (e numberedEconomy) GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error) {
	evs, err := e.economyEvents.GenerateEvents(ctx, w)
	for i := range evs {
		evs[i].ID = 500
	}
	return evs, err
}

func TestPresetEventIDsAreNeverReissued(t *testing.T) {
	store := NewMemoryStore(dueWorlds(1, world.SpeedNormal)...)
	r := newRecorder()
	subs := subsystems(r)
	subs.Economy = numberedEconomy{economyEvents{r}}
	seq := ids.NewSequence(0)
	s := New(store, subs, WithClock((&fakeClock{now: epoch}).Now), WithEventSinks(store), WithEventIDs(seq))
	require.NoError(t, s.Initialize(context.Background(), DefaultOptions()))

	_, err := s.RunBatch(context.Background())
	require.NoError(t, err)

	events, err := store.RecentEvents(context.Background(), 1, 10)
	require.NoError(t, err)
	var got []uint64
	for _, e := range events {
		got = append(got, e.ID)
	}
	assert.ElementsMatch(t, []uint64{500, 501}, got)
	assert.Equal(t, uint64(501), seq.Last())
}
