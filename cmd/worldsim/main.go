// Command worldsim runs the multi-world needs simulation: it seeds or
// restores worlds, serves the HTTP API, and runs scheduler batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/needs-world/internal/agents"
	"github.com/talgya/needs-world/internal/api"
	"github.com/talgya/needs-world/internal/config"
	"github.com/talgya/needs-world/internal/economy"
	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/entropy"
	"github.com/talgya/needs-world/internal/ids"
	"github.com/talgya/needs-world/internal/persistence"
	"github.com/talgya/needs-world/internal/scheduler"
	"github.com/talgya/needs-world/internal/social"
	"github.com/talgya/needs-world/internal/weather"
	"github.com/talgya/needs-world/internal/world"
)

// pollInterval is how often the main loop asks the scheduler whether a batch is due.
const pollInterval = time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		slog.Error("worldsim stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	floors, err := db.MaxIDs(ctx)
	if err != nil {
		return err
	}
	worldSeq := ids.NewSequence(floors.World)
	locSeq := ids.NewSequence(floors.Location)
	agentSeq := ids.NewSequence(floors.Agent)
	eventSeq := ids.NewSequence(floors.Event)

	// ── Load or Seed Worlds ──────────────────────────────────────────
	registry := engine.NewRegistry()
	worlds, err := db.LoadWorlds(ctx)
	if err != nil {
		return err
	}
	if len(worlds) == 0 {
		slog.Info("no worlds found, seeding", "count", cfg.Worlds.Count, "agents_per_world", cfg.Worlds.AgentsPerWorld)
		worlds, err = seedWorlds(ctx, db, registry, cfg, worldSeq, locSeq, agentSeq)
		if err != nil {
			return err
		}
	} else {
		for _, w := range worlds {
			sim, err := db.LoadSimulation(ctx, w)
			if err != nil {
				return fmt.Errorf("restore world %d: %w", w.ID, err)
			}
			registry.Add(sim)
			slog.Info("world restored", "world", w, "agents", len(sim.Agents), "locations", sim.Locations.Len())
		}
	}

	// ── Subsystems ───────────────────────────────────────────────────
	streams := entropy.NewStreams(cfg.Seed)
	econ := economy.NewService(streams, registry)
	var critical entropy.Source
	if rc := entropy.NewClient(cfg.Entropy.RandomOrgKey); rc != nil {
		critical = rc
	}
	subs := scheduler.Subsystems{
		Economy:     econ,
		Politics:    social.NewService(streams, critical),
		Environment: weather.NewService(streams, weather.NewClient(cfg.Weather.APIKey, cfg.Weather.Location)),
		Agents:      registry,
	}
	if syncer := economy.NewSyncer(econ, cfg.Economy.SyncURL); syncer != nil {
		subs.Sync = syncer
	}
	if cfg.Weather.APIKey == "" {
		slog.Info("weather API key not set, climate runs on simulation only")
	}

	sched := scheduler.New(db, subs,
		scheduler.WithEventSinks(db, registry),
		scheduler.WithEventIDs(eventSeq),
	)
	if err := sched.Initialize(ctx, cfg.Scheduler); err != nil {
		return fmt.Errorf("initialize scheduler: %w", err)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("WORLDSIM_ADMIN_KEY not set, admin endpoints will be disabled")
	}
	apiServer := &api.Server{
		Worlds:      db,
		Sims:        registry,
		Scheduler:   sched,
		Port:        cfg.API.Port,
		AdminKey:    cfg.API.AdminKey,
		CORSOrigins: cfg.API.CORSOrigins,
	}
	apiServer.Start()

	var population int
	for _, id := range registry.Worlds() {
		if sim, err := registry.Get(id); err == nil {
			population += len(sim.Agents)
		}
	}
	fmt.Printf("\n%s agents are living across %d worlds.\n", humanize.Comma(int64(population)), len(worlds))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)

	// ── Poll Loop ────────────────────────────────────────────────────
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("API shutdown", "error", err)
			}
			saveAll(shutdownCtx, db, registry)
			fmt.Println("Simulation stopped. World state saved.")
			return nil

		case <-ticker.C:
			due, err := sched.Due(ctx)
			if err != nil {
				slog.Error("scheduler check failed", "error", err)
				continue
			}
			if !due {
				continue
			}
			stats, err := sched.RunBatch(ctx)
			if err != nil {
				slog.Error("scheduler batch failed", "error", err)
				continue
			}
			if stats.WorldsProcessed > 0 {
				slog.Info("batch", "summary", stats.String())
				saveAll(ctx, db, registry)
			}
		}
	}
}

// seedWorlds creates the configured number of worlds with generated
// locations and a spawned population, and saves them.
func seedWorlds(ctx context.Context, db *persistence.DB, registry *engine.Registry, cfg config.Config,
	worldSeq, locSeq, agentSeq *ids.Sequence) ([]*world.World, error) {

	speed, err := world.ParseSpeed(cfg.Worlds.Speed)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	now := time.Now()

	var out []*world.World
	for i := 0; i < cfg.Worlds.Count; i++ {
		climate := world.ClimateTemperate
		if n := len(cfg.Worlds.Climates); n > 0 {
			if climate, err = world.ParseClimate(cfg.Worlds.Climates[i%n]); err != nil {
				return nil, err
			}
		}

		id := world.WorldID(worldSeq.Next())
		w := &world.World{
			ID:      id,
			Name:    worldName(rng),
			Active:  true,
			Speed:   speed,
			Climate: climate,
			Seed:    rng.Int63(),
			NextDue: now,
		}
		w.Day, w.Cycle, w.Season = world.CalendarAt(0)

		gen := cfg.Worlds.Locations
		gen.Seed = w.Seed
		catalog := world.NewCatalog(world.GenerateLocations(id, gen, locSeq.Next))
		pop := agents.NewSpawner(w.Seed, agentSeq).SpawnPopulation(id, cfg.Worlds.AgentsPerWorld, catalog, 0)
		w.Population = uint32(len(pop))

		sim := engine.NewSimulation(id, 0, pop, catalog)
		registry.Add(sim)

		if err := db.SaveWorld(ctx, w); err != nil {
			return nil, err
		}
		if err := db.SaveSimulation(ctx, sim.Snapshot()); err != nil {
			return nil, fmt.Errorf("save world %d: %w", id, err)
		}
		slog.Info("world seeded", "world", w, "climate", climate, "locations", catalog.Len(), "agents", len(pop))
		out = append(out, w)
	}
	return out, nil
}

func saveAll(ctx context.Context, db *persistence.DB, registry *engine.Registry) {
	for _, id := range registry.Worlds() {
		sim, err := registry.Get(id)
		if err != nil {
			continue
		}
		if err := db.SaveSimulation(ctx, sim.Snapshot()); err != nil {
			slog.Error("save simulation failed", "world", id, "error", err)
		}
	}
}

var (
	namePrefixes = []string{"Ash", "Bright", "Cold", "Elder", "Fair", "Green", "High", "Iron", "Long", "Stone"}
	nameSuffixes = []string{"ford", "haven", "mere", "vale", "wick", "moor", "field", "hollow"}
)

func worldName(rng *rand.Rand) string {
	return namePrefixes[rng.Intn(len(namePrefixes))] + nameSuffixes[rng.Intn(len(nameSuffixes))]
}
