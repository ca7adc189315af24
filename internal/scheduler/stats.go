package scheduler

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/needs-world/internal/engine"
)

// BatchStats summarises one scheduler run.
type BatchStats struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Skipped   bool      `json:"skipped,omitempty"` // scheduler disabled
	TimedOut  bool      `json:"timed_out,omitempty"`

	WorldsDue         int    `json:"worlds_due"`
	WorldsProcessed   uint32 `json:"worlds_processed"`
	EventsGenerated   uint32 `json:"events_generated"`
	EconomicEvents    uint32 `json:"economic_events"`
	PoliticalEvents   uint32 `json:"political_events"`
	NaturalEvents     uint32 `json:"natural_events"`
	ErrorsEncountered uint32 `json:"errors_encountered"`
	ProcessingTimeMs  uint64 `json:"processing_time_ms"`

	AgentMovements int `json:"agent_movements"`
	AgentActions   int `json:"agent_actions"`
	NeedsUnmet     int `json:"needs_unmet"`
}

// worldStats is the outcome of processing one world.
type worldStats struct {
	economic, political, natural uint32
	errors                       uint32
	agents                       engine.TickSummary
}

func (ws *worldStats) count(category string, n int) {
	switch category {
	case engine.CategoryEconomic:
		ws.economic += uint32(n)
	case engine.CategoryPolitical:
		ws.political += uint32(n)
	case engine.CategoryNatural:
		ws.natural += uint32(n)
	}
}

func (b *BatchStats) add(ws worldStats) {
	b.WorldsProcessed++
	b.EconomicEvents += ws.economic
	b.PoliticalEvents += ws.political
	b.NaturalEvents += ws.natural
	b.EventsGenerated += ws.economic + ws.political + ws.natural
	b.ErrorsEncountered += ws.errors
	b.AgentMovements += ws.agents.Movements
	b.AgentActions += ws.agents.Actions
	b.NeedsUnmet += ws.agents.NeedsUnmet
}

func (b BatchStats) String() string {
	return fmt.Sprintf("%d/%d worlds, %s events, %d errors in %s",
		b.WorldsProcessed, b.WorldsDue, humanize.Comma(int64(b.EventsGenerated)),
		b.ErrorsEncountered, time.Duration(b.ProcessingTimeMs)*time.Millisecond)
}
