package engine

import "github.com/talgya/needs-world/internal/agents"

// maxJournal caps each kind of buffered domain event per world.
const maxJournal = 2000

// Journal buffers the domain events a world's agents emit until a consumer
// drains them. When a buffer is full the oldest entries are dropped; the
// counters keep running totals regardless.
type Journal struct {
	Movements    []agents.MovementEvent        `json:"movements"`
	Fulfillments []agents.NeedFulfillmentEvent `json:"fulfillments"`
	Work         []agents.WorkEvent            `json:"work"`

	TotalMovements    uint64  `json:"total_movements"`
	TotalFulfillments uint64  `json:"total_fulfillments"`
	TotalShifts       uint64  `json:"total_shifts"`
	TotalWages        float64 `json:"total_wages"`
	TotalResources    float64 `json:"total_resources"`
}

func (j *Journal) Moved(e agents.MovementEvent) {
	j.Movements = appendCapped(j.Movements, e)
	j.TotalMovements++
}

func (j *Journal) Fulfilled(e agents.NeedFulfillmentEvent) {
	j.Fulfillments = appendCapped(j.Fulfillments, e)
	j.TotalFulfillments++
}

func (j *Journal) Worked(e agents.WorkEvent) {
	j.Work = appendCapped(j.Work, e)
	j.TotalShifts++
	j.TotalWages += e.Wage
	j.TotalResources += e.ResourcesProduced
}

// drain returns the buffered events and clears the buffers.
func (j *Journal) drain() Journal {
	out := Journal{
		Movements:         j.Movements,
		Fulfillments:      j.Fulfillments,
		Work:              j.Work,
		TotalMovements:    j.TotalMovements,
		TotalFulfillments: j.TotalFulfillments,
		TotalShifts:       j.TotalShifts,
		TotalWages:        j.TotalWages,
		TotalResources:    j.TotalResources,
	}
	j.Movements, j.Fulfillments, j.Work = nil, nil, nil
	return out
}

func appendCapped[T any](s []T, v T) []T {
	if len(s) >= maxJournal {
		s = s[1:]
	}
	return append(s, v)
}
