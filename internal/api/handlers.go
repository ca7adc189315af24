package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/scheduler"
	"github.com/talgya/needs-world/internal/world"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Scheduler.Status(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type worldSummary struct {
	*world.World
	SpeedName   string `json:"speed_name"`
	SeasonName  string `json:"season_name"`
	ClimateName string `json:"climate_name"`
}

func summarize(w *world.World) worldSummary {
	return worldSummary{
		World:       w,
		SpeedName:   w.Speed.String(),
		SeasonName:  w.Season.String(),
		ClimateName: w.Climate.String(),
	}
}

func (s *Server) handleWorlds(w http.ResponseWriter, r *http.Request) {
	worlds, err := s.Worlds.LoadWorlds(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]worldSummary, len(worlds))
	for i, wd := range worlds {
		out[i] = summarize(wd)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	id, err := worldID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wd, err := s.Worlds.GetWorld(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := map[string]any{"world": summarize(wd)}
	if sim, err := s.Sims.Get(id); err == nil {
		resp["stats"] = sim.Snapshot().Stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (engine.Snapshot, bool) {
	id, err := worldID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return engine.Snapshot{}, false
	}
	sim, err := s.Sims.Get(id)
	if err != nil {
		writeErr(w, err)
		return engine.Snapshot{}, false
	}
	return sim.Snapshot(), true
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Agents)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Locations)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := worldID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if _, err := s.Worlds.GetWorld(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	events, err := s.Worlds.RecentEvents(r.Context(), id, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	id, err := worldID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Speed string `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	speed, err := world.ParseSpeed(req.Speed)
	if err != nil || req.Speed == "" {
		writeError(w, http.StatusBadRequest, "speed must be one of paused, slow, normal, fast")
		return
	}
	wd, err := s.Scheduler.SetSpeed(r.Context(), id, speed)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(wd))
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	id, err := worldID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Hours uint64 `json:"hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Hours == 0 || req.Hours > maxManualHours {
		writeError(w, http.StatusBadRequest, "hours must be between 1 and "+strconv.Itoa(maxManualHours))
		return
	}
	stats, err := s.Scheduler.AdvanceWorld(r.Context(), id, req.Hours)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Scheduler.RunBatch(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var opts scheduler.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	cfg, err := s.Scheduler.Configure(r.Context(), opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
		return
	}
	if err := s.Scheduler.SetEnabled(r.Context(), *req.Enabled); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
}
