package economy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/needs-world/internal/world"
)

// Syncer pushes a daily market report for each world to an HTTP endpoint.
type Syncer struct {
	svc      *Service
	endpoint string
	client   *http.Client
}

// NewSyncer creates a syncer. Returns nil if endpoint is empty.
func NewSyncer(svc *Service, endpoint string) *Syncer {
	if endpoint == "" {
		return nil
	}
	return &Syncer{
		svc:      svc,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Report is the payload sent for one world.
type Report struct {
	WorldID world.WorldID `json:"world_id"`
	Name    string        `json:"name"`
	Hour    uint64        `json:"hour"`
	Day     uint16        `json:"day"`
	Cycle   uint32        `json:"cycle"`
	Season  string        `json:"season"`
	Market  *Market       `json:"market"`
}

// Sync posts the world's market report.
func (s *Syncer) Sync(ctx context.Context, w *world.World) error {
	report := Report{
		WorldID: w.ID,
		Name:    w.Name,
		Hour:    w.TotalHours,
		Day:     w.Day,
		Cycle:   w.Cycle,
		Season:  w.Season.String(),
		Market:  s.svc.Snapshot(w.ID),
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post report: status %d", resp.StatusCode)
	}
	return nil
}
