// Package entropy supplies the randomness subsystems draw on: seeded
// per-world streams for ordinary rolls, and an optional random.org pool
// for rare high-impact events. Both fall back to crypto/rand.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

const defaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// Client provides true random numbers from random.org with a local pool.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []float64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Float64 returns a random float64 in [0, 1). Uses the pool, refilling from
// random.org when low. Falls back to crypto/rand on API failure or a nil client.
func (c *Client) Float64() float64 {
	if c == nil {
		return CryptoFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < 10 {
		if err := c.refill(context.Background()); err != nil {
			slog.Debug("random.org refill failed", "error", err)
		}
	}

	if len(c.pool) == 0 {
		return CryptoFloat()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

func (c *Client) refill(ctx context.Context) error {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        c.apiKey,
			"n":             100,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("api: %s", result.Error.Message)
	}

	c.pool = append(c.pool, result.Result.Random.Data...)
	slog.Debug("random.org pool refilled", "count", len(result.Result.Random.Data))
	return nil
}

// CryptoFloat returns a random float in [0, 1) from crypto/rand.
func CryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// CryptoSeed returns a random int64 seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
