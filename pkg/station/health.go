package station

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"groundlink/internal/httpc"
)

// Health probe cadence: one poll per second, up to 30 seconds, before
// the backend is declared unreachable.
const (
	HealthPollInterval = time.Second
	HealthWaitLimit    = 30 * time.Second
)

type healthStatus struct {
	Status            string `json:"status"`
	ActiveConnections int    `json:"active_connections"`
}

// WaitForBackend polls the health endpoint until the backend reports
// healthy, the wait limit passes, or ctx is cancelled.
func WaitForBackend(ctx context.Context, healthURL string) error {
	return waitForBackend(ctx, healthURL, HealthPollInterval, HealthWaitLimit)
}

func waitForBackend(ctx context.Context, healthURL string, interval, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if probeHealth(ctx, healthURL) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("station: backend unreachable: no healthy response from %s within %s", healthURL, limit)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func probeHealth(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var hs healthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return false
	}
	return hs.Status == "healthy"
}
