// Command healthcheck asks the bench API whether the device loop is ticking.
// It exits 0 when the device reports "ok" and prints the reason otherwise.
// It is meant for container health checks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const defaultAddr = "127.0.0.1:8080"

// health is the subset of the bench health response the check reads.
type health struct {
	Status       string `json:"status"`
	LastTick     string `json:"last_tick"`
	Locked       bool   `json:"locked"`
	HostAttached bool   `json:"host_attached"`
}

func main() {
	if err := check(normalizeAddr(os.Getenv("WPASS_BENCH_ADDR"))); err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		os.Exit(1)
	}
}

func check(addr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return err
	}

	resp, err := (&http.Client{Timeout: 2 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var h health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return fmt.Errorf("decode health response (HTTP %d): %w", resp.StatusCode, err)
	}
	if h.Status != "ok" || resp.StatusCode != http.StatusOK {
		if h.LastTick == "" {
			return errors.New("device loop has not started")
		}
		return fmt.Errorf("device loop %s, last tick %s", h.Status, h.LastTick)
	}
	return nil
}

// normalizeAddr ensures the healthcheck connects to loopback rather than the
// bind-all address.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
