// Package health exposes readiness checks for the upstream provider and this
// process's own HTTP surface, plus the Prometheus metrics registry served at
// /metrics. Grounded on the teacher's internal/health/health.go
// CheckProvider/CheckEndpoints shape, generalized from HDHomeRun's
// discover/lineup/guide endpoints to this repo's get.php/xmltv.php/epg.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CheckProvider issues a GET against the upstream M3U/Xtream base and
// reports whether it responded with 200.
func CheckProvider(ctx context.Context, providerURL string) error {
	if providerURL == "" {
		return fmt.Errorf("no provider URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, providerURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// CheckEndpoints hits this process's own get.php, xmltv.php and epg routes
// and returns the first error or nil, distinguishing "the process is up"
// from "the process can actually serve its three surfaces". The /healthz
// handler does not call it.
func CheckEndpoints(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{"/get.php", "/xmltv.php", "/epg"} {
		url := baseURL + path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resp.Body.Close()
		// Endpoints may legitimately 400 on a HEAD-less probe request (missing
		// username/target); only a transport failure or 5xx counts as unhealthy.
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
