// Package mirror discovers and queries OPNsense package mirrors.
//
// It covers three concerns: probing URLs for existence (read-only, short
// timeouts, no retries), locating the mirror base URL for this appliance,
// and extracting exact package versions from a branch's repository
// catalog.
package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Probe fetches mirror URLs for read-only discovery. Implementations use
// short timeouts and no retries; an unreachable mirror must fail fast, not
// hang version detection.
type Probe interface {
	// Exists reports whether the URL answers HTTP 200.
	Exists(ctx context.Context, url string) bool
	// Fetch returns the body of the URL.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPProbe is the production Probe.
type HTTPProbe struct {
	client *http.Client
}

// NewHTTPProbe creates a Probe with the given per-request timeout.
func NewHTTPProbe(timeout time.Duration) *HTTPProbe {
	return &HTTPProbe{client: &http.Client{Timeout: timeout}}
}

// Exists implements Probe.
func (p *HTTPProbe) Exists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Fetch implements Probe.
func (p *HTTPProbe) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}
