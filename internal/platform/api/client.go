// Package api is a thin client for the appliance's administrative REST
// API. It wraps the firmware and diagnostics endpoints used for remote
// status, changelog, and firmware trigger operations; the upgrade
// orchestrator itself never depends on it.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/opnup/opnup/internal/config"
)

// ErrReadOnly is returned by mutating calls when the client is configured
// read-only.
var ErrReadOnly = errors.New("api client is read-only (set OPNSENSE_READ_ONLY=false to enable write operations)")

const clientTimeout = 30 * time.Second

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
	blankRunsPattern = regexp.MustCompile(`\n{3,}`)
)

// Client talks to the appliance REST API with key/secret basic auth.
type Client struct {
	base     string
	key      string
	secret   string
	readOnly bool
	http     *http.Client
}

// NewClient builds a Client from configuration. Returns an error when the
// URL or credentials are missing.
func NewClient(cfg config.APIConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("OPNSENSE_URL is not set")
	}
	if cfg.Key == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("OPNSENSE_API_KEY and OPNSENSE_API_SECRET must be set")
	}
	transport := http.DefaultTransport
	if !cfg.VerifySSL {
		// Appliances commonly run self-signed certificates.
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402
		}
	}
	return &Client{
		base:     strings.TrimRight(cfg.URL, "/"),
		key:      cfg.Key,
		secret:   cfg.Secret,
		readOnly: cfg.ReadOnly,
		http:     &http.Client{Timeout: clientTimeout, Transport: transport},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else if method == http.MethodPost {
		body = strings.NewReader("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/api/"+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

// FirmwareStatus fetches the firmware daemon's cached status.
func (c *Client) FirmwareStatus(ctx context.Context) (*FirmwareStatus, error) {
	var status FirmwareStatus
	if err := c.get(ctx, "core/firmware/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UpgradeStatus fetches the progress of a running firmware operation.
func (c *Client) UpgradeStatus(ctx context.Context) (*UpgradeStatus, error) {
	var status UpgradeStatus
	if err := c.get(ctx, "core/firmware/upgradestatus", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SystemActivity fetches the diagnostics activity snapshot.
func (c *Client) SystemActivity(ctx context.Context) (*Activity, error) {
	var activity Activity
	if err := c.post(ctx, "diagnostics/activity/getActivity", nil, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Changelog fetches the changelog for a version and returns it as plain
// text with markup stripped. Returns "" when the version has none.
func (c *Client) Changelog(ctx context.Context, version string) (string, error) {
	var resp changelogResponse
	if err := c.post(ctx, "core/firmware/changelog/"+version, nil, &resp); err != nil {
		return "", err
	}
	text := resp.HTML
	if text == "" {
		text = resp.Changelog
	}
	if text == "" {
		return "", nil
	}
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = blankRunsPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// TriggerUpdate starts a minor firmware update.
func (c *Client) TriggerUpdate(ctx context.Context) (string, error) {
	return c.trigger(ctx, "core/firmware/update", nil)
}

// TriggerUpgrade starts a major upgrade. An empty version lets the
// appliance pick its announced next major.
func (c *Client) TriggerUpgrade(ctx context.Context, version string) (string, error) {
	var payload any
	if version != "" {
		payload = map[string]string{"upgrade": version}
	}
	return c.trigger(ctx, "core/firmware/upgrade", payload)
}

// TriggerReboot reboots the appliance.
func (c *Client) TriggerReboot(ctx context.Context) (string, error) {
	return c.trigger(ctx, "core/firmware/reboot", nil)
}

func (c *Client) trigger(ctx context.Context, path string, payload any) (string, error) {
	if c.readOnly {
		return "", ErrReadOnly
	}
	var resp actionResponse
	if err := c.post(ctx, path, payload, &resp); err != nil {
		return "", err
	}
	if resp.Message != "" {
		return resp.Message, nil
	}
	return resp.Status, nil
}
