package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var ErrConfigUnavailable = errors.New("backend: cannot load config")

// HostedBackend serves clients loaded from a github.io page.
const HostedBackend = "https://api.syaqirshaq.online/api"

// ResolveBase picks the backend base URL: the override when set, else one derived
// from the app URL. A single trailing slash is trimmed.
func ResolveBase(override, appURL string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSuffix(strings.TrimSpace(override), "/"), nil
	}

	u, err := url.Parse(appURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("backend: invalid app url %q", appURL)
	}

	origin := u.Scheme + "://" + u.Host
	switch {
	case strings.HasSuffix(u.Hostname(), "github.io"):
		return HostedBackend, nil
	case u.Port() == "8000":
		return origin, nil
	}
	return strings.TrimSuffix(origin+"/api", "/"), nil
}

// Client talks to the backend. The HTTP client has no timeout of its own; callers
// bound requests through the context.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client over transport, typically the background worker.
func NewClient(base string, transport http.RoundTripper) *Client {
	return &Client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Transport: transport},
	}
}

func (c *Client) Base() string { return c.base }

func (c *Client) endpoint(path string) string { return c.base + path }

func (c *Client) Config(ctx context.Context) (*domain.RemoteConfig, error) {
	var cfg domain.RemoteConfig

	if err := c.getJSON(ctx, c.endpoint("/config"), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigUnavailable, err)
	}
	return &cfg, nil
}

func (c *Client) RamadanWindow(ctx context.Context) (*domain.RamadanWindow, error) {
	var w domain.RamadanWindow

	if err := c.getJSON(ctx, c.endpoint("/ramadan-window"), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) Subscribe(ctx context.Context, sub *domain.Subscription) error {
	body := struct {
		Subscription *domain.Subscription `json:"subscription"`
	}{sub}
	return c.postJSON(ctx, c.endpoint("/subscribe"), body)
}

func (c *Client) Checkin(ctx context.Context, relay domain.CheckinRelay) error {
	return c.postJSON(ctx, c.endpoint("/checkin"), relay)
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &domain.StatusError{URL: target, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", target, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, target string, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.StatusError{URL: target, Code: resp.StatusCode}
	}
	return nil
}
