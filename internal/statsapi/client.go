// Package statsapi reads host statistics from the upstream monitor.
package statsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"natbwdash/internal/models"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrTransport is returned when the request could not be completed.
	ErrTransport = errors.New("stats request failed")
	// ErrStatus is returned for non 2xx responses.
	ErrStatus = errors.New("unexpected stats response status")
	// ErrDecode is returned when the body is not a JSON array of hosts.
	ErrDecode = errors.New("malformed stats response")
)

// StatsPath is the upstream endpoint serving host statistics.
const StatsPath = "/v1/stats/"

// Client fetches host statistics.
type Client struct {
	BaseURL string
	// Timeout bounds a single request. Zero means the caller's context is
	// the only limit.
	Timeout time.Duration
	HTTP    *http.Client
}

// NewClient creates a Client for the monitor at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    http.DefaultClient,
	}
}

// StatsURL returns the request URL for the given order key. The key is
// passed through unvalidated.
func (c *Client) StatsURL(key models.OrderKey) string {
	q := url.Values{}
	q.Set("order_by", string(key))
	return c.BaseURL + StatsPath + "?" + q.Encode()
}

// Fetch requests the host list sorted by key. Rows are returned in the
// order the upstream sent them.
func (c *Client) Fetch(ctx context.Context, key models.OrderKey) (models.Stats, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StatsURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var stats models.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if stats == nil {
		// "null" decodes without error
		return nil, fmt.Errorf("%w: expected a JSON array", ErrDecode)
	}
	return stats, nil
}
