package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/pkg/display"
)

// Client talks to a running daemon's HTTP API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon listening on addr (host:port)
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping reports whether the daemon answers its health check
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *Client) Status(ctx context.Context) (*monitor.Status, error) {
	var status monitor.Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Check(ctx context.Context) (*monitor.CheckResult, error) {
	var result monitor.CheckResult
	if err := c.do(ctx, http.MethodPost, "/api/check", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LastCheck returns the daemon's most recent cycle without running a new one
func (c *Client) LastCheck(ctx context.Context) (*monitor.CheckResult, error) {
	var result monitor.CheckResult
	if err := c.do(ctx, http.MethodGet, "/api/check", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Settings(ctx context.Context) (*monitor.SettingsView, error) {
	var view monitor.SettingsView
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/settings", update, nil)
}

func (c *Client) History(ctx context.Context, period string, limit int, withErrors bool) (*models.History, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if withErrors {
		q.Set("errors", "true")
	}

	var history models.History
	if err := c.do(ctx, http.MethodGet, "/api/history?"+q.Encode(), nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "contact daemon")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// decodeError turns an API error back into the matching Go error
func decodeError(resp *http.Response) error {
	var er ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if er.Device != "" {
			return &monitor.InvalidRateError{DeviceID: er.Device, Rate: er.Rate, Supported: er.Supported}
		}
	case http.StatusConflict:
		return monitor.ErrCycleInProgress
	case http.StatusServiceUnavailable:
		return &display.BackendUnavailableError{Backend: "daemon", Err: errors.New(er.Error)}
	}
	return errors.New(er.Error)
}
