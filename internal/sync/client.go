// Package sync mirrors locally recorded events to the remote session store.
// Recording is local-first: the tracker never waits on the network, and
// failed mirrors queue in a strict-FIFO outbox that retries in original
// order once the store is reachable again.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/session"
)

// ClientConfig holds configuration for the remote session store client.
type ClientConfig struct {
	// BaseURL is the base URL of the session store API.
	BaseURL string

	// Timeout is the timeout for individual requests.
	Timeout time.Duration

	// MaxRetries is the maximum number of immediate retry attempts per
	// request. Mirror retries beyond this are the outbox's job.
	MaxRetries int

	// RetryBaseDelay is the base delay for exponential backoff.
	RetryBaseDelay time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL:        baseURL,
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// Client is the HTTP client for the remote session store. It implements
// session.Store so the lifecycle manager can run against it directly.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new session store client.
func NewClient(config *ClientConfig) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type createSessionRequest struct {
	EventID string `json:"eventId"`
}

type createSessionResponse struct {
	SessionKey string `json:"sessionKey"`
}

type findSessionResponse struct {
	SessionKey string `json:"sessionKey"`
	Active     bool   `json:"isActive"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// CreateSession creates a remote session for the event.
func (c *Client) CreateSession(ctx context.Context, eventID string) (string, error) {
	var resp createSessionResponse
	err := c.doRequest(ctx, http.MethodPost, "/sessions", createSessionRequest{EventID: eventID}, &resp)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return resp.SessionKey, nil
}

// FindSession returns the most recent remote session for the event.
func (c *Client) FindSession(ctx context.Context, eventID string) (string, bool, bool, error) {
	var resp findSessionResponse
	path := "/sessions/latest?eventId=" + url.QueryEscape(eventID)
	err := c.doRequest(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		var se *StatusError
		if asStatusError(err, &se) && se.Code == http.StatusNotFound {
			return "", false, false, nil
		}
		return "", false, false, fmt.Errorf("find session: %w", err)
	}
	return resp.SessionKey, resp.Active, true, nil
}

// FetchSession returns the full persisted state for a session.
func (c *Client) FetchSession(ctx context.Context, key string) (*session.Data, error) {
	var data session.Data
	err := c.doRequest(ctx, http.MethodGet, "/sessions/"+url.PathEscape(key), nil, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	return &data, nil
}

// AppendEvent mirrors one event. The store deduplicates by event id: a
// conflict response means the event already arrived and counts as success.
func (c *Client) AppendEvent(ctx context.Context, key string, e *game.GameEvent) error {
	err := c.doRequest(ctx, http.MethodPost, "/sessions/"+url.PathEscape(key)+"/events", e, nil)
	if err != nil {
		var se *StatusError
		if asStatusError(err, &se) && se.Code == http.StatusConflict {
			// Duplicate delivery of a retried mirror.
			return nil
		}
		return &MirrorError{EventID: e.ID, Err: err}
	}
	return nil
}

// UpdateSession replaces the session's game state and lineups.
func (c *Client) UpdateSession(ctx context.Context, key string, data *session.Data) error {
	err := c.doRequest(ctx, http.MethodPatch, "/sessions/"+url.PathEscape(key), data, nil)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// SetActive flips the remote session's active flag.
func (c *Client) SetActive(ctx context.Context, key string, active bool) error {
	err := c.doRequest(ctx, http.MethodPut, "/sessions/"+url.PathEscape(key)+"/active", setActiveRequest{Active: active}, nil)
	if err != nil {
		return fmt.Errorf("set session active: %w", err)
	}
	return nil
}

// Discard deletes all remote session data for the event.
func (c *Client) Discard(ctx context.Context, eventID string) error {
	path := "/sessions?eventId=" + url.QueryEscape(eventID)
	err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return fmt.Errorf("discard session: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request with JSON encoding and exponential
// backoff on transport errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode}
			continue
		}
		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: string(data)}
		}

		if out != nil {
			err = json.NewDecoder(resp.Body).Decode(out)
		} else {
			_, err = io.Copy(io.Discard, resp.Body)
		}
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}
