package gameserv

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
	"time"
)

const defaultTimeout = 10 * time.Second

type httpClient struct {
	baseURL    string
	apiKey     string
	retryCount int
	client     *http.Client
}

// NewClient creates a management API client for the game server.
func NewClient(cfg ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = 1
	}
	return &httpClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		retryCount: retryCount,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) PlayerOnline(ctx context.Context, name string) (bool, error) {
	var player Player
	err := c.doJSON(ctx, http.MethodGet, "/api/players/"+url.PathEscape(name), nil, &player)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return false, nil
		}
		return false, err
	}
	return player.Online, nil
}

func (c *httpClient) ResolvePlayer(ctx context.Context, name string) (*Player, error) {
	var player Player
	if err := c.doJSON(ctx, http.MethodGet, "/api/players/"+url.PathEscape(name), nil, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (c *httpClient) RunCommand(ctx context.Context, command string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/command", commandRequest{Command: command}, nil)
}

func (c *httpClient) Broadcast(ctx context.Context, message string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/broadcast", broadcastRequest{Message: message}, nil)
}

func (c *httpClient) Capabilities(ctx context.Context) (*Capabilities, error) {
	var caps Capabilities
	if err := c.doJSON(ctx, http.MethodGet, "/api/capabilities", nil, &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}

// doJSON performs one API call with bounded retries on transport failures and
// 5xx responses. 4xx responses are mapped to typed errors and never retried.
func (c *httpClient) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}

		retryable, err := c.doOnce(ctx, method, path, payload, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *httpClient) doOnce(ctx context.Context, method, path string, payload, result interface{}) (bool, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return false, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("failed to call game API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, notFoundError(path)
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("game API returned status %d for %s", resp.StatusCode, path)
	case resp.StatusCode >= 400:
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return false, fmt.Errorf("game API rejected %s: %s", path, apiErr.Error)
		}
		return false, fmt.Errorf("game API returned status %d for %s", resp.StatusCode, path)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return false, nil
}

// notFoundError maps a 404 to the typed error for the resource class.
func notFoundError(path string) error {
	if strings.HasPrefix(path, "/api/teams") {
		return ErrTeamNotFound
	}
	if strings.HasPrefix(path, "/api/players") {
		return ErrPlayerNotFound
	}
	return fmt.Errorf("game API returned status 404 for %s", path)
}
