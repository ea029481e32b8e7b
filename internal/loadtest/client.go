package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Activity mirrors one entry of GET /activities.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Result is the decoded outcome of a signup or unregister call.
type Result struct {
	Status  int
	Message string
	Detail  string
}

type body struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Client is a thin HTTP client for the activities API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health returns nil when GET /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// Activities fetches the full activity map.
func (c *Client) Activities(ctx context.Context) (map[string]Activity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/activities")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list activities returned status %d", resp.StatusCode)
	}
	var out map[string]Activity
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return out, nil
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, "/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats returned status %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return out, nil
}

// Signup posts a signup for email on activity.
func (c *Client) Signup(ctx context.Context, activity, email string) (Result, error) {
	return c.mutate(ctx, activity, "signup", email)
}

// Unregister posts an unregister for email on activity.
func (c *Client) Unregister(ctx context.Context, activity, email string) (Result, error) {
	return c.mutate(ctx, activity, "unregister", email)
}

func (c *Client) mutate(ctx context.Context, activity, action, email string) (Result, error) {
	path := "/activities/" + url.PathEscape(activity) + "/" + action + "?" + url.Values{"email": {email}}.Encode()
	resp, err := c.do(ctx, http.MethodPost, path)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var b body
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return Result{Status: resp.StatusCode}, fmt.Errorf("decode %s response: %w", action, err)
	}
	return Result{Status: resp.StatusCode, Message: b.Message, Detail: b.Detail}, nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
