// Package resolve provides an HTTP-backed track resolver for roomcast
// clients. It turns track ids into playable stream URLs by asking a
// catalog service.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/roomcast/roomcast-sdk-go/roomcast"
)

// Client resolves tracks against a catalog API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a resolver client.
// baseURL should be the base URL of the API, e.g., "https://catalog.example.com/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetToken sets a bearer token for authenticated catalogs.
func (c *Client) SetToken(token string) {
	c.token = token
}

// streamResponse is the catalog's answer for one track.
type streamResponse struct {
	StreamURL string             `json:"streamUrl"`
	Track     roomcast.TrackInfo `json:"track"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Resolve implements roomcast.TrackResolver.
func (c *Client) Resolve(ctx context.Context, trackID string) (roomcast.MediaItem, error) {
	var resp streamResponse
	if err := c.get(ctx, "/tracks/"+trackID+"/stream", &resp); err != nil {
		return roomcast.MediaItem{}, err
	}
	if resp.StreamURL == "" {
		return roomcast.MediaItem{}, fmt.Errorf("catalog returned no stream for track %s", trackID)
	}
	if resp.Track.ID == "" {
		resp.Track.ID = trackID
	}
	return roomcast.MediaItem{Track: resp.Track, StreamURL: resp.StreamURL}, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// Request ids let the catalog correlate retries in its logs.
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("catalog error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
