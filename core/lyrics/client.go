package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Result is what the external lyric provider returned for a track.
type Result struct {
	Synced string // LRC text with timestamps, empty if unavailable
	Plain  string // plain text lyrics, empty if unavailable
	Source string // URL the result came from, empty when nothing was found
}

// Found reports whether the provider returned any lyric text.
func (r Result) Found() bool {
	return r.Synced != "" || r.Plain != ""
}

// Client fetches lyrics from an LRCLIB-compatible endpoint. The provider
// is untrusted and best-effort; callers degrade gracefully on failure.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// NewClient creates a lyric client for the given endpoint.
func NewClient(apiURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
	}
}

// Fetch retrieves lyrics for the given track. Returns an empty Result (no
// error) when lyrics are not found. Retries once on transient network
// errors.
func (c *Client) Fetch(ctx context.Context, artist, title, album string) (Result, error) {
	result, err := c.doFetch(ctx, artist, title, album)
	if err == nil {
		return result, nil
	}

	// Only retry on network-level errors; API errors would fail identically.
	if !isTransient(err) {
		return Result{}, err
	}

	select {
	case <-ctx.Done():
		return Result{}, err
	case <-time.After(2 * time.Second):
	}
	return c.doFetch(ctx, artist, title, album)
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) doFetch(ctx context.Context, artist, title, album string) (Result, error) {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)
	params.Set("album_name", album)

	reqURL := fmt.Sprintf("%s?%s", c.apiURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create lyric request: %w", err)
	}
	req.Header.Set("User-Agent", "crossfm/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("lyric request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("lyric provider returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Result{}, fmt.Errorf("failed to decode lyric response: %w", err)
	}

	result := Result{
		Synced: apiResp.SyncedLyrics,
		Plain:  apiResp.PlainLyrics,
	}
	if result.Found() {
		result.Source = reqURL
	}
	return result, nil
}

type apiResponse struct {
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
}
