package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CrossFM/logger"
)

// Item is one search candidate from the external catalog.
type Item struct {
	VideoID      string  `json:"videoId"`
	Title        string  `json:"title"`
	Channel      string  `json:"channel"`
	ThumbnailURL string  `json:"thumbnail"`
	Duration     float64 `json:"duration"`
}

// Client talks to the external catalog/search provider. Items found here
// are playable through the external channel right away and become regular
// library tracks once their audio is downloaded.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a catalog client. An empty baseURL disables the
// integration; callers check Enabled.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

// Enabled reports whether a provider endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Search returns candidate items for a query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("catalog provider not configured")
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search returned status %d", resp.StatusCode)
	}

	var result struct {
		Items []Item `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	logger.Debug("catalog search", logger.String("query", query), logger.Int("results", len(result.Items)))
	return result.Items, nil
}

// ResolveAudio resolves an external id to its downloadable audio stream.
// The caller owns the returned reader.
func (c *Client) ResolveAudio(ctx context.Context, videoID string) (io.ReadCloser, int64, string, error) {
	if !c.Enabled() {
		return nil, 0, "", fmt.Errorf("catalog provider not configured")
	}

	params := url.Values{}
	params.Set("id", videoID)
	reqURL := fmt.Sprintf("%s/resolve?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to create resolve request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("catalog resolve failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, "", fmt.Errorf("catalog resolve returned status %d", resp.StatusCode)
	}

	var result struct {
		AudioURL    string `json:"audioUrl"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, "", fmt.Errorf("failed to decode resolve response: %w", err)
	}
	if result.AudioURL == "" {
		return nil, 0, "", fmt.Errorf("no audio available for %s", videoID)
	}

	audioReq, err := http.NewRequestWithContext(ctx, http.MethodGet, result.AudioURL, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to create audio request: %w", err)
	}
	audioResp, err := c.httpClient.Do(audioReq)
	if err != nil {
		return nil, 0, "", fmt.Errorf("audio download failed: %w", err)
	}
	if audioResp.StatusCode != http.StatusOK {
		audioResp.Body.Close()
		return nil, 0, "", fmt.Errorf("audio download returned status %d", audioResp.StatusCode)
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = audioResp.Header.Get("Content-Type")
	}
	return audioResp.Body, audioResp.ContentLength, contentType, nil
}
