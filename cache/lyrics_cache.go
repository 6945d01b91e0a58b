package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CrossFM/model"

	"github.com/go-redis/redis/v8"
)

const (
	lyricsKeyFormat = "lyrics:%s" // keyed by track id
	lyricsTTL       = 7 * 24 * time.Hour
)

// cachedLyrics is the stored shape: lines plus source citations.
type cachedLyrics struct {
	Lines     []model.LyricLine `json:"lines"`
	Citations []model.Citation  `json:"citations,omitempty"`
}

// LyricsCache caches fetched lyric results so repeat lookups skip the
// external provider.
type LyricsCache struct {
	client *redis.Client
}

// NewLyricsCache creates a lyrics cache on the given client.
func NewLyricsCache(client *redis.Client) *LyricsCache {
	return &LyricsCache{client: client}
}

// Get returns cached lyrics for a track, or (nil, nil, nil) on a miss.
func (c *LyricsCache) Get(ctx context.Context, trackID string) ([]model.LyricLine, []model.Citation, error) {
	if c.client == nil {
		return nil, nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.Get(ctx, fmt.Sprintf(lyricsKeyFormat, trackID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get cached lyrics for %s: %w", trackID, err)
	}

	var cached cachedLyrics
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal cached lyrics for %s: %w", trackID, err)
	}
	return cached.Lines, cached.Citations, nil
}

// Put stores a fetched lyric result.
func (c *LyricsCache) Put(ctx context.Context, trackID string, lines []model.LyricLine, citations []model.Citation) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(cachedLyrics{Lines: lines, Citations: citations})
	if err != nil {
		return fmt.Errorf("failed to marshal lyrics for %s: %w", trackID, err)
	}
	if err := c.client.Set(ctx, fmt.Sprintf(lyricsKeyFormat, trackID), data, lyricsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache lyrics for %s: %w", trackID, err)
	}
	return nil
}
