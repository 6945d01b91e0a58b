package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// likedSetKey holds the ids of starred tracks. It is a plain durable set,
// deliberately decoupled from track lifecycle: deleting a track does not
// remove its id here.
const likedSetKey = "player:liked"

// LikedCache persists the set of liked track ids.
type LikedCache struct {
	client *redis.Client
}

// NewLikedCache creates a liked-set cache on the given client.
func NewLikedCache(client *redis.Client) *LikedCache {
	return &LikedCache{client: client}
}

// Like adds a track id to the liked set.
func (c *LikedCache) Like(ctx context.Context, trackID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := c.client.SAdd(ctx, likedSetKey, trackID).Err(); err != nil {
		return fmt.Errorf("failed to like track %s: %w", trackID, err)
	}
	return nil
}

// Unlike removes a track id from the liked set.
func (c *LikedCache) Unlike(ctx context.Context, trackID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := c.client.SRem(ctx, likedSetKey, trackID).Err(); err != nil {
		return fmt.Errorf("failed to unlike track %s: %w", trackID, err)
	}
	return nil
}

// IsLiked reports whether a track id is in the liked set.
func (c *LikedCache) IsLiked(ctx context.Context, trackID string) (bool, error) {
	if c.client == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}
	liked, err := c.client.SIsMember(ctx, likedSetKey, trackID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check liked state for %s: %w", trackID, err)
	}
	return liked, nil
}

// All returns every liked track id.
func (c *LikedCache) All(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	ids, err := c.client.SMembers(ctx, likedSetKey).Result()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load liked set: %w", err)
	}
	return ids, nil
}
