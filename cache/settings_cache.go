package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"CrossFM/model"

	"github.com/go-redis/redis/v8"
)

const settingsKey = "player:settings"

// SettingsCache persists the process-wide settings object. Loaded once at
// startup, written on every change.
type SettingsCache struct {
	client *redis.Client
}

// NewSettingsCache creates a settings cache on the given client.
func NewSettingsCache(client *redis.Client) *SettingsCache {
	return &SettingsCache{client: client}
}

// Load returns the stored settings, or the defaults when nothing has been
// saved yet.
func (c *SettingsCache) Load(ctx context.Context) (model.Settings, error) {
	if c.client == nil {
		return model.DefaultSettings(), fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.Get(ctx, settingsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return model.DefaultSettings(), nil
		}
		return model.DefaultSettings(), fmt.Errorf("failed to load settings: %w", err)
	}

	var s model.Settings
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return model.DefaultSettings(), fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// Save writes the settings.
func (c *SettingsCache) Save(ctx context.Context, s model.Settings) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := c.client.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
