package model

// PlayerState is a snapshot of the transport. It exists only for the
// lifetime of the running process and is never persisted.
type PlayerState struct {
	TrackID   string  `json:"trackId,omitempty"`
	Title     string  `json:"title,omitempty"`
	Artist    string  `json:"artist,omitempty"`
	CoverURL  string  `json:"coverUrl,omitempty"`
	IsPlaying bool    `json:"isPlaying"`
	Position  float64 `json:"position"` // seconds
	Duration  float64 `json:"duration"` // seconds
	// FadingFromID is the id of the track currently fading out, empty
	// outside a crossfade.
	FadingFromID string `json:"fadingFromId,omitempty"`
	// ActiveLyric is the index of the highlighted lyric line, -1 when no
	// line is active.
	ActiveLyric int `json:"activeLyric"`
}

// PlayEntry is one row of the listening history.
type PlayEntry struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID   string `json:"trackId" gorm:"size:64;index"`
	Title     string `json:"title" gorm:"size:255"`
	Artist    string `json:"artist" gorm:"size:255"`
	Origin    string `json:"origin" gorm:"size:16"`
	StartedAt int64  `json:"startedAt" gorm:"index"` // unix millis
}

// TableName maps PlayEntry to its table.
func (PlayEntry) TableName() string {
	return "play_history"
}

// Settings is the process-wide session object: the handful of user
// preferences that survive restarts outside any track's lifecycle.
// Loaded from Redis at startup, saved on every change.
type Settings struct {
	Volume           float64 `json:"volume"`
	CrossfadeEnabled bool    `json:"crossfadeEnabled"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{Volume: 1.0, CrossfadeEnabled: true}
}
