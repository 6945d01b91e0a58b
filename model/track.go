package model

import "time"

// Origin is the source category of a track. Storage policy and client
// treatment branch on it, so it is a closed set rather than a free string.
type Origin string

const (
	OriginBundled  Origin = "bundled"  // shipped with the seed directory
	OriginUploaded Origin = "uploaded" // uploaded by the user, durably stored
	OriginExternal Origin = "external" // fetched from the external catalog
	OriginAI       Origin = "ai"       // AI-generated, durably stored once saved
	OriginAmbient  Origin = "ambient"  // generated ambient loop, restarts on end
)

// Persistent reports whether tracks of this origin are written to the
// track store. Bundled tracks are re-imported from the seed directory and
// external items are re-fetched, so neither is persisted.
func (o Origin) Persistent() bool {
	return o == OriginUploaded || o == OriginAI
}

// Valid reports whether o is one of the known origins.
func (o Origin) Valid() bool {
	switch o {
	case OriginBundled, OriginUploaded, OriginExternal, OriginAI, OriginAmbient:
		return true
	}
	return false
}

// LyricLine is one lyric line. Time is the position in seconds, or
// UnsyncedTime when the line carries no timestamp.
type LyricLine struct {
	Time float64 `json:"time"`
	Text string  `json:"text"`
}

// UnsyncedTime marks a lyric line with no known position.
const UnsyncedTime float64 = -1

// Synced reports whether the line carries a usable timestamp.
func (l LyricLine) Synced() bool {
	return l.Time >= 0
}

// Citation is a lyric source reference (title + URL pair).
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Track represents one playable audio item in the library.
type Track struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration float64 `json:"duration"` // seconds; 0 until the media is decoded

	// StreamURL is the ephemeral playable locator. For stored tracks it is
	// regenerated from the payload object on every load and never persisted.
	StreamURL string `json:"streamUrl,omitempty"`
	// VideoID is set for external catalog items that play through the
	// out-of-core external channel instead of StreamURL.
	VideoID string `json:"videoId,omitempty"`

	CoverURL string `json:"coverUrl,omitempty"`
	Color    string `json:"color,omitempty"` // display theme hint

	Origin Origin `json:"origin"`

	// PayloadKey is the object-store key of the stored binary payload,
	// empty when the track has no durable payload.
	PayloadKey string `json:"-"`

	Lyrics    []LyricLine `json:"lyrics,omitempty"`
	Citations []Citation  `json:"citations,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playable reports whether the track can be handed to a channel right now:
// either a resolved stream locator or an external video id.
func (t *Track) Playable() bool {
	return t.StreamURL != "" || t.VideoID != ""
}
