package player

import (
	"sync"
	"time"
)

// Channel is one instance of the audio playback primitive: load a locator,
// play/pause, get/set position and volume. Exactly one channel is active
// outside a crossfade; two during one.
type Channel interface {
	Load(locator string, duration float64) error
	Play() error
	Pause()
	Stop()
	Seek(position float64)
	Position() float64
	Duration() float64
	SetVolume(v float64)
	Volume() float64
}

// ChannelFactory mints a fresh channel.
type ChannelFactory func() Channel

// clockChannel tracks playback position against the monotonic clock. The
// server is the authority on transport state; actual audio decoding happens
// client-side against the same locator, so the channel only has to keep
// honest time.
type clockChannel struct {
	mu        sync.Mutex
	loaded    bool
	playing   bool
	base      float64 // position at the last play/pause/seek
	startedAt time.Time
	duration  float64
	volume    float64
	locator   string
}

// NewClockChannel returns a wall-clock backed channel at volume 1.0.
func NewClockChannel() Channel {
	return &clockChannel{volume: 1.0}
}

func (c *clockChannel) Load(locator string, duration float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.playing = false
	c.locator = locator
	c.duration = duration
	c.base = 0
	return nil
}

func (c *clockChannel) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrNotLoaded
	}
	if c.playing {
		return nil
	}
	c.playing = true
	c.startedAt = time.Now()
	return nil
}

func (c *clockChannel) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.base = c.positionLocked()
	c.playing = false
}

func (c *clockChannel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.playing = false
	c.base = 0
	c.locator = ""
}

func (c *clockChannel) Seek(position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if position < 0 {
		position = 0
	}
	if c.duration > 0 && position > c.duration {
		position = c.duration
	}
	c.base = position
	c.startedAt = time.Now()
}

func (c *clockChannel) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *clockChannel) positionLocked() float64 {
	pos := c.base
	if c.playing {
		pos += time.Since(c.startedAt).Seconds()
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	return pos
}

func (c *clockChannel) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *clockChannel) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.volume = v
}

func (c *clockChannel) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}
