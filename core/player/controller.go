package player

import (
	"fmt"
	"sync"
	"time"

	"CrossFM/core/library"
	"CrossFM/core/lyrics"
	"CrossFM/logger"
	"CrossFM/model"
)

// DefaultTickInterval is how often the controller reads the active
// channel's position while playing.
const DefaultTickInterval = 250 * time.Millisecond

// Options tunes the controller. Zero values fall back to the defaults;
// tests shrink the intervals.
type Options struct {
	TickInterval     time.Duration
	FadeSteps        int
	FadeStepInterval time.Duration
	CrossfadeEnabled bool
	Volume           float64
}

// StateListener receives transport snapshots on every tick and state
// change. Listeners are best-effort side channels (websocket hub, OS
// now-playing surface); their absence never affects playback.
type StateListener func(state model.PlayerState)

// StartListener is invoked once per track actually started, for the play
// history.
type StartListener func(track *model.Track)

// Controller is the single owner of "what is playing and at what
// position". All commands go through it; it owns the primary channel, the
// outgoing channel during a crossfade, and the position ticker.
type Controller struct {
	mu  sync.Mutex
	lib *library.Library

	newChannel ChannelFactory

	current *model.Track
	playing bool
	seeking bool

	primary      Channel
	outgoing     Channel
	fadingFromID string
	fade         *fade

	volume           float64
	crossfadeEnabled bool

	tickInterval     time.Duration
	fadeSteps        int
	fadeStepInterval time.Duration

	stopTick chan struct{}
	tickWG   sync.WaitGroup

	stateListeners []StateListener
	startListeners []StartListener
}

// NewController creates a controller over the library. Channels are minted
// through the factory so tests can substitute fakes.
func NewController(lib *library.Library, factory ChannelFactory, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.FadeSteps <= 0 {
		opts.FadeSteps = DefaultFadeSteps
	}
	if opts.FadeStepInterval <= 0 {
		opts.FadeStepInterval = DefaultFadeStepInterval
	}
	if opts.Volume <= 0 || opts.Volume > 1 {
		opts.Volume = 1.0
	}

	c := &Controller{
		lib:              lib,
		newChannel:       factory,
		volume:           opts.Volume,
		crossfadeEnabled: opts.CrossfadeEnabled,
		tickInterval:     opts.TickInterval,
		fadeSteps:        opts.FadeSteps,
		fadeStepInterval: opts.FadeStepInterval,
	}
	lib.SetRemoveObserver(c.handleRemoved)
	return c
}

// AddStateListener registers a transport-state listener.
func (c *Controller) AddStateListener(fn StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateListeners = append(c.stateListeners, fn)
}

// AddStartListener registers a track-started listener.
func (c *Controller) AddStartListener(fn StartListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startListeners = append(c.startListeners, fn)
}

// Start launches the position ticker.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.stopTick != nil {
		c.mu.Unlock()
		return
	}
	c.stopTick = make(chan struct{})
	stop := c.stopTick
	c.mu.Unlock()

	c.tickWG.Add(1)
	go func() {
		defer c.tickWG.Done()
		ticker := time.NewTicker(c.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.tick()
			}
		}
	}()
}

// Stop halts the ticker, abandons any crossfade and releases the channels.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	c.cancelFadeLocked()
	if c.primary != nil {
		c.primary.Stop()
		c.primary = nil
	}
	c.current = nil
	c.playing = false
	c.mu.Unlock()
	c.tickWG.Wait()
}

// Play starts the track with the given id. If it is already current, this
// toggles play/pause without resetting the channel.
func (c *Controller) Play(id string) error {
	track := c.lib.ByID(id)
	if track == nil {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}

	c.mu.Lock()
	if c.current != nil && c.current.ID == id {
		c.cancelFadeLocked()
		err := c.toggleLocked()
		state := c.stateLocked()
		c.mu.Unlock()
		c.publish(state)
		return err
	}
	err := c.startTrackLocked(track)
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return err
}

// Pause pauses playback; only valid with a loaded track.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.playing {
		c.primary.Pause()
		if c.outgoing != nil {
			c.outgoing.Pause()
		}
		c.playing = false
	}
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return nil
}

// Resume resumes playback; only valid with a loaded track.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	var err error
	if !c.playing {
		if perr := c.primary.Play(); perr != nil {
			err = fmt.Errorf("%w: %v", ErrPlaybackStart, perr)
		} else {
			if c.outgoing != nil {
				c.outgoing.Play()
			}
			c.playing = true
		}
	}
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return err
}

// Seek jumps the active channel to target seconds, clamped into
// [0, duration].
func (c *Controller) Seek(target float64) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	duration := c.durationLocked()
	if target < 0 {
		target = 0
	}
	if duration > 0 && target > duration {
		target = duration
	}
	c.primary.Seek(target)
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return nil
}

// BeginSeek suspends tick-driven position reporting while the user drags
// the seek bar, so reports don't feed back into the drag.
func (c *Controller) BeginSeek() {
	c.mu.Lock()
	c.seeking = true
	c.mu.Unlock()
}

// EndSeek resumes position reporting.
func (c *Controller) EndSeek() {
	c.mu.Lock()
	c.seeking = false
	c.mu.Unlock()
}

// Next advances to the library's next track (wrap-around) and always
// starts playing. No-op on an empty library.
func (c *Controller) Next() error {
	return c.step(func(currentID string) *model.Track { return c.lib.Next(currentID) })
}

// Previous moves to the library's previous track (wrap-around) and always
// starts playing. No-op on an empty library.
func (c *Controller) Previous() error {
	return c.step(func(currentID string) *model.Track { return c.lib.Previous(currentID) })
}

func (c *Controller) step(neighbor func(currentID string) *model.Track) error {
	c.mu.Lock()
	currentID := ""
	if c.current != nil {
		currentID = c.current.ID
	}
	next := neighbor(currentID)
	if next == nil {
		c.mu.Unlock()
		return nil
	}
	err := c.startTrackLocked(next)
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return err
}

// OnTrackEnded handles natural end of playback: ambient tracks restart
// from zero, everything else advances.
func (c *Controller) OnTrackEnded() error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil
	}
	if c.current.Origin == model.OriginAmbient {
		c.primary.Seek(0)
		if !c.playing {
			c.mu.Unlock()
			return nil
		}
		c.primary.Play()
		state := c.stateLocked()
		c.mu.Unlock()
		c.publish(state)
		return nil
	}
	c.mu.Unlock()
	return c.Next()
}

// SetVolume applies the master volume to the active channel(s).
func (c *Controller) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.mu.Lock()
	c.volume = v
	// Mid-crossfade the ramp goroutine owns channel volumes; the new
	// master takes effect when the ramp finishes.
	if c.fade == nil && c.primary != nil {
		c.primary.SetVolume(v)
	}
	c.mu.Unlock()
}

// SetCrossfadeEnabled toggles the crossfade engine.
func (c *Controller) SetCrossfadeEnabled(enabled bool) {
	c.mu.Lock()
	c.crossfadeEnabled = enabled
	c.mu.Unlock()
}

// State returns a transport snapshot.
func (c *Controller) State() model.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// startTrackLocked loads and starts a track on a fresh primary channel.
// Any in-flight crossfade is abandoned first.
func (c *Controller) startTrackLocked(track *model.Track) error {
	if !track.Playable() {
		return fmt.Errorf("%w: %q is not available offline yet", ErrNoPlayableSource, track.Title)
	}

	c.cancelFadeLocked()
	if c.primary != nil {
		c.primary.Stop()
	}

	channel := c.newChannel()
	if err := channel.Load(locatorOf(track), track.Duration); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackStart, err)
	}
	channel.SetVolume(c.volume)

	c.primary = channel
	c.current = track

	if err := channel.Play(); err != nil {
		// Revert to paused; the caller surfaces the error, no silent retry.
		c.playing = false
		return fmt.Errorf("%w: %v", ErrPlaybackStart, err)
	}
	c.playing = true

	for _, fn := range c.startListeners {
		fn(track)
	}
	logger.Info("track started",
		logger.String("trackId", track.ID),
		logger.String("title", track.Title),
		logger.String("origin", string(track.Origin)))
	return nil
}

// toggleLocked flips play/pause for the current track without resetting
// the channel.
func (c *Controller) toggleLocked() error {
	if c.playing {
		c.primary.Pause()
		c.playing = false
		return nil
	}
	if err := c.primary.Play(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackStart, err)
	}
	c.playing = true
	return nil
}

// tick reads the channel position, evaluates the crossfade trigger and
// end-of-track, and publishes the snapshot. Suspended while seeking.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.current == nil || c.seeking {
		c.mu.Unlock()
		return
	}

	position := c.primary.Position()
	duration := c.durationLocked()

	if c.playing && c.crossfadeEnabled && shouldCrossfade(position, duration, c.fade != nil) {
		c.beginCrossfadeLocked()
		state := c.stateLocked()
		c.mu.Unlock()
		c.publish(state)
		return
	}

	ended := c.playing && c.fade == nil && duration > 0 && position >= duration
	state := c.stateLocked()
	c.mu.Unlock()

	c.publish(state)
	if ended {
		if err := c.OnTrackEnded(); err != nil {
			logger.Warn("failed to advance after track end", logger.ErrorField(err))
		}
	}
}

// beginCrossfadeLocked snapshots the playing channel as outgoing, starts
// the next track on a fresh channel at volume zero and launches the ramp.
func (c *Controller) beginCrossfadeLocked() {
	next := c.lib.Next(c.current.ID)
	if next == nil || next.ID == c.current.ID {
		return // single-track library: let the ordinary ended path loop
	}
	if !next.Playable() {
		logger.Warn("skipping crossfade into unplayable track",
			logger.String("trackId", next.ID), logger.String("title", next.Title))
		return
	}

	incoming := c.newChannel()
	if err := incoming.Load(locatorOf(next), next.Duration); err != nil {
		logger.Warn("crossfade load failed", logger.ErrorField(err))
		return
	}
	incoming.SetVolume(0)
	if err := incoming.Play(); err != nil {
		logger.Warn("crossfade start failed", logger.ErrorField(err))
		return
	}

	outgoing := c.primary
	c.fadingFromID = c.current.ID
	c.outgoing = outgoing
	c.primary = incoming
	c.current = next

	f := newFade(c.fadeSteps, c.fadeStepInterval)
	c.fade = f

	for _, fn := range c.startListeners {
		fn(next)
	}
	logger.Info("crossfade started",
		logger.String("from", c.fadingFromID),
		logger.String("to", next.ID))

	go c.runFade(f, outgoing, incoming, c.volume)
}

// cancelFadeLocked abandons an in-flight ramp: the outgoing channel is
// stopped immediately and the ramp goroutine exits at its next step.
func (c *Controller) cancelFadeLocked() {
	if c.fade == nil {
		return
	}
	close(c.fade.cancel)
	c.fade = nil
	if c.outgoing != nil {
		c.outgoing.Stop()
		c.outgoing = nil
	}
	c.fadingFromID = ""
	if c.primary != nil {
		c.primary.SetVolume(c.volume)
	}
}

// handleRemoved reacts to library removals: when the current track (or the
// one fading out) disappears, the controller advances or falls idle.
func (c *Controller) handleRemoved(id string) {
	c.mu.Lock()
	if c.fadingFromID == id {
		c.cancelFadeLocked()
		state := c.stateLocked()
		c.mu.Unlock()
		c.publish(state)
		return
	}
	if c.current == nil || c.current.ID != id {
		c.mu.Unlock()
		return
	}

	c.cancelFadeLocked()
	next := c.lib.Next(id)
	if next == nil {
		if c.primary != nil {
			c.primary.Stop()
			c.primary = nil
		}
		c.current = nil
		c.playing = false
		state := c.stateLocked()
		c.mu.Unlock()
		c.publish(state)
		return
	}
	if err := c.startTrackLocked(next); err != nil {
		logger.Warn("failed to advance off removed track", logger.ErrorField(err))
	}
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
}

func (c *Controller) durationLocked() float64 {
	duration := c.primary.Duration()
	if duration <= 0 {
		duration = c.current.Duration
	}
	return duration
}

func (c *Controller) stateLocked() model.PlayerState {
	state := model.PlayerState{ActiveLyric: -1}
	if c.current == nil {
		return state
	}
	state.TrackID = c.current.ID
	state.Title = c.current.Title
	state.Artist = c.current.Artist
	state.CoverURL = c.current.CoverURL
	state.IsPlaying = c.playing
	state.Position = c.primary.Position()
	state.Duration = c.durationLocked()
	state.FadingFromID = c.fadingFromID
	state.ActiveLyric = lyrics.ActiveLineIndex(state.Position, c.current.Lyrics)
	return state
}

// publish fans a snapshot out to the listeners, outside the lock.
func (c *Controller) publish(state model.PlayerState) {
	c.mu.Lock()
	listeners := make([]StateListener, len(c.stateListeners))
	copy(listeners, c.stateListeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(state)
	}
}

// locatorOf picks the channel locator: the stream URL, or the external
// video id for catalog items played through the external channel.
func locatorOf(track *model.Track) string {
	if track.StreamURL != "" {
		return track.StreamURL
	}
	return "external:" + track.VideoID
}
