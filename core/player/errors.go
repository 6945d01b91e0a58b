package player

import "errors"

// All player errors are recoverable: the worst case is "this action didn't
// work", never a crash.
var (
	// ErrNoPlayableSource means the track has neither a resolved stream
	// locator nor an external video id, e.g. a catalog item that has not
	// been downloaded yet.
	ErrNoPlayableSource = errors.New("track has no playable source")

	// ErrPlaybackStart means the channel refused to start playback. The
	// controller reverts to paused and does not retry.
	ErrPlaybackStart = errors.New("playback failed to start")

	// ErrUnknownTrack means the id is not in the library.
	ErrUnknownTrack = errors.New("track not found in library")

	// ErrNotLoaded means pause/resume was issued with no current track.
	ErrNotLoaded = errors.New("no track loaded")
)
