package library

import (
	"errors"
	"sync"

	"CrossFM/model"
)

// ErrDuplicateID is returned when a track with the same id is added twice.
var ErrDuplicateID = errors.New("track id already in library")

// Library is the single in-memory source of truth for what tracks exist
// and in what order. Insertion order is preserved except where an explicit
// reorder splices an entry. All access is serialized by the internal mutex;
// handlers and the player ticker run on different goroutines.
type Library struct {
	mu     sync.RWMutex
	tracks []*model.Track

	// onRemove is invoked (outside the lock) with the id of every removed
	// track, so the playback controller can advance off a deleted current
	// track.
	onRemove func(id string)
}

// New creates an empty library.
func New() *Library {
	return &Library{}
}

// SetRemoveObserver registers the callback invoked after a track is removed.
func (l *Library) SetRemoveObserver(fn func(id string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onRemove = fn
}

// Add appends a track. The id must not already exist.
func (l *Library) Add(track *model.Track) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexOfLocked(track.ID) >= 0 {
		return ErrDuplicateID
	}
	l.tracks = append(l.tracks, track)
	return nil
}

// Remove deletes a track by id and reports whether anything was removed.
func (l *Library) Remove(id string) bool {
	l.mu.Lock()
	idx := l.indexOfLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.tracks = append(l.tracks[:idx], l.tracks[idx+1:]...)
	observer := l.onRemove
	l.mu.Unlock()

	if observer != nil {
		observer(id)
	}
	return true
}

// ReorderAfterCurrent removes the track at id and reinserts it immediately
// after currentID ("play next"). No-op if either id is absent or they are
// the same track.
func (l *Library) ReorderAfterCurrent(id, currentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id == currentID {
		return
	}
	from := l.indexOfLocked(id)
	if from < 0 || l.indexOfLocked(currentID) < 0 {
		return
	}

	track := l.tracks[from]
	l.tracks = append(l.tracks[:from], l.tracks[from+1:]...)

	// Recompute after the removal shifted positions.
	to := l.indexOfLocked(currentID) + 1
	l.tracks = append(l.tracks, nil)
	copy(l.tracks[to+1:], l.tracks[to:])
	l.tracks[to] = track
}

// Patch applies a mutation to the track with the given id under the lock.
// Reports whether the track was found.
func (l *Library) Patch(id string, apply func(t *model.Track)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOfLocked(id)
	if idx < 0 {
		return false
	}
	apply(l.tracks[idx])
	return true
}

// ByID returns the track with the given id, or nil.
func (l *Library) ByID(id string) *model.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexOfLocked(id)
	if idx < 0 {
		return nil
	}
	return l.tracks[idx]
}

// IndexOf returns the position of the id, or -1.
func (l *Library) IndexOf(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOfLocked(id)
}

// Next returns the track after currentID, wrapping around. When currentID
// is unknown it falls back to the first track. Nil on an empty library.
func (l *Library) Next(currentID string) *model.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.tracks) == 0 {
		return nil
	}
	idx := l.indexOfLocked(currentID)
	if idx < 0 {
		return l.tracks[0]
	}
	return l.tracks[(idx+1)%len(l.tracks)]
}

// Previous returns the track before currentID, wrapping around. When
// currentID is unknown it falls back to the last track. Nil on an empty
// library.
func (l *Library) Previous(currentID string) *model.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.tracks) == 0 {
		return nil
	}
	idx := l.indexOfLocked(currentID)
	if idx < 0 {
		return l.tracks[len(l.tracks)-1]
	}
	return l.tracks[(idx-1+len(l.tracks))%len(l.tracks)]
}

// Len returns the number of tracks.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Snapshot returns a copy of the ordered track list.
func (l *Library) Snapshot() []*model.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.Track, len(l.tracks))
	copy(out, l.tracks)
	return out
}

func (l *Library) indexOfLocked(id string) int {
	for i, t := range l.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
