package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"CrossFM/logger"
	"CrossFM/model"
	"CrossFM/repository"
)

// locatorExpiry bounds how long a regenerated playable locator stays valid.
// LoadAll is called once at startup, so a generous window is fine; calling
// it again simply mints fresh locators.
const locatorExpiry = 24 * time.Hour

// TrackStore is the durable home of tracks that carry a binary payload:
// metadata rows in MySQL, payload objects in MinIO. The in-memory library
// stays the source of truth for the running session; every operation here
// is best-effort from the caller's point of view.
type TrackStore struct {
	repo    repository.TrackRepository
	objects ObjectStore
}

// NewTrackStore composes the metadata repository and the object store.
func NewTrackStore(repo repository.TrackRepository, objects ObjectStore) *TrackStore {
	return &TrackStore{repo: repo, objects: objects}
}

// PayloadKey derives the object key for a track's audio payload.
func PayloadKey(trackID string) string {
	return fmt.Sprintf("audio/%s", trackID)
}

// Put inserts or overwrites the entry keyed by the track id: the payload
// object first, then the metadata row. The ephemeral StreamURL is never
// written; it is regenerated on load.
func (s *TrackStore) Put(ctx context.Context, track *model.Track, payload io.Reader, size int64, contentType string) error {
	key := PayloadKey(track.ID)
	if err := s.objects.Put(ctx, key, payload, size, contentType); err != nil {
		return fmt.Errorf("failed to store payload for track %s: %w", track.ID, err)
	}
	track.PayloadKey = key

	if err := s.repo.UpsertTrack(track); err != nil {
		return fmt.Errorf("failed to store metadata for track %s: %w", track.ID, err)
	}
	return nil
}

// UpdateMetadata overwrites an existing entry's non-binary fields, used
// after a lyric fetch. No-op for tracks that were never persisted.
func (s *TrackStore) UpdateMetadata(ctx context.Context, track *model.Track) error {
	if track.PayloadKey == "" {
		return nil
	}
	stored, err := s.repo.HasTrack(track.ID)
	if err != nil {
		return fmt.Errorf("failed to check stored state for track %s: %w", track.ID, err)
	}
	if !stored {
		return nil
	}
	return s.repo.UpdateTrackMetadata(track)
}

// Remove deletes the entry; no-op if absent.
func (s *TrackStore) Remove(ctx context.Context, id string) error {
	if err := s.objects.Remove(ctx, PayloadKey(id)); err != nil {
		// The row is still removed; an orphaned object only wastes space.
		logger.Warn("failed to remove payload object", logger.String("trackId", id), logger.ErrorField(err))
	}
	if err := s.repo.DeleteTrack(id); err != nil {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	return nil
}

// Payload opens the stored binary payload for a track, for handing to
// external services without re-prompting for the file.
func (s *TrackStore) Payload(ctx context.Context, id string) (io.ReadCloser, error) {
	return s.objects.Get(ctx, PayloadKey(id))
}

// LoadAll returns every stored entry with its playable locator freshly
// regenerated from the stored payload. Entries whose locator cannot be
// regenerated are returned without one and logged; the caller decides how
// to surface that.
func (s *TrackStore) LoadAll(ctx context.Context) ([]*model.Track, error) {
	tracks, err := s.repo.GetAllTracks()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored tracks: %w", err)
	}

	for _, track := range tracks {
		if track.PayloadKey == "" {
			continue
		}
		locator, err := s.objects.PresignedURL(ctx, track.PayloadKey, locatorExpiry)
		if err != nil {
			logger.Warn("failed to regenerate playable locator",
				logger.String("trackId", track.ID), logger.ErrorField(err))
			continue
		}
		track.StreamURL = locator
	}
	return tracks, nil
}
