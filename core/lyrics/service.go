package lyrics

import (
	"context"
	"fmt"
	"sync"

	"CrossFM/cache"
	"CrossFM/core/library"
	"CrossFM/logger"
	"CrossFM/model"
)

// MetadataStore is the slice of the track store the service needs: persist
// updated metadata for tracks that have a stored payload.
type MetadataStore interface {
	UpdateMetadata(ctx context.Context, track *model.Track) error
}

// Service fetches lyrics and attaches them to library tracks. Results are
// keyed to the track they were requested for, and a per-track request
// generation discards a fetch that resolves after a newer one was issued,
// so a slow response can never clobber fresher lyrics.
type Service struct {
	client *Client
	lib    *library.Library
	store  MetadataStore      // optional
	cache  *cache.LyricsCache // optional

	mu  sync.Mutex
	gen map[string]uint64
}

// NewService creates the lyric service. store and lyricsCache may be nil.
func NewService(client *Client, lib *library.Library, store MetadataStore, lyricsCache *cache.LyricsCache) *Service {
	return &Service{
		client: client,
		lib:    lib,
		store:  store,
		cache:  lyricsCache,
		gen:    make(map[string]uint64),
	}
}

// FetchAndAttach fetches lyrics for the track, normalizes them into the
// line model and attaches them via a library patch. On failure any
// previously attached lyrics are preserved; a track with none gets the
// single placeholder line.
func (s *Service) FetchAndAttach(ctx context.Context, trackID string) ([]model.LyricLine, error) {
	track := s.lib.ByID(trackID)
	if track == nil {
		return nil, fmt.Errorf("track %s not found in library", trackID)
	}

	generation := s.beginRequest(trackID)

	if s.cache != nil {
		lines, citations, err := s.cache.Get(ctx, trackID)
		if err != nil {
			logger.Warn("lyrics cache read failed", logger.String("trackId", trackID), logger.ErrorField(err))
		} else if len(lines) > 0 {
			s.attach(ctx, trackID, generation, lines, citations)
			return lines, nil
		}
	}

	result, err := s.client.Fetch(ctx, track.Artist, track.Title, track.Album)
	if err != nil {
		logger.Warn("lyric fetch failed",
			logger.String("trackId", trackID),
			logger.String("title", track.Title),
			logger.ErrorField(err))
		if s.stale(trackID, generation) {
			return nil, err
		}
		// Preserve anything already attached; only a bare track gets the
		// placeholder.
		placeholder := Placeholder()
		s.lib.Patch(trackID, func(t *model.Track) {
			if len(t.Lyrics) == 0 {
				t.Lyrics = placeholder
			}
		})
		return placeholder, err
	}

	lines := Normalize(result.Synced, result.Plain)
	var citations []model.Citation
	if result.Source != "" {
		citations = []model.Citation{{Title: "Lyrics source", URL: result.Source}}
	}

	if !s.attach(ctx, trackID, generation, lines, citations) {
		return lines, nil
	}

	if s.cache != nil && result.Found() {
		if err := s.cache.Put(ctx, trackID, lines, citations); err != nil {
			logger.Warn("lyrics cache write failed", logger.String("trackId", trackID), logger.ErrorField(err))
		}
	}
	return lines, nil
}

// attach patches the track and persists the update when the track carries
// a stored payload. Returns false when the request generation went stale.
func (s *Service) attach(ctx context.Context, trackID string, generation uint64, lines []model.LyricLine, citations []model.Citation) bool {
	if s.stale(trackID, generation) {
		logger.Debug("discarding stale lyric result", logger.String("trackId", trackID))
		return false
	}

	var patched *model.Track
	s.lib.Patch(trackID, func(t *model.Track) {
		t.Lyrics = lines
		t.Citations = citations
		patched = t
	})
	if patched == nil {
		// Track was deleted while the fetch was outstanding.
		return false
	}

	if s.store != nil && patched.PayloadKey != "" {
		if err := s.store.UpdateMetadata(ctx, patched); err != nil {
			logger.Warn("failed to persist lyric update",
				logger.String("trackId", trackID), logger.ErrorField(err))
		}
	}
	return true
}

func (s *Service) beginRequest(trackID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[trackID]++
	return s.gen[trackID]
}

func (s *Service) stale(trackID string, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[trackID] != generation
}
