package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"CrossFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTrackRepository is an in-memory TrackRepository for tests.
type memTrackRepository struct {
	rows map[string]model.Track
}

func newMemTrackRepository() *memTrackRepository {
	return &memTrackRepository{rows: make(map[string]model.Track)}
}

func (r *memTrackRepository) UpsertTrack(track *model.Track) error {
	row := *track
	row.StreamURL = "" // the schema has no locator column
	r.rows[track.ID] = row
	return nil
}

func (r *memTrackRepository) GetTrackByID(id string) (*model.Track, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := row
	return &copied, nil
}

func (r *memTrackRepository) GetAllTracks() ([]*model.Track, error) {
	var out []*model.Track
	for _, row := range r.rows {
		copied := row
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memTrackRepository) UpdateTrackMetadata(track *model.Track) error {
	if _, ok := r.rows[track.ID]; !ok {
		return fmt.Errorf("track %s not found", track.ID)
	}
	row := *track
	row.StreamURL = ""
	r.rows[track.ID] = row
	return nil
}

func (r *memTrackRepository) DeleteTrack(id string) error {
	delete(r.rows, id)
	return nil
}

func (r *memTrackRepository) HasTrack(id string) (bool, error) {
	_, ok := r.rows[id]
	return ok, nil
}

// memObjectStore is an in-memory ObjectStore; presigned URLs change on
// every call, like the real thing.
type memObjectStore struct {
	objects   map[string][]byte
	presigns  int
	removeErr error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) Put(ctx context.Context, key string, payload io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(payload)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memObjectStore) Remove(ctx context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memObjectStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	s.presigns++
	return fmt.Sprintf("http://minio.local/%s?sig=%d", key, s.presigns), nil
}

func storedTrack(id string) *model.Track {
	return &model.Track{
		ID:       id,
		Title:    "Track " + id,
		Artist:   "Artist",
		Duration: 180,
		Origin:   model.OriginUploaded,
		Lyrics:   []model.LyricLine{{Time: 5, Text: "hello"}},
	}
}

func TestPutAndLoadAllRoundTrip(t *testing.T) {
	repo := newMemTrackRepository()
	objects := newMemObjectStore()
	store := NewTrackStore(repo, objects)
	ctx := context.Background()

	track := storedTrack("a")
	track.StreamURL = "blob:ephemeral" // must not survive persistence
	payload := strings.NewReader("audio-bytes")
	require.NoError(t, store.Put(ctx, track, payload, int64(payload.Len()), "audio/mpeg"))
	assert.Equal(t, "audio/a", track.PayloadKey)

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, track.ID, got.ID)
	assert.Equal(t, track.Title, got.Title)
	assert.Equal(t, track.Lyrics, got.Lyrics)
	assert.NotEqual(t, "blob:ephemeral", got.StreamURL, "locators are regenerated, never stored")
	assert.Contains(t, got.StreamURL, "audio/a")
}

func TestLoadAllMintsFreshLocators(t *testing.T) {
	repo := newMemTrackRepository()
	objects := newMemObjectStore()
	store := NewTrackStore(repo, objects)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storedTrack("a"), strings.NewReader("x"), 1, "audio/mpeg"))

	first, err := store.LoadAll(ctx)
	require.NoError(t, err)
	second, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].StreamURL, second[0].StreamURL, "every load mints a fresh locator")
}

func TestRemove(t *testing.T) {
	repo := newMemTrackRepository()
	objects := newMemObjectStore()
	store := NewTrackStore(repo, objects)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storedTrack("a"), strings.NewReader("x"), 1, "audio/mpeg"))
	require.NoError(t, store.Remove(ctx, "a"))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	exists, _ := objects.Exists(ctx, PayloadKey("a"))
	assert.False(t, exists)
}

func TestRemoveSurvivesObjectFailure(t *testing.T) {
	repo := newMemTrackRepository()
	objects := newMemObjectStore()
	store := NewTrackStore(repo, objects)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storedTrack("a"), strings.NewReader("x"), 1, "audio/mpeg"))
	objects.removeErr = errors.New("connection refused")

	require.NoError(t, store.Remove(ctx, "a"), "the row still goes even when the object sticks around")
	has, _ := repo.HasTrack("a")
	assert.False(t, has)
}

func TestUpdateMetadata(t *testing.T) {
	repo := newMemTrackRepository()
	objects := newMemObjectStore()
	store := NewTrackStore(repo, objects)
	ctx := context.Background()

	track := storedTrack("a")
	require.NoError(t, store.Put(ctx, track, strings.NewReader("x"), 1, "audio/mpeg"))

	track.Lyrics = []model.LyricLine{{Time: 1, Text: "updated"}}
	require.NoError(t, store.UpdateMetadata(ctx, track))

	row, err := repo.GetTrackByID("a")
	require.NoError(t, err)
	assert.Equal(t, "updated", row.Lyrics[0].Text)
}

func TestUpdateMetadataSkipsUnstoredTracks(t *testing.T) {
	repo := newMemTrackRepository()
	store := NewTrackStore(repo, newMemObjectStore())
	ctx := context.Background()

	// Session-only track: no payload key, nothing on disk.
	require.NoError(t, store.UpdateMetadata(ctx, storedTrack("ghost")))
	has, _ := repo.HasTrack("ghost")
	assert.False(t, has)

	// Payload key set but the row was deleted out from under us.
	deleted := storedTrack("gone")
	deleted.PayloadKey = PayloadKey("gone")
	require.NoError(t, store.UpdateMetadata(ctx, deleted))
	has, _ = repo.HasTrack("gone")
	assert.False(t, has)
}

func TestPayload(t *testing.T) {
	repo := newMemTrackRepository()
	objects := newMemObjectStore()
	store := NewTrackStore(repo, objects)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storedTrack("a"), strings.NewReader("audio-bytes"), 11, "audio/mpeg"))

	rc, err := store.Payload(ctx, "a")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}
