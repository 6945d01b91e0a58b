package library

import (
	"fmt"
	"testing"

	"CrossFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrack(id string) *model.Track {
	return &model.Track{ID: id, Title: "Track " + id, StreamURL: "http://example.com/" + id}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	lib := New()
	require.NoError(t, lib.Add(newTrack("a")))
	err := lib.Add(newTrack("a"))
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, lib.Len())
}

func TestRemove(t *testing.T) {
	lib := New()
	require.NoError(t, lib.Add(newTrack("a")))
	require.NoError(t, lib.Add(newTrack("b")))

	assert.True(t, lib.Remove("a"))
	assert.False(t, lib.Remove("a"))
	assert.Nil(t, lib.ByID("a"))
	assert.Equal(t, 1, lib.Len())
}

func TestRemoveNotifiesObserver(t *testing.T) {
	lib := New()
	require.NoError(t, lib.Add(newTrack("a")))

	var removed []string
	lib.SetRemoveObserver(func(id string) { removed = append(removed, id) })

	lib.Remove("a")
	lib.Remove("missing")
	assert.Equal(t, []string{"a"}, removed)
}

func TestNextPreviousWrapAround(t *testing.T) {
	lib := New()
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		require.NoError(t, lib.Add(newTrack(id)))
	}

	assert.Equal(t, "b", lib.Next("a").ID)
	assert.Equal(t, "a", lib.Next("c").ID, "next wraps to the first track")
	assert.Equal(t, "c", lib.Previous("a").ID, "previous wraps to the last track")
	assert.Equal(t, "b", lib.Previous("c").ID)

	// Unknown ids fall back to the ends of the list.
	assert.Equal(t, "a", lib.Next("missing").ID)
	assert.Equal(t, "c", lib.Previous("missing").ID)
}

func TestNextVisitsEveryTrackOnce(t *testing.T) {
	lib := New()
	const n = 7
	for i := 0; i < n; i++ {
		require.NoError(t, lib.Add(newTrack(fmt.Sprintf("t%d", i))))
	}

	seen := make(map[string]bool)
	id := "t0"
	for i := 0; i < n; i++ {
		seen[id] = true
		id = lib.Next(id).ID
	}
	assert.Len(t, seen, n, "n next steps visit all n tracks")
	assert.Equal(t, "t0", id, "n next steps return to the start")
}

func TestNextPreviousEmptyLibrary(t *testing.T) {
	lib := New()
	assert.Nil(t, lib.Next("anything"))
	assert.Nil(t, lib.Previous("anything"))
}

func TestReorderAfterCurrent(t *testing.T) {
	lib := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, lib.Add(newTrack(id)))
	}

	// Pull d up to play right after a.
	lib.ReorderAfterCurrent("d", "a")
	assert.Equal(t, []string{"a", "d", "b", "c"}, snapshotIDs(lib))

	// Push b back behind c.
	lib.ReorderAfterCurrent("b", "c")
	assert.Equal(t, []string{"a", "d", "c", "b"}, snapshotIDs(lib))
}

func TestReorderAfterCurrentNoop(t *testing.T) {
	lib := New()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, lib.Add(newTrack(id)))
	}

	lib.ReorderAfterCurrent("a", "a")
	lib.ReorderAfterCurrent("missing", "a")
	lib.ReorderAfterCurrent("b", "missing")
	assert.Equal(t, []string{"a", "b"}, snapshotIDs(lib))
}

func TestPatch(t *testing.T) {
	lib := New()
	require.NoError(t, lib.Add(newTrack("a")))

	ok := lib.Patch("a", func(tr *model.Track) { tr.Title = "Renamed" })
	assert.True(t, ok)
	assert.Equal(t, "Renamed", lib.ByID("a").Title)

	assert.False(t, lib.Patch("missing", func(tr *model.Track) {}))
}

func TestSnapshotIsACopy(t *testing.T) {
	lib := New()
	require.NoError(t, lib.Add(newTrack("a")))
	require.NoError(t, lib.Add(newTrack("b")))

	snap := lib.Snapshot()
	snap[0] = nil
	assert.Equal(t, "a", lib.ByID("a").ID)
	assert.Equal(t, 2, lib.Len())
}

func snapshotIDs(lib *Library) []string {
	var ids []string
	for _, tr := range lib.Snapshot() {
		ids = append(ids, tr.ID)
	}
	return ids
}
