package server

import (
	"os"
	"path/filepath"
	"testing"

	"CrossFM/core/library"
	"CrossFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644))
}

func TestScanOnceImportsAudioFiles(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "Artist Name - Song Title.mp3")
	writeSeedFile(t, dir, "plain.flac")
	writeSeedFile(t, dir, "notes.txt")
	writeSeedFile(t, dir, "cover.jpg")

	lib := library.New()
	watcher, err := NewImportWatcher(dir, lib)
	require.NoError(t, err)
	defer watcher.Close()

	watcher.ScanOnce()
	require.Equal(t, 2, lib.Len(), "only audio extensions are imported")

	var titled *model.Track
	for _, tr := range lib.Snapshot() {
		assert.Equal(t, model.OriginBundled, tr.Origin)
		assert.True(t, tr.Playable())
		if tr.Artist != "" {
			titled = tr
		}
	}
	require.NotNil(t, titled)
	assert.Equal(t, "Artist Name", titled.Artist)
	assert.Equal(t, "Song Title", titled.Title)
	assert.Equal(t, "/seed/Artist Name - Song Title.mp3", titled.StreamURL)
}

func TestScanOnceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "one.mp3")

	lib := library.New()
	watcher, err := NewImportWatcher(dir, lib)
	require.NoError(t, err)
	defer watcher.Close()

	watcher.ScanOnce()
	watcher.ScanOnce()
	assert.Equal(t, 1, lib.Len())
}

func TestScanOnceSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.mp3"), nil, 0o644))

	lib := library.New()
	watcher, err := NewImportWatcher(dir, lib)
	require.NoError(t, err)
	defer watcher.Close()

	watcher.ScanOnce()
	assert.Equal(t, 0, lib.Len(), "zero-byte files are still being written")
}

func TestNewImportWatcherCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "seed")
	watcher, err := NewImportWatcher(dir, library.New())
	require.NoError(t, err)
	defer watcher.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
