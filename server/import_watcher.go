package server

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"CrossFM/core/library"
	"CrossFM/logger"
	"CrossFM/model"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

var seedAudioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
}

// ImportWatcher scans the seed directory at startup and keeps watching it,
// adding any audio file it finds to the library as a bundled track. Seed
// tracks are served straight off disk and never written to object storage.
type ImportWatcher struct {
	dir     string
	lib     *library.Library
	watcher *fsnotify.Watcher
	seen    map[string]string // relative path -> track id
}

// NewImportWatcher creates a watcher for dir. The directory is created if
// it does not exist.
func NewImportWatcher(dir string, lib *library.Library) (*ImportWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &ImportWatcher{
		dir:     dir,
		lib:     lib,
		watcher: w,
		seen:    make(map[string]string),
	}, nil
}

// ScanOnce walks the seed directory and imports every audio file present.
func (iw *ImportWatcher) ScanOnce() {
	entries, err := os.ReadDir(iw.dir)
	if err != nil {
		logger.Warn("seed directory scan failed", logger.ErrorField(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		iw.importFile(entry.Name())
	}
}

// Run consumes filesystem events until the watcher is closed. Call in a
// goroutine after ScanOnce.
func (iw *ImportWatcher) Run() {
	for {
		select {
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// Writers may still be flushing when the event arrives.
			time.Sleep(200 * time.Millisecond)
			iw.importFile(filepath.Base(event.Name))
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("seed watcher error", logger.ErrorField(err))
		}
	}
}

// Close stops the watcher.
func (iw *ImportWatcher) Close() error {
	return iw.watcher.Close()
}

func (iw *ImportWatcher) importFile(name string) {
	ext := strings.ToLower(filepath.Ext(name))
	if !seedAudioExts[ext] {
		return
	}
	if _, ok := iw.seen[name]; ok {
		return
	}

	info, err := os.Stat(filepath.Join(iw.dir, name))
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}

	title := strings.TrimSuffix(name, ext)
	artist := ""
	if idx := strings.Index(title, " - "); idx > 0 {
		artist = title[:idx]
		title = title[idx+3:]
	}

	track := &model.Track{
		ID:        uuid.New().String(),
		Title:     title,
		Artist:    artist,
		StreamURL: "/seed/" + name,
		Origin:    model.OriginBundled,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := iw.lib.Add(track); err != nil {
		logger.Warn("seed import rejected", logger.String("file", name), logger.ErrorField(err))
		return
	}
	iw.seen[name] = track.ID
	logger.Info("seed track imported",
		logger.String("file", name),
		logger.String("trackId", track.ID),
		logger.String("title", track.Title))
}
