package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CrossFM/cache"
	"CrossFM/config"
	"CrossFM/core/catalog"
	"CrossFM/core/library"
	"CrossFM/core/lyrics"
	"CrossFM/core/player"
	"CrossFM/db"
	"CrossFM/logger"
	"CrossFM/model"
	"CrossFM/repository"
	"CrossFM/storage"

	"github.com/gorilla/mux"
)

// historyRetentionDays bounds how far back the play history is kept.
const historyRetentionDays = 90

// Start wires the components and runs the HTTP server until interrupted.
//
// External dependencies degrade rather than abort: when MySQL, Redis or
// MinIO is unreachable the player still runs with an in-memory library,
// and the affected endpoints answer 503.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
	})
	defer logger.Sync()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Object storage.
	var objects storage.ObjectStore
	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("MinIO unavailable, uploads and durable payloads disabled", logger.ErrorField(err))
	} else {
		objects = storage.NewMinioObjectStore(cfg.MinioBucket)
	}

	// Track rows.
	var trackRepo repository.TrackRepository
	if err := db.ConnectDB(cfg); err != nil {
		logger.Warn("MySQL unavailable, track persistence disabled", logger.ErrorField(err))
	} else {
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			logger.Error("failed to initialize database schema", logger.ErrorField(err))
		} else {
			trackRepo = repository.NewMySQLTrackRepository()
		}
	}

	// Play history rides on GORM, separate from the prepared-statement
	// track path.
	var history repository.HistoryRepository
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Warn("history store unavailable", logger.ErrorField(err))
	} else {
		defer db.CloseGormDB()
		history = repository.NewGormHistoryRepository(db.GormDB)

		// Trim entries older than the retention window on startup.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			cutoff := time.Now().AddDate(0, 0, -historyRetentionDays).UnixMilli()
			if n, err := history.PurgeOlderThan(ctx, cutoff); err != nil {
				logger.Warn("history purge failed", logger.ErrorField(err))
			} else if n > 0 {
				logger.Info("purged old play history", logger.Int64("entries", n))
			}
		}()
	}

	// Redis-backed session state.
	var (
		liked         *cache.LikedCache
		settingsCache *cache.SettingsCache
		lyricsCache   *cache.LyricsCache
	)
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, liked set and saved settings disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
		liked = cache.NewLikedCache(db.RedisClient)
		settingsCache = cache.NewSettingsCache(db.RedisClient)
		lyricsCache = cache.NewLyricsCache(db.RedisClient)
	}

	var store *storage.TrackStore
	if trackRepo != nil && objects != nil {
		store = storage.NewTrackStore(trackRepo, objects)
	}

	// Library and transport.
	lib := library.New()

	settings := model.DefaultSettings()
	if settingsCache != nil {
		loaded, err := settingsCache.Load(context.Background())
		if err != nil {
			logger.Warn("failed to load settings, using defaults", logger.ErrorField(err))
		} else {
			settings = loaded
		}
	}

	ctrl := player.NewController(lib, player.NewClockChannel, player.Options{
		Volume:           settings.Volume,
		CrossfadeEnabled: settings.CrossfadeEnabled,
	})

	if history != nil {
		ctrl.AddStartListener(func(track *model.Track) {
			entry := &model.PlayEntry{
				TrackID:   track.ID,
				Title:     track.Title,
				Artist:    track.Artist,
				Origin:    string(track.Origin),
				StartedAt: time.Now().UnixMilli(),
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := history.Record(ctx, entry); err != nil {
					logger.Warn("failed to record play entry", logger.ErrorField(err))
				}
			}()
		})
	}

	hub := NewPlayerHub(ctrl)
	ctrl.AddStateListener(hub.Broadcast)

	ctrl.Start()
	defer ctrl.Stop()

	// Restore persisted tracks, then bring in the bundled seed files.
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		restored, err := store.LoadAll(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to restore library", logger.ErrorField(err))
		} else {
			for _, track := range restored {
				if err := lib.Add(track); err != nil && !errors.Is(err, library.ErrDuplicateID) {
					logger.Warn("skipping restored track", logger.String("trackId", track.ID), logger.ErrorField(err))
				}
			}
			logger.Info("library restored", logger.Int("tracks", len(restored)))
		}
	}

	watcher, err := NewImportWatcher(cfg.SeedDir, lib)
	if err != nil {
		logger.Warn("seed import disabled", logger.ErrorField(err))
	} else {
		defer watcher.Close()
		watcher.ScanOnce()
		go watcher.Run()
	}

	lyricSvc := lyrics.NewService(lyrics.NewClient(cfg.LyricsAPIURL), lib, store, lyricsCache)
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL)

	apiHandler := NewAPIHandler(cfg, lib, ctrl, store, objects, lyricSvc, catalogClient, liked, settingsCache, history, settings)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Library
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.GetTracksHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", apiHandler.AuthMiddleware(apiHandler.UploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.PatchTrackHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/audio", apiHandler.AuthMiddleware(apiHandler.DownloadTrackHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/play-next", apiHandler.AuthMiddleware(apiHandler.PlayNextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}/lyrics", apiHandler.AuthMiddleware(apiHandler.FetchLyricsHandler)).Methods(http.MethodPost)

	// Transport
	router.HandleFunc("/api/player/play", apiHandler.AuthMiddleware(apiHandler.PlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/pause", apiHandler.AuthMiddleware(apiHandler.PauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/resume", apiHandler.AuthMiddleware(apiHandler.ResumeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek", apiHandler.AuthMiddleware(apiHandler.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek/start", apiHandler.AuthMiddleware(apiHandler.SeekStartHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/seek/end", apiHandler.AuthMiddleware(apiHandler.SeekEndHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/next", apiHandler.AuthMiddleware(apiHandler.NextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/previous", apiHandler.AuthMiddleware(apiHandler.PreviousHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/status", apiHandler.AuthMiddleware(apiHandler.StatusHandler)).Methods(http.MethodGet)

	// Liked set
	router.HandleFunc("/api/tracks/{id}/like", apiHandler.AuthMiddleware(apiHandler.LikeHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}/like", apiHandler.AuthMiddleware(apiHandler.UnlikeHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/liked", apiHandler.AuthMiddleware(apiHandler.LikedHandler)).Methods(http.MethodGet)

	// Catalog
	router.HandleFunc("/api/catalog/search", apiHandler.AuthMiddleware(apiHandler.SearchCatalogHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/catalog/download", apiHandler.AuthMiddleware(apiHandler.DownloadCatalogItemHandler)).Methods(http.MethodPost)

	// History and settings
	router.HandleFunc("/api/history", apiHandler.AuthMiddleware(apiHandler.HistoryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/settings", apiHandler.AuthMiddleware(apiHandler.GetSettingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/settings", apiHandler.AuthMiddleware(apiHandler.UpdateSettingsHandler)).Methods(http.MethodPut)

	// Live transport state
	router.HandleFunc("/ws/player", hub.HandleWS)

	// Bundled seed audio is served straight off disk.
	seedFileServer := http.FileServer(http.Dir(cfg.SeedDir))
	router.PathPrefix("/seed/").Handler(http.StripPrefix("/seed/", seedFileServer))

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
