package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"CrossFM/cache"
	"CrossFM/config"
	"CrossFM/core/auth"
	"CrossFM/core/catalog"
	"CrossFM/core/library"
	"CrossFM/core/lyrics"
	"CrossFM/core/player"
	"CrossFM/logger"
	"CrossFM/model"
	"CrossFM/repository"
	"CrossFM/storage"
)

// APIHandler carries the wired components behind the HTTP surface.
type APIHandler struct {
	cfg     *config.Config
	lib     *library.Library
	player  *player.Controller
	store   *storage.TrackStore // nil when persistence is unavailable
	objects storage.ObjectStore // nil when object storage is unavailable
	lyrics  *lyrics.Service
	catalog *catalog.Client
	liked   *cache.LikedCache
	setCab  *cache.SettingsCache
	history repository.HistoryRepository // nil when the database is unavailable

	settingsMu sync.Mutex
	settings   model.Settings
}

// NewAPIHandler creates the API handler over the wired components.
func NewAPIHandler(
	cfg *config.Config,
	lib *library.Library,
	ctrl *player.Controller,
	store *storage.TrackStore,
	objects storage.ObjectStore,
	lyricSvc *lyrics.Service,
	catalogClient *catalog.Client,
	liked *cache.LikedCache,
	settingsCache *cache.SettingsCache,
	history repository.HistoryRepository,
	settings model.Settings,
) *APIHandler {
	return &APIHandler{
		cfg:      cfg,
		lib:      lib,
		player:   ctrl,
		store:    store,
		objects:  objects,
		lyrics:   lyricSvc,
		catalog:  catalogClient,
		liked:    liked,
		setCab:   settingsCache,
		history:  history,
		settings: settings,
	}
}

// respondJSON writes a JSON response body.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginHandler exchanges the configured password for a session token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthPasswordHash == "" {
		respondError(w, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "password is required")
		return
	}

	if !auth.CheckPasswordHash(req.Password, h.cfg.AuthPasswordHash) {
		logger.Warn("login rejected")
		respondError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := auth.GenerateToken(h.cfg.AuthSecret)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// AuthMiddleware checks for a valid session token. A blank configured
// password hash disables auth entirely.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AuthPasswordHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "authorization header is required")
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}
		if _, err := auth.ParseToken(parts[1], h.cfg.AuthSecret); err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}
