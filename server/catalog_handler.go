package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"CrossFM/logger"
	"CrossFM/model"

	"github.com/google/uuid"
)

// SearchCatalogHandler proxies a query to the external catalog.
func (h *APIHandler) SearchCatalogHandler(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil || !h.catalog.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "catalog provider not configured")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.catalog.Search(r.Context(), query, limit)
	if err != nil {
		logger.Warn("catalog search failed", logger.String("query", query), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "catalog search failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// DownloadRequest names the catalog item to fetch for offline playback.
type DownloadRequest struct {
	VideoID      string  `json:"videoId"`
	Title        string  `json:"title"`
	Channel      string  `json:"channel"`
	ThumbnailURL string  `json:"thumbnail"`
	Duration     float64 `json:"duration"`
}

// DownloadCatalogItemHandler fetches an external item's audio, stages the
// payload in object storage for this session and adds a playable library
// entry. External tracks are not written to the durable track store; they
// can be re-fetched from the catalog.
func (h *APIHandler) DownloadCatalogItemHandler(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil || !h.catalog.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "catalog provider not configured")
		return
	}
	if h.objects == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is unavailable")
		return
	}

	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VideoID == "" {
		respondError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	ctx := r.Context()
	audio, size, contentType, err := h.catalog.ResolveAudio(ctx, req.VideoID)
	if err != nil {
		logger.Warn("catalog download failed", logger.String("videoId", req.VideoID), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "item is not available offline yet")
		return
	}
	defer audio.Close()

	track := &model.Track{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Artist:    req.Channel,
		Duration:  req.Duration,
		VideoID:   req.VideoID,
		CoverURL:  req.ThumbnailURL,
		Origin:    model.OriginExternal,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	key := fmt.Sprintf("external/%s", track.ID)
	if err := h.objects.Put(ctx, key, audio, size, contentType); err != nil {
		logger.Error("failed to stage external payload", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to store downloaded audio")
		return
	}

	locator, err := h.objects.PresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		logger.Error("failed to presign external payload", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to prepare downloaded audio")
		return
	}
	track.StreamURL = locator

	if err := h.lib.Add(track); err != nil {
		respondError(w, http.StatusConflict, "track already exists")
		return
	}

	logger.Info("catalog item downloaded",
		logger.String("videoId", req.VideoID),
		logger.String("trackId", track.ID))
	respondJSON(w, http.StatusCreated, track)
}
