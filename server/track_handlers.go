package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"CrossFM/core/library"
	"CrossFM/logger"
	"CrossFM/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// trackView is a library track plus its liked flag.
type trackView struct {
	*model.Track
	Liked bool `json:"liked"`
}

// GetTracksHandler lists the library in order.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks := h.lib.Snapshot()

	likedSet := map[string]bool{}
	if h.liked != nil {
		ids, err := h.liked.All(r.Context())
		if err != nil {
			logger.Warn("failed to load liked set", logger.ErrorField(err))
		}
		for _, id := range ids {
			likedSet[id] = true
		}
	}

	views := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, trackView{Track: t, Liked: likedSet[t.ID]})
	}
	respondJSON(w, http.StatusOK, views)
}

// UploadTrackHandler handles audio file uploads.
// Expected multipart form fields:
//   - trackFile: the audio file
//   - title, artist, album, color: metadata (title required)
//   - duration: seconds, optional until the client has decoded the media
//   - origin: "uploaded" (default) or "ai" for saved generated tracks
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "track storage is unavailable")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory
		respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	trackFile, trackHeader, err := r.FormFile("trackFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing 'trackFile' in form")
		return
	}
	defer trackFile.Close()

	title := r.FormValue("title")
	if title == "" {
		title = trackHeader.Filename
	}
	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)

	origin := model.OriginUploaded
	if r.FormValue("origin") == string(model.OriginAI) {
		origin = model.OriginAI
	}

	track := &model.Track{
		ID:        uuid.NewString(),
		Title:     title,
		Artist:    r.FormValue("artist"),
		Album:     r.FormValue("album"),
		Color:     r.FormValue("color"),
		Duration:  duration,
		Origin:    origin,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	contentType := trackHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	ctx := r.Context()
	if err := h.store.Put(ctx, track, trackFile, trackHeader.Size, contentType); err != nil {
		// In-memory library remains the source of truth for the session;
		// the track is simply not durable.
		logger.Error("failed to persist uploaded track",
			logger.String("trackId", track.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to store track")
		return
	}

	if coverFile, coverHeader, cerr := r.FormFile("coverFile"); cerr == nil {
		defer coverFile.Close()
		h.storeCover(ctx, track, coverFile, coverHeader.Size, coverHeader.Header.Get("Content-Type"))
	}

	// Regenerate the locator the same way a reload would.
	locator, err := h.objects.PresignedURL(ctx, track.PayloadKey, 24*time.Hour)
	if err != nil {
		logger.Warn("failed to presign uploaded payload", logger.ErrorField(err))
	} else {
		track.StreamURL = locator
	}

	if err := h.lib.Add(track); err != nil {
		if err == library.ErrDuplicateID {
			respondError(w, http.StatusConflict, "track already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to add track")
		return
	}

	logger.Info("track uploaded",
		logger.String("trackId", track.ID),
		logger.String("title", track.Title),
		logger.Int64("bytes", trackHeader.Size))
	respondJSON(w, http.StatusCreated, track)
}

func (h *APIHandler) storeCover(ctx context.Context, track *model.Track, cover io.Reader, size int64, contentType string) {
	if h.objects == nil {
		return
	}
	key := fmt.Sprintf("covers/%s", track.ID)
	if err := h.objects.Put(ctx, key, cover, size, contentType); err != nil {
		logger.Warn("failed to store cover art", logger.String("trackId", track.ID), logger.ErrorField(err))
		return
	}
	coverURL, err := h.objects.PresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		logger.Warn("failed to presign cover art", logger.ErrorField(err))
		return
	}
	track.CoverURL = coverURL
}

// DeleteTrackHandler removes a track from the library and, when stored,
// from the track store. The liked set is left alone on purpose.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	track := h.lib.ByID(id)
	if track == nil {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}

	persisted := track.PayloadKey != "" && track.Origin.Persistent()
	if !h.lib.Remove(id) {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}

	if persisted && h.store != nil {
		if err := h.store.Remove(r.Context(), id); err != nil {
			// Session state already moved on; durable cleanup failed.
			logger.Error("failed to remove stored track", logger.String("trackId", id), logger.ErrorField(err))
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// PatchTrackRequest carries the mutable descriptive fields.
type PatchTrackRequest struct {
	Title  *string `json:"title,omitempty"`
	Artist *string `json:"artist,omitempty"`
	Album  *string `json:"album,omitempty"`
	Color  *string `json:"color,omitempty"`
}

// PatchTrackHandler merges descriptive fields into a track.
func (h *APIHandler) PatchTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req PatchTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patched *model.Track
	found := h.lib.Patch(id, func(t *model.Track) {
		if req.Title != nil {
			t.Title = *req.Title
		}
		if req.Artist != nil {
			t.Artist = *req.Artist
		}
		if req.Album != nil {
			t.Album = *req.Album
		}
		if req.Color != nil {
			t.Color = *req.Color
		}
		t.UpdatedAt = time.Now()
		patched = t
	})
	if !found {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}

	if h.store != nil {
		if err := h.store.UpdateMetadata(r.Context(), patched); err != nil {
			logger.Warn("failed to persist track patch", logger.String("trackId", id), logger.ErrorField(err))
		}
	}
	respondJSON(w, http.StatusOK, patched)
}

// DownloadTrackHandler streams the stored audio payload, for clients that
// want the file itself rather than the playable locator.
func (h *APIHandler) DownloadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "track storage is unavailable")
		return
	}
	id := mux.Vars(r)["id"]
	track := h.lib.ByID(id)
	if track == nil {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}
	if track.PayloadKey == "" {
		respondError(w, http.StatusConflict, "track has no stored payload")
		return
	}

	ctx := r.Context()
	if h.objects != nil {
		exists, err := h.objects.Exists(ctx, track.PayloadKey)
		if err == nil && !exists {
			respondError(w, http.StatusNotFound, "stored payload is missing")
			return
		}
	}

	payload, err := h.store.Payload(ctx, id)
	if err != nil {
		logger.Error("failed to open stored payload", logger.String("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to open stored payload")
		return
	}
	defer payload.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", track.Title))
	if _, err := io.Copy(w, payload); err != nil {
		logger.Warn("payload download interrupted", logger.String("trackId", id), logger.ErrorField(err))
	}
}

// PlayNextHandler splices a track to the position right after the current
// one.
func (h *APIHandler) PlayNextHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	state := h.player.State()
	if state.TrackID == "" {
		respondError(w, http.StatusConflict, "nothing is playing")
		return
	}
	h.lib.ReorderAfterCurrent(id, state.TrackID)
	respondJSON(w, http.StatusOK, map[string]string{"queuedAfter": state.TrackID})
}
