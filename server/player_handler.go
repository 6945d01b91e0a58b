package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"CrossFM/core/player"
)

// PlayRequest names the track to start.
type PlayRequest struct {
	TrackID string `json:"trackId"`
}

// SeekRequest carries a seek target in seconds.
type SeekRequest struct {
	Position float64 `json:"position"`
}

// PlayHandler starts a track (or toggles it when already current).
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TrackID == "" {
		respondError(w, http.StatusBadRequest, "trackId is required")
		return
	}
	if err := h.player.Play(req.TrackID); err != nil {
		h.respondPlayerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.player.State())
}

// PauseHandler pauses playback.
func (h *APIHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Pause(); err != nil {
		h.respondPlayerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.player.State())
}

// ResumeHandler resumes playback.
func (h *APIHandler) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Resume(); err != nil {
		h.respondPlayerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.player.State())
}

// SeekHandler jumps to a position, clamped into [0, duration].
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.player.Seek(req.Position); err != nil {
		h.respondPlayerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.player.State())
}

// SeekStartHandler suspends position reporting for the duration of a drag.
func (h *APIHandler) SeekStartHandler(w http.ResponseWriter, r *http.Request) {
	h.player.BeginSeek()
	respondJSON(w, http.StatusOK, nil)
}

// SeekEndHandler resumes position reporting after a drag.
func (h *APIHandler) SeekEndHandler(w http.ResponseWriter, r *http.Request) {
	h.player.EndSeek()
	respondJSON(w, http.StatusOK, h.player.State())
}

// NextHandler advances to the next track.
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Next(); err != nil {
		h.respondPlayerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.player.State())
}

// PreviousHandler moves to the previous track.
func (h *APIHandler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Previous(); err != nil {
		h.respondPlayerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.player.State())
}

// StatusHandler returns the transport snapshot.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.player.State())
}

// respondPlayerError maps the player's recoverable errors onto statuses.
func (h *APIHandler) respondPlayerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, player.ErrUnknownTrack):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, player.ErrNoPlayableSource):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, player.ErrPlaybackStart):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, player.ErrNotLoaded):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
