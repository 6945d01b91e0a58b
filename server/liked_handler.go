package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// LikeHandler stars a track id.
func (h *APIHandler) LikeHandler(w http.ResponseWriter, r *http.Request) {
	if h.liked == nil {
		respondError(w, http.StatusServiceUnavailable, "liked set is unavailable")
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.liked.Like(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to like track")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trackId": id, "liked": true})
}

// UnlikeHandler unstars a track id.
func (h *APIHandler) UnlikeHandler(w http.ResponseWriter, r *http.Request) {
	if h.liked == nil {
		respondError(w, http.StatusServiceUnavailable, "liked set is unavailable")
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.liked.Unlike(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to unlike track")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trackId": id, "liked": false})
}

// LikedHandler lists every liked track id, including ids whose tracks have
// since been deleted from the library.
func (h *APIHandler) LikedHandler(w http.ResponseWriter, r *http.Request) {
	if h.liked == nil {
		respondError(w, http.StatusServiceUnavailable, "liked set is unavailable")
		return
	}
	ids, err := h.liked.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load liked set")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"trackIds": ids})
}
