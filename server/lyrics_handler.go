package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// FetchLyricsHandler fetches and attaches lyrics for a track. The fetch is
// keyed to the track id, so a response arriving after the user has moved
// on still lands on the right track.
func (h *APIHandler) FetchLyricsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	track := h.lib.ByID(id)
	if track == nil {
		respondError(w, http.StatusNotFound, "track not found")
		return
	}

	lines, err := h.lyrics.FetchAndAttach(r.Context(), id)
	if err != nil {
		// The placeholder (or the previously attached lyrics) is already
		// in place; report the degraded result rather than a hard failure.
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"trackId":  id,
			"lines":    lines,
			"degraded": true,
		})
		return
	}

	payload := map[string]interface{}{
		"trackId": id,
		"lines":   lines,
	}
	if refreshed := h.lib.ByID(id); refreshed != nil {
		payload["citations"] = refreshed.Citations
	}
	respondJSON(w, http.StatusOK, payload)
}
