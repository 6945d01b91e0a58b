package server

import (
	"encoding/json"
	"net/http"

	"CrossFM/logger"
	"CrossFM/model"
)

// GetSettingsHandler returns the session settings.
func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	h.settingsMu.Lock()
	settings := h.settings
	h.settingsMu.Unlock()
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettingsHandler applies and persists new settings.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if settings.Volume < 0 || settings.Volume > 1 {
		respondError(w, http.StatusBadRequest, "volume must be within [0, 1]")
		return
	}

	h.settingsMu.Lock()
	h.settings = settings
	h.settingsMu.Unlock()

	h.player.SetVolume(settings.Volume)
	h.player.SetCrossfadeEnabled(settings.CrossfadeEnabled)

	// Save-on-change; the running session keeps the new values either way.
	if h.setCab != nil {
		if err := h.setCab.Save(r.Context(), settings); err != nil {
			logger.Warn("failed to persist settings", logger.ErrorField(err))
		}
	}
	respondJSON(w, http.StatusOK, settings)
}
