package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CrossFM/config"
	"CrossFM/core/library"
	"CrossFM/core/player"
	"CrossFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, tracks ...*model.Track) (*APIHandler, *player.Controller) {
	t.Helper()
	lib := library.New()
	for _, tr := range tracks {
		require.NoError(t, lib.Add(tr))
	}
	ctrl := player.NewController(lib, player.NewClockChannel, player.Options{})
	t.Cleanup(ctrl.Stop)

	cfg := &config.Config{}
	h := NewAPIHandler(cfg, lib, ctrl, nil, nil, nil, nil, nil, nil, nil, model.DefaultSettings())
	return h, ctrl
}

func apiTrack(id string) *model.Track {
	return &model.Track{
		ID:        id,
		Title:     "Track " + id,
		StreamURL: "http://example.com/" + id,
		Duration:  180,
		Origin:    model.OriginUploaded,
	}
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) model.PlayerState {
	t.Helper()
	var state model.PlayerState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	return state
}

func TestPlayHandler(t *testing.T) {
	h, _ := newTestHandler(t, apiTrack("a"))

	req := httptest.NewRequest(http.MethodPost, "/api/player/play", strings.NewReader(`{"trackId":"a"}`))
	rec := httptest.NewRecorder()
	h.PlayHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, "a", state.TrackID)
	assert.True(t, state.IsPlaying)
}

func TestPlayHandlerUnknownTrack(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/player/play", strings.NewReader(`{"trackId":"missing"}`))
	rec := httptest.NewRecorder()
	h.PlayHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayHandlerBadRequest(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/player/play", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.PlayHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/player/play", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	h.PlayHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayHandlerUnplayableTrack(t *testing.T) {
	pending := apiTrack("a")
	pending.StreamURL = ""
	h, _ := newTestHandler(t, pending)

	req := httptest.NewRequest(http.MethodPost, "/api/player/play", strings.NewReader(`{"trackId":"a"}`))
	rec := httptest.NewRecorder()
	h.PlayHandler(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPauseWithoutTrack(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.PauseHandler(rec, httptest.NewRequest(http.MethodPost, "/api/player/pause", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPauseAndResume(t *testing.T) {
	h, ctrl := newTestHandler(t, apiTrack("a"))
	require.NoError(t, ctrl.Play("a"))

	rec := httptest.NewRecorder()
	h.PauseHandler(rec, httptest.NewRequest(http.MethodPost, "/api/player/pause", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeState(t, rec).IsPlaying)

	rec = httptest.NewRecorder()
	h.ResumeHandler(rec, httptest.NewRequest(http.MethodPost, "/api/player/resume", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeState(t, rec).IsPlaying)
}

func TestSeekHandlerClamps(t *testing.T) {
	h, ctrl := newTestHandler(t, apiTrack("a"))
	require.NoError(t, ctrl.Play("a"))

	req := httptest.NewRequest(http.MethodPost, "/api/player/seek", strings.NewReader(`{"position":9999}`))
	rec := httptest.NewRecorder()
	h.SeekHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 180.0, decodeState(t, rec).Position, 0.5)
}

func TestNextHandlerWraps(t *testing.T) {
	h, ctrl := newTestHandler(t, apiTrack("a"), apiTrack("b"))
	require.NoError(t, ctrl.Play("b"))

	rec := httptest.NewRecorder()
	h.NextHandler(rec, httptest.NewRequest(http.MethodPost, "/api/player/next", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decodeState(t, rec).TrackID)
}

func TestStatusHandlerIdle(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/player/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Empty(t, state.TrackID)
	assert.Equal(t, -1, state.ActiveLyric)
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	h, _ := newTestHandler(t)

	called := false
	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tracks", nil))
	assert.True(t, called, "a blank password hash disables auth")
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h, _ := newTestHandler(t)
	h.cfg.AuthPasswordHash = "$2a$10$notablankhash"
	h.cfg.AuthSecret = "secret"

	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/tracks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
