package lyrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Some Artist", r.URL.Query().Get("artist_name"))
		assert.Equal(t, "Some Title", r.URL.Query().Get("track_name"))
		assert.Equal(t, "Some Album", r.URL.Query().Get("album_name"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"syncedLyrics":"[00:10.00]Hello","plainLyrics":"Hello"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Fetch(context.Background(), "Some Artist", "Some Title", "Some Album")
	require.NoError(t, err)
	assert.True(t, result.Found())
	assert.Equal(t, "[00:10.00]Hello", result.Synced)
	assert.Equal(t, "Hello", result.Plain)
	assert.NotEmpty(t, result.Source)
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Fetch(context.Background(), "a", "t", "")
	require.NoError(t, err, "a miss is not an error")
	assert.False(t, result.Found())
	assert.Empty(t, result.Source)
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Fetch(context.Background(), "a", "t", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Fetch(context.Background(), "a", "t", "")
	require.Error(t, err)
}
