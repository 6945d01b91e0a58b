package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"CrossFM/db"
	"CrossFM/logger"
	"CrossFM/model"
)

// TrackRepository defines the interface for track metadata persistence.
// Only metadata lives here; the binary payload lives in the object store
// under Track.PayloadKey.
type TrackRepository interface {
	UpsertTrack(track *model.Track) error
	GetTrackByID(id string) (*model.Track, error)
	GetAllTracks() ([]*model.Track, error)
	UpdateTrackMetadata(track *model.Track) error
	DeleteTrack(id string) error
	HasTrack(id string) (bool, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

const trackColumns = `id, title, artist, album, duration, cover_url, color, origin, payload_key, lyrics, citations, created_at, updated_at`

// UpsertTrack inserts or overwrites the row keyed by track id.
// Last write wins on concurrent upserts for the same id.
func (r *mysqlTrackRepository) UpsertTrack(track *model.Track) error {
	query := `INSERT INTO tracks (` + trackColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             title = VALUES(title), artist = VALUES(artist), album = VALUES(album),
	             duration = VALUES(duration), cover_url = VALUES(cover_url), color = VALUES(color),
	             origin = VALUES(origin), payload_key = VALUES(payload_key),
	             lyrics = VALUES(lyrics), citations = VALUES(citations), updated_at = VALUES(updated_at)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpsertTrack: %w", err)
	}
	defer stmt.Close()

	lyrics, citations, err := marshalLyricFields(track)
	if err != nil {
		return err
	}

	now := time.Now()
	createdAt := track.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = stmt.Exec(track.ID, track.Title, track.Artist, track.Album, track.Duration,
		track.CoverURL, track.Color, string(track.Origin), track.PayloadKey,
		lyrics, citations, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to execute UpsertTrack: %w", err)
	}
	logger.Debug("track upserted", logger.String("trackId", track.ID), logger.String("title", track.Title))
	return nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when absent.
func (r *mysqlTrackRepository) GetTrackByID(id string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}
	return track, nil
}

// GetAllTracks retrieves all stored tracks in insertion order.
func (r *mysqlTrackRepository) GetAllTracks() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY created_at ASC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetAllTracks: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllTracks: %w", err)
	}

	return tracks, nil
}

// UpdateTrackMetadata overwrites the non-binary fields of an existing row.
func (r *mysqlTrackRepository) UpdateTrackMetadata(track *model.Track) error {
	query := `UPDATE tracks SET title = ?, artist = ?, album = ?, duration = ?,
	           cover_url = ?, color = ?, lyrics = ?, citations = ?, updated_at = ?
	           WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateTrackMetadata: %w", err)
	}
	defer stmt.Close()

	lyrics, citations, err := marshalLyricFields(track)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(track.Title, track.Artist, track.Album, track.Duration,
		track.CoverURL, track.Color, lyrics, citations, time.Now(), track.ID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateTrackMetadata for track %s: %w", track.ID, err)
	}
	logger.Debug("track metadata updated", logger.String("trackId", track.ID))
	return nil
}

// DeleteTrack removes the row; no-op if absent.
func (r *mysqlTrackRepository) DeleteTrack(id string) error {
	query := `DELETE FROM tracks WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for DeleteTrack: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteTrack for track %s: %w", id, err)
	}
	return nil
}

// HasTrack reports whether a row exists for the id.
func (r *mysqlTrackRepository) HasTrack(id string) (bool, error) {
	var one int
	err := r.DB.QueryRow(`SELECT 1 FROM tracks WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check track existence for %s: %w", id, err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*model.Track, error) {
	track := &model.Track{}
	var origin string
	var lyrics, citations sql.NullString
	err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.Duration,
		&track.CoverURL, &track.Color, &origin, &track.PayloadKey,
		&lyrics, &citations, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	track.Origin = model.Origin(origin)

	if lyrics.Valid && lyrics.String != "" {
		if err := json.Unmarshal([]byte(lyrics.String), &track.Lyrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lyrics for track %s: %w", track.ID, err)
		}
	}
	if citations.Valid && citations.String != "" {
		if err := json.Unmarshal([]byte(citations.String), &track.Citations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citations for track %s: %w", track.ID, err)
		}
	}
	return track, nil
}

func marshalLyricFields(track *model.Track) (lyrics, citations sql.NullString, err error) {
	if len(track.Lyrics) > 0 {
		data, merr := json.Marshal(track.Lyrics)
		if merr != nil {
			return lyrics, citations, fmt.Errorf("failed to marshal lyrics for track %s: %w", track.ID, merr)
		}
		lyrics = sql.NullString{String: string(data), Valid: true}
	}
	if len(track.Citations) > 0 {
		data, merr := json.Marshal(track.Citations)
		if merr != nil {
			return lyrics, citations, fmt.Errorf("failed to marshal citations for track %s: %w", track.ID, merr)
		}
		citations = sql.NullString{String: string(data), Valid: true}
	}
	return lyrics, citations, nil
}
