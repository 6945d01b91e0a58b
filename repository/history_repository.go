package repository

import (
	"context"

	"CrossFM/model"

	"gorm.io/gorm"
)

// HistoryRepository records which tracks were actually started.
type HistoryRepository interface {
	Record(ctx context.Context, entry *model.PlayEntry) error
	Recent(ctx context.Context, limit int) ([]*model.PlayEntry, error)
	PurgeOlderThan(ctx context.Context, unixMillis int64) (int64, error)
}

// gormHistoryRepository is the GORM implementation.
type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a GORM play-history repository.
func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &gormHistoryRepository{db: db}
}

// Record appends one play entry.
func (r *gormHistoryRepository) Record(ctx context.Context, entry *model.PlayEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Recent returns the newest entries, most recent first.
func (r *gormHistoryRepository) Recent(ctx context.Context, limit int) ([]*model.PlayEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []*model.PlayEntry
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PurgeOlderThan deletes entries started before the given time and returns
// the number removed.
func (r *gormHistoryRepository) PurgeOlderThan(ctx context.Context, unixMillis int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("started_at < ?", unixMillis).
		Delete(&model.PlayEntry{})
	return res.RowsAffected, res.Error
}
