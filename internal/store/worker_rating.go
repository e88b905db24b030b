package store

import (
	"context"
	"time"

	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerRating interface {
	// Upsert records the rating of a job, replacing any earlier rating of the same job.
	Upsert(ctx context.Context, rating model.WorkerRating) error
	Stats(ctx context.Context, workerID string) (*model.WorkerRatingStats, error)
}

type WorkerRatingStore struct {
	db *gorm.DB
}

var _ WorkerRating = (*WorkerRatingStore)(nil)

func NewWorkerRatingStore(db *gorm.DB) WorkerRating {
	return &WorkerRatingStore{db: db}
}

func (w *WorkerRatingStore) Upsert(ctx context.Context, rating model.WorkerRating) error {
	now := time.Now()
	rating.CreatedAt = now
	rating.UpdatedAt = now

	return getDB(ctx, w.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}, {Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&rating).Error
}

func (w *WorkerRatingStore) Stats(ctx context.Context, workerID string) (*model.WorkerRatingStats, error) {
	var row struct {
		Count   int64
		Average float64
	}
	err := getDB(ctx, w.db).Model(&model.WorkerRating{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("worker_id = ?", workerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &model.WorkerRatingStats{
		WorkerID:      workerID,
		RatingCount:   row.Count,
		AverageRating: row.Average,
	}, nil
}
