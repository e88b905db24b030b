package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkerRating is the rating a worker received for one job. One row per (worker, job).
type WorkerRating struct {
	WorkerID  string    `gorm:"primaryKey;column:worker_id;type:VARCHAR(255);"`
	JobID     uuid.UUID `gorm:"primaryKey;column:job_id;type:VARCHAR(255);"`
	Rating    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// WorkerRatingStats aggregates the ratings of a worker.
type WorkerRatingStats struct {
	WorkerID      string
	RatingCount   int64
	AverageRating float64
}
