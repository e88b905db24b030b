package model

import (
	"time"

	"github.com/google/uuid"
)

// RatingSync is an outbox entry for a rating not yet acknowledged by the profile aggregate.
type RatingSync struct {
	JobID     uuid.UUID `gorm:"primaryKey;column:job_id;type:VARCHAR(255);"`
	WorkerID  string    `gorm:"not null;type:VARCHAR(255)"`
	Rating    int       `gorm:"not null"`
	Attempts  int       `gorm:"not null;default:0"`
	LastError *string
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type RatingSyncList []RatingSync
