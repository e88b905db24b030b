package profile

import (
	"context"

	"github.com/google/uuid"
)

// RatingUpdate is the rating an employer gave a worker for a completed job.
type RatingUpdate struct {
	WorkerID string    `json:"workerId"`
	JobID    uuid.UUID `json:"jobId"`
	Rating   int       `json:"rating"`
}

// Client pushes ratings to the worker profile aggregate.
// Implementations must be idempotent per (worker, job).
type Client interface {
	SyncRating(ctx context.Context, update RatingUpdate) error
}
