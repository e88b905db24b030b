package profile

import (
	"context"
	"fmt"

	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
)

// WorkerProfile is the public reputation of a worker.
type WorkerProfile struct {
	WorkerID      string  `json:"workerId"`
	CompletedJobs int64   `json:"completedJobs"`
	RatingCount   int64   `json:"ratingCount"`
	AverageRating float64 `json:"averageRating"`
}

type Service struct {
	store store.Store
}

func NewService(store store.Store) *Service {
	return &Service{store: store}
}

// RecordRating stores the rating of a job. Submitting the same job twice overwrites the first rating.
func (s *Service) RecordRating(ctx context.Context, update RatingUpdate) error {
	if update.WorkerID == "" {
		return fmt.Errorf("rating of job %s has no worker", update.JobID)
	}
	if update.Rating < 1 || update.Rating > 5 {
		return fmt.Errorf("rating %d is out of range", update.Rating)
	}

	return s.store.WorkerRating().Upsert(ctx, model.WorkerRating{
		WorkerID: update.WorkerID,
		JobID:    update.JobID,
		Rating:   update.Rating,
	})
}

func (s *Service) GetProfile(ctx context.Context, workerID string) (*WorkerProfile, error) {
	stats, err := s.store.WorkerRating().Stats(ctx, workerID)
	if err != nil {
		return nil, err
	}

	completed, err := s.store.Job().Count(ctx, store.NewJobQueryFilter().
		ByAssignedWorkerID(workerID).
		ByStatus(model.JobStatusCompleted))
	if err != nil {
		return nil, err
	}

	return &WorkerProfile{
		WorkerID:      workerID,
		CompletedJobs: completed,
		RatingCount:   stats.RatingCount,
		AverageRating: stats.AverageRating,
	}, nil
}
