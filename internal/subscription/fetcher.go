package subscription

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
)

// Fetcher runs the query behind a key.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (model.JobList, model.ApplicationList, error)
}

type StoreFetcher struct {
	store store.Store
}

func NewStoreFetcher(s store.Store) *StoreFetcher {
	return &StoreFetcher{store: s}
}

func (f *StoreFetcher) Fetch(ctx context.Context, key Key) (model.JobList, model.ApplicationList, error) {
	newestFirst := store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc)

	switch key.Kind() {
	case KindJobFeed:
		jobs, err := f.store.Job().List(ctx, store.NewJobQueryFilter().ByStatus(model.JobStatusOpen, model.JobStatusBooked), newestFirst)
		return jobs, nil, err
	case KindEmployerJobs:
		jobs, err := f.store.Job().List(ctx, store.NewJobQueryFilter().ByEmployerID(key.param()), newestFirst)
		return jobs, nil, err
	case KindApplications:
		jobID, err := uuid.Parse(key.param())
		if err != nil {
			return nil, nil, err
		}
		apps, err := f.store.Application().List(ctx, store.NewApplicationQueryFilter().ByJobID(jobID))
		return nil, apps, err
	case KindAssignment:
		jobs, err := f.store.Job().List(ctx,
			store.NewJobQueryFilter().ByAssignedWorkerID(key.param()).ByStatus(model.JobStatusAssigned),
			store.NewJobQueryOptions().WithLimit(1))
		return jobs, nil, err
	}
	return nil, nil, fmt.Errorf("unknown subscription key %q", key)
}
