package profile

import "context"

// LocalClient records ratings with the in-process profile service.
type LocalClient struct {
	service *Service
}

var _ Client = (*LocalClient)(nil)

func NewLocalClient(service *Service) *LocalClient {
	return &LocalClient{service: service}
}

func (l *LocalClient) SyncRating(ctx context.Context, update RatingUpdate) error {
	return l.service.RecordRating(ctx, update)
}
