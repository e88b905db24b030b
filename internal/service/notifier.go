package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/events"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"go.uber.org/zap"
)

// ChangeNotifier is told about every committed write so live queries can refresh.
type ChangeNotifier interface {
	Notify(ctx context.Context, collection string)
}

// NotifierFunc adapts a function to ChangeNotifier.
type NotifierFunc func(ctx context.Context, collection string)

func (f NotifierFunc) Notify(ctx context.Context, collection string) {
	f(ctx, collection)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) {}

func notifierOrNoop(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// writeEvent never fails the caller: the event is a side effect of an already committed write.
func writeEvent(ctx context.Context, producer *events.EventProducer, kind string, event any) {
	if producer == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		zap.S().Named("service").Errorw("failed to marshal event", "error", err, "event_kind", kind)
		return
	}

	if err := producer.Write(ctx, kind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("service").Errorw("failed to write event", "error", err, "event_kind", kind)
	}
}

// getOwnedJob loads the job and checks that user is its employer.
func getOwnedJob(ctx context.Context, s store.Store, user auth.User, id uuid.UUID, action string) (*model.Job, error) {
	job, err := s.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	if !user.IsEmployer() || job.EmployerID != user.ID {
		return nil, NewErrForbidden(user.ID, action, id)
	}

	return job, nil
}
