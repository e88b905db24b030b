package subscription

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("subscription closed")

// Snapshot is the full result of a live query. Each snapshot replaces the previous one.
type Snapshot struct {
	Key          Key
	Version      uint64
	FetchedAt    time.Time
	Jobs         model.JobList
	Applications model.ApplicationList
}

// Subscription keeps the latest snapshot of one key fresh until it is cancelled.
type Subscription struct {
	key     Key
	fetcher Fetcher
	period  time.Duration

	lock     sync.Mutex
	snapshot *Snapshot
	changed  chan struct{}
	closed   bool

	refreshCh chan struct{}
	cancel    context.CancelFunc
	doneCh    chan struct{}
}

func newSubscription(key Key, fetcher Fetcher, period time.Duration) *Subscription {
	return &Subscription{
		key:       key,
		fetcher:   fetcher,
		period:    period,
		changed:   make(chan struct{}),
		refreshCh: make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
	}
}

func (s *Subscription) Key() Key {
	return s.key
}

// Latest returns the cached snapshot, if any was fetched yet.
func (s *Subscription) Latest() (*Snapshot, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.snapshot, s.snapshot != nil
}

// Next blocks until a snapshot newer than afterVersion is available.
// It returns ErrClosed once the subscription is cancelled.
func (s *Subscription) Next(ctx context.Context, afterVersion uint64) (*Snapshot, error) {
	for {
		s.lock.Lock()
		if s.closed {
			s.lock.Unlock()
			return nil, ErrClosed
		}
		if s.snapshot != nil && s.snapshot.Version > afterVersion {
			snapshot := s.snapshot
			s.lock.Unlock()
			return snapshot, nil
		}
		changed := s.changed
		s.lock.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// Refresh asks for a new fetch without waiting for the poll interval.
func (s *Subscription) Refresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Done is closed when the live query stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Subscription) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

func (s *Subscription) stop() {
	s.cancel()
	<-s.doneCh

	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.closed {
		s.closed = true
		close(s.changed)
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := jitterbug.New(s.period, &jitterbug.Norm{Stdev: s.period / 10})
	defer ticker.Stop()

	s.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.refreshCh:
		}
		s.fetch(ctx)
	}
}

func (s *Subscription) fetch(ctx context.Context) {
	jobs, apps, err := s.fetcher.Fetch(ctx, s.key)
	if err != nil {
		if ctx.Err() == nil {
			zap.S().Named("subscription").Warnw("failed to refresh live query", "key", s.key, "error", err)
		}
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// no delivery after cancellation
	if s.closed || ctx.Err() != nil {
		return
	}
	if s.snapshot != nil && reflect.DeepEqual(s.snapshot.Jobs, jobs) && reflect.DeepEqual(s.snapshot.Applications, apps) {
		return
	}

	var version uint64 = 1
	if s.snapshot != nil {
		version = s.snapshot.Version + 1
	}
	s.snapshot = &Snapshot{
		Key:          s.key,
		Version:      version,
		FetchedAt:    time.Now(),
		Jobs:         jobs,
		Applications: apps,
	}

	// wake up every waiting reader
	close(s.changed)
	s.changed = make(chan struct{})
}
