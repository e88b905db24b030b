package subscription

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry keeps one Manager per session.
type Registry struct {
	fetcher      Fetcher
	pollInterval time.Duration

	lock     sync.Mutex
	managers map[string]*Manager
}

func NewRegistry(fetcher Fetcher, pollInterval time.Duration) *Registry {
	return &Registry{
		fetcher:      fetcher,
		pollInterval: pollInterval,
		managers:     make(map[string]*Manager),
	}
}

// Manager returns the manager of the session, creating it on first use.
func (r *Registry) Manager(session string) *Manager {
	r.lock.Lock()
	defer r.lock.Unlock()

	m, found := r.managers[session]
	if !found {
		m = NewManager(r.fetcher, r.pollInterval)
		r.managers[session] = m
	}
	return m
}

// Lookup returns the manager of the session without creating it.
func (r *Registry) Lookup(session string) (*Manager, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	m, found := r.managers[session]
	return m, found
}

// Subscribe opens key in the session. The returned func gives the reference back once the
// view is gone, and forgets the session when it has no live query left.
func (r *Registry) Subscribe(session string, key Key) (*Subscription, func(), error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	m, found := r.managers[session]
	if !found {
		m = NewManager(r.fetcher, r.pollInterval)
		r.managers[session] = m
	}
	sub, err := m.Subscribe(key)
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.Release(sub)
			r.forgetIdle(session, m)
		})
	}
	return sub, release, nil
}

// Unsubscribe stops key in the session, whoever holds it.
func (r *Registry) Unsubscribe(session string, key Key) {
	r.lock.Lock()
	m, found := r.managers[session]
	r.lock.Unlock()

	if found {
		m.Unsubscribe(key)
		r.forgetIdle(session, m)
	}
}

func (r *Registry) forgetIdle(session string, m *Manager) {
	r.lock.Lock()
	defer r.lock.Unlock()

	// Subscribe runs under r.lock, so m cannot gain a query while it is dropped
	if r.managers[session] == m && m.Idle() {
		delete(r.managers, session)
	}
}

// Release closes every subscription of the session. Called on logout.
func (r *Registry) Release(session string) {
	r.lock.Lock()
	m, found := r.managers[session]
	delete(r.managers, session)
	r.lock.Unlock()

	if found {
		m.Close()
		zap.S().Named("subscription_registry").Infow("session released", "session", session)
	}
}

// Notify refreshes the live queries of all sessions reading collection.
func (r *Registry) Notify(_ context.Context, collection string) {
	r.lock.Lock()
	managers := make([]*Manager, 0, len(r.managers))
	for _, m := range r.managers {
		managers = append(managers, m)
	}
	r.lock.Unlock()

	for _, m := range managers {
		m.Notify(collection)
	}
}

func (r *Registry) Sessions() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.managers)
}

func (r *Registry) Close() {
	r.lock.Lock()
	managers := r.managers
	r.managers = make(map[string]*Manager)
	r.lock.Unlock()

	for _, m := range managers {
		m.Close()
	}
}
