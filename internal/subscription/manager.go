package subscription

import (
	"sync"
	"time"

	"github.com/kaamsetu/kaamsetu/pkg/metrics"
	"go.uber.org/zap"
)

const defaultPollInterval = 5 * time.Second

// Manager owns the live queries of one session. A key stays live while at least one
// view holds it or until it is unsubscribed.
type Manager struct {
	fetcher      Fetcher
	pollInterval time.Duration

	lock   sync.Mutex
	subs   map[Key]*Subscription
	refs   map[Key]int
	closed bool
}

func NewManager(fetcher Fetcher, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Manager{
		fetcher:      fetcher,
		pollInterval: pollInterval,
		subs:         make(map[Key]*Subscription),
		refs:         make(map[Key]int),
	}
}

// Subscribe returns the active subscription of key, starting one if needed.
// Every call holds a reference that Release gives back.
func (m *Manager) Subscribe(key Key) (*Subscription, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if sub, found := m.subs[key]; found {
		m.refs[key]++
		return sub, nil
	}

	sub := newSubscription(key, m.fetcher, m.pollInterval)
	sub.start()
	m.subs[key] = sub
	m.refs[key] = 1
	metrics.IncActiveSubscriptions(key.Kind())
	zap.S().Named("subscription_manager").Debugw("subscribed", "key", key)

	return sub, nil
}

// Unsubscribe stops the live query of key whatever the number of holders.
// It does nothing if key is not subscribed.
func (m *Manager) Unsubscribe(key Key) {
	m.lock.Lock()
	sub, found := m.subs[key]
	if found {
		delete(m.subs, key)
		delete(m.refs, key)
	}
	m.lock.Unlock()

	if found {
		m.stop(sub, "unsubscribed")
	}
}

// Release gives back one reference to sub and stops it when none is left.
// A subscription that was already replaced or stopped is ignored.
func (m *Manager) Release(sub *Subscription) {
	m.lock.Lock()
	current, found := m.subs[sub.Key()]
	if !found || current != sub {
		m.lock.Unlock()
		return
	}
	m.refs[sub.Key()]--
	last := m.refs[sub.Key()] <= 0
	if last {
		delete(m.subs, sub.Key())
		delete(m.refs, sub.Key())
	}
	m.lock.Unlock()

	if last {
		m.stop(sub, "released")
	}
}

func (m *Manager) stop(sub *Subscription, reason string) {
	sub.stop()
	metrics.DecActiveSubscriptions(sub.Key().Kind())
	zap.S().Named("subscription_manager").Debugw(reason, "key", sub.Key())
}

// Idle is true when no live query is running.
func (m *Manager) Idle() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.subs) == 0
}

// Notify refreshes the subscriptions reading collection.
func (m *Manager) Notify(collection string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for key, sub := range m.subs {
		if key.Collection() == collection {
			sub.Refresh()
		}
	}
}

// Active lists the subscribed keys.
func (m *Manager) Active() []Key {
	m.lock.Lock()
	defer m.lock.Unlock()

	keys := make([]Key, 0, len(m.subs))
	for key := range m.subs {
		keys = append(keys, key)
	}
	return keys
}

// Close releases every subscription. Later calls to Subscribe fail with ErrClosed.
func (m *Manager) Close() {
	m.lock.Lock()
	m.closed = true
	subs := m.subs
	m.subs = make(map[Key]*Subscription)
	m.refs = make(map[Key]int)
	m.lock.Unlock()

	for key, sub := range subs {
		sub.stop()
		metrics.DecActiveSubscriptions(key.Kind())
	}
}
