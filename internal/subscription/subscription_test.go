package subscription_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/config"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"github.com/kaamsetu/kaamsetu/internal/subscription"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

const (
	insertJobStm = "INSERT INTO jobs (id, schema_version, created_at, updated_at, title, pay, location, employer_id, status) VALUES ('%s', 1, '%s', '%s', 'job', 500, 'Saket', '%s', '%s');"
)

func insertJob(db *gorm.DB, id uuid.UUID, employerID string, status model.JobStatus, createdAt time.Time) {
	ts := createdAt.UTC().Format("2006-01-02 15:04:05.000000000+00:00")
	Expect(db.Exec(fmt.Sprintf(insertJobStm, id, ts, ts, employerID, status)).Error).To(BeNil())
}

// countingFetcher returns one job titled after the number of calls that changed the result.
type countingFetcher struct {
	lock    sync.Mutex
	title   string
	calls   int
	failing bool
}

func (c *countingFetcher) Fetch(_ context.Context, _ subscription.Key) (model.JobList, model.ApplicationList, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.calls++
	if c.failing {
		return nil, nil, errors.New("store unavailable")
	}
	return model.JobList{{Title: c.title}}, nil, nil
}

func (c *countingFetcher) SetTitle(title string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.title = title
}

func (c *countingFetcher) SetFailing(failing bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failing = failing
}

func (c *countingFetcher) Calls() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.calls
}

var _ = Describe("subscription keys", func() {
	It("parses known keys", func() {
		jobID := uuid.New()
		for _, k := range []subscription.Key{
			subscription.JobFeedKey(),
			subscription.EmployerJobsKey("employer-1"),
			subscription.ApplicationsKey(jobID),
			subscription.AssignmentKey("worker-a"),
		} {
			parsed, err := subscription.ParseKey(k.String())
			Expect(err).To(BeNil())
			Expect(parsed).To(Equal(k))
		}

		Expect(subscription.ApplicationsKey(jobID).Collection()).To(Equal(store.CollectionApplications))
		Expect(subscription.AssignmentKey("worker-a").Collection()).To(Equal(store.CollectionJobs))
		Expect(subscription.EmployerJobsKey("employer-1").Kind()).To(Equal(subscription.KindEmployerJobs))
	})

	DescribeTable("refuses unknown keys",
		func(key string) {
			_, err := subscription.ParseKey(key)
			Expect(err).ToNot(BeNil())
		},
		Entry("empty", ""),
		Entry("unknown kind", "workers/feed"),
		Entry("bad job id", "applications/not-a-uuid"),
		Entry("missing worker", "assignment/"),
	)
})

var _ = Describe("subscription manager", func() {
	var (
		fetcher *countingFetcher
		manager *subscription.Manager
	)

	BeforeEach(func() {
		fetcher = &countingFetcher{title: "v1"}
		manager = subscription.NewManager(fetcher, time.Hour)
	})

	AfterEach(func() {
		manager.Close()
	})

	It("returns the existing subscription for an active key", func() {
		first, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		second, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())

		Expect(second).To(BeIdenticalTo(first))
		Expect(manager.Active()).To(HaveLen(1))
	})

	It("keeps a shared key live until its last holder releases it", func() {
		first, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		second, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())

		manager.Release(first)
		Expect(manager.Active()).To(HaveLen(1))
		Expect(second.Done()).ToNot(BeClosed())

		manager.Release(second)
		Expect(manager.Active()).To(BeEmpty())
		Expect(second.Done()).To(BeClosed())
		Expect(manager.Idle()).To(BeTrue())
	})

	It("ignores the release of a replaced subscription", func() {
		old, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		manager.Unsubscribe(subscription.JobFeedKey())

		current, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())

		manager.Release(old)
		Expect(manager.Active()).To(HaveLen(1))
		Expect(current.Done()).ToNot(BeClosed())
	})

	It("delivers the first snapshot and replaces it on change", func() {
		sub, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())

		snapshot, err := sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())
		Expect(snapshot.Version).To(BeNumerically("==", 1))
		Expect(snapshot.Key).To(Equal(subscription.JobFeedKey()))
		Expect(snapshot.Jobs[0].Title).To(Equal("v1"))

		fetcher.SetTitle("v2")
		manager.Notify(store.CollectionJobs)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snapshot, err = sub.Next(ctx, snapshot.Version)
		Expect(err).To(BeNil())
		Expect(snapshot.Version).To(BeNumerically("==", 2))
		Expect(snapshot.Jobs[0].Title).To(Equal("v2"))

		latest, found := sub.Latest()
		Expect(found).To(BeTrue())
		Expect(latest).To(BeIdenticalTo(snapshot))
	})

	It("skips deliveries when nothing changed", func() {
		sub, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		_, err = sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())

		manager.Notify(store.CollectionJobs)
		Eventually(fetcher.Calls).Should(BeNumerically(">=", 2))

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_, err = sub.Next(ctx, 1)
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})

	It("ignores hints of other collections", func() {
		sub, err := manager.Subscribe(subscription.ApplicationsKey(uuid.New()))
		Expect(err).To(BeNil())
		_, err = sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())
		Expect(fetcher.Calls()).To(Equal(1))

		manager.Notify(store.CollectionJobs)
		Consistently(fetcher.Calls, 200*time.Millisecond).Should(Equal(1))
	})

	It("keeps the last snapshot when a refresh fails", func() {
		sub, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		_, err = sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())

		fetcher.SetFailing(true)
		manager.Notify(store.CollectionJobs)
		Eventually(fetcher.Calls).Should(Equal(2))

		latest, found := sub.Latest()
		Expect(found).To(BeTrue())
		Expect(latest.Version).To(BeNumerically("==", 1))
	})

	It("stops delivering after unsubscribe", func() {
		sub, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		_, err = sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())

		waiting := make(chan error, 1)
		go func() {
			_, err := sub.Next(context.Background(), 1)
			waiting <- err
		}()

		manager.Unsubscribe(subscription.JobFeedKey())
		Eventually(waiting).Should(Receive(MatchError(subscription.ErrClosed)))
		Eventually(sub.Done()).Should(BeClosed())
		Expect(manager.Active()).To(BeEmpty())

		calls := fetcher.Calls()
		manager.Notify(store.CollectionJobs)
		Consistently(fetcher.Calls, 200*time.Millisecond).Should(Equal(calls))

		// a new subscription of the same key is a fresh live query
		again, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		Expect(again).ToNot(BeIdenticalTo(sub))
	})

	It("ignores unsubscribe of unknown keys", func() {
		manager.Unsubscribe(subscription.AssignmentKey("nobody"))
		Expect(manager.Active()).To(BeEmpty())
	})

	It("releases everything on close", func() {
		feed, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		assignment, err := manager.Subscribe(subscription.AssignmentKey("worker-a"))
		Expect(err).To(BeNil())

		manager.Close()

		Expect(feed.Done()).To(BeClosed())
		Expect(assignment.Done()).To(BeClosed())
		_, err = feed.Next(context.TODO(), 0)
		Expect(err).To(MatchError(subscription.ErrClosed))
		_, err = manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(MatchError(subscription.ErrClosed))
	})

	It("polls without hints", func() {
		polling := subscription.NewManager(fetcher, 50*time.Millisecond)
		defer polling.Close()

		_, err := polling.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		Eventually(fetcher.Calls, 5*time.Second).Should(BeNumerically(">=", 3))
	})
})

var _ = Describe("subscription registry", func() {
	It("keeps sessions apart and releases them on logout", func() {
		fetcher := &countingFetcher{title: "v1"}
		registry := subscription.NewRegistry(fetcher, time.Hour)
		defer registry.Close()

		alice := registry.Manager("session-1")
		Expect(registry.Manager("session-1")).To(BeIdenticalTo(alice))
		bob := registry.Manager("session-2")
		Expect(bob).ToNot(BeIdenticalTo(alice))
		Expect(registry.Sessions()).To(Equal(2))

		sub, err := alice.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())
		_, err = bob.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())

		registry.Release("session-1")
		Expect(sub.Done()).To(BeClosed())
		Expect(registry.Sessions()).To(Equal(1))

		// releasing twice is harmless
		registry.Release("session-1")
	})
})

var _ = Describe("registry streams", func() {
	var registry *subscription.Registry

	BeforeEach(func() {
		registry = subscription.NewRegistry(&countingFetcher{title: "v1"}, time.Hour)
	})

	AfterEach(func() {
		registry.Close()
	})

	It("drops the session with its last stream", func() {
		first, releaseFirst, err := registry.Subscribe("session-1", subscription.JobFeedKey())
		Expect(err).To(BeNil())
		second, releaseSecond, err := registry.Subscribe("session-1", subscription.JobFeedKey())
		Expect(err).To(BeNil())
		Expect(second).To(BeIdenticalTo(first))

		releaseFirst()
		releaseFirst()
		_, found := registry.Lookup("session-1")
		Expect(found).To(BeTrue())

		releaseSecond()
		Expect(first.Done()).To(BeClosed())
		_, found = registry.Lookup("session-1")
		Expect(found).To(BeFalse())
		Expect(registry.Sessions()).To(Equal(0))
	})

	It("drops the session when its last key is unsubscribed", func() {
		sub, release, err := registry.Subscribe("session-2", subscription.AssignmentKey("worker-a"))
		Expect(err).To(BeNil())

		registry.Unsubscribe("session-2", subscription.AssignmentKey("worker-a"))
		Expect(sub.Done()).To(BeClosed())
		Expect(registry.Sessions()).To(Equal(0))

		// the stream still gives its reference back afterwards
		release()
		Expect(registry.Sessions()).To(Equal(0))
	})
})

var _ = Describe("store fetcher", Ordered, func() {
	var (
		s        store.Store
		gormdb   *gorm.DB
		registry *subscription.Registry
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewInMemory("subscription_fetcher"))
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())
		registry = subscription.NewRegistry(subscription.NewStoreFetcher(s), time.Hour)
	})

	AfterAll(func() {
		registry.Close()
		s.Close()
	})

	It("follows the feed through change hints", func() {
		manager := registry.Manager("session-1")
		sub, err := manager.Subscribe(subscription.JobFeedKey())
		Expect(err).To(BeNil())

		snapshot, err := sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())
		Expect(snapshot.Jobs).To(BeEmpty())

		now := time.Now()
		older, newer := uuid.New(), uuid.New()
		insertJob(gormdb, older, "employer-1", model.JobStatusOpen, now.Add(-time.Hour))
		insertJob(gormdb, newer, "employer-1", model.JobStatusBooked, now)
		insertJob(gormdb, uuid.New(), "employer-1", model.JobStatusCompleted, now)
		registry.Notify(context.TODO(), store.CollectionJobs)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snapshot, err = sub.Next(ctx, snapshot.Version)
		Expect(err).To(BeNil())
		Expect(snapshot.Jobs).To(HaveLen(2))
		Expect(snapshot.Jobs[0].ID).To(Equal(newer))
		Expect(snapshot.Jobs[1].ID).To(Equal(older))
	})

	It("serves the active assignment of a worker", func() {
		id := uuid.New()
		insertJob(gormdb, id, "employer-1", model.JobStatusAssigned, time.Now())
		Expect(gormdb.Exec("UPDATE jobs SET assigned_worker_id = 'worker-a' WHERE id = ?", id.String()).Error).To(BeNil())

		sub, err := registry.Manager("session-2").Subscribe(subscription.AssignmentKey("worker-a"))
		Expect(err).To(BeNil())
		snapshot, err := sub.Next(context.TODO(), 0)
		Expect(err).To(BeNil())
		Expect(snapshot.Jobs).To(HaveLen(1))
		Expect(snapshot.Jobs[0].ID).To(Equal(id))
	})
})
