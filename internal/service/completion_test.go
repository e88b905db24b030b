package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/config"
	"github.com/kaamsetu/kaamsetu/internal/events"
	"github.com/kaamsetu/kaamsetu/internal/profile"
	"github.com/kaamsetu/kaamsetu/internal/service"
	"github.com/kaamsetu/kaamsetu/internal/service/mappers"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

var _ = Describe("completion service", Ordered, func() {
	var (
		s             store.Store
		gormdb        *gorm.DB
		profileClient *fakeProfileClient
		srv           *service.CompletionService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewInMemory("service_completion"))
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		profileClient = &fakeProfileClient{}
		srv = service.NewCompletionService(s, nil, nil, profileClient)
	})

	It("completes an assigned job and syncs the rating", func() {
		jobID := uuid.New()
		insertAssignedJob(gormdb, jobID, employer.ID, workerA.ID)
		Expect(s.WorkerAssignment().Acquire(context.TODO(), workerA.ID, jobID)).To(Succeed())

		job, err := srv.Complete(context.TODO(), employer, jobID, mappers.CompletionForm{Rating: intPtr(4), Review: strPtr("neat work")})
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.JobStatusCompleted))
		Expect(*job.Rating).To(Equal(4))
		Expect(*job.Review).To(Equal("neat work"))
		Expect(job.CompletedAt).ToNot(BeNil())

		Expect(profileClient.Updates()).To(Equal([]profile.RatingUpdate{{WorkerID: workerA.ID, JobID: jobID, Rating: 4}}))

		_, err = s.WorkerAssignment().Get(context.TODO(), workerA.ID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
		_, err = s.RatingSync().Get(context.TODO(), jobID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})

	It("completes without a rating", func() {
		jobID := uuid.New()
		insertAssignedJob(gormdb, jobID, employer.ID, workerA.ID)

		job, err := srv.Complete(context.TODO(), employer, jobID, mappers.CompletionForm{})
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.JobStatusCompleted))
		Expect(job.Rating).To(BeNil())
		Expect(profileClient.Updates()).To(BeEmpty())
	})

	It("keeps the job completed when the rating sync fails", func() {
		jobID := uuid.New()
		insertAssignedJob(gormdb, jobID, employer.ID, workerB.ID)
		profileClient.SetError(errors.New("profile store unavailable"))

		job, err := srv.Complete(context.TODO(), employer, jobID, mappers.CompletionForm{Rating: intPtr(5)})
		Expect(err).ToNot(BeNil())
		var syncErr *service.ErrRatingSync
		Expect(errors.As(err, &syncErr)).To(BeTrue())
		Expect(job).ToNot(BeNil())
		Expect(job.Status).To(Equal(model.JobStatusCompleted))

		stored, err := s.Job().Get(context.TODO(), jobID)
		Expect(err).To(BeNil())
		Expect(stored.Status).To(Equal(model.JobStatusCompleted))
		Expect(*stored.Rating).To(Equal(5))

		entry, err := s.RatingSync().Get(context.TODO(), jobID)
		Expect(err).To(BeNil())
		Expect(entry.Attempts).To(Equal(1))
		Expect(*entry.LastError).To(Equal("profile store unavailable"))

		// only the employer of the job may push it again
		err = srv.RetryRatingSync(context.TODO(), otherEmployer, jobID)
		_, forbidden := err.(*service.ErrForbidden)
		Expect(forbidden).To(BeTrue())
		err = srv.RetryRatingSync(context.TODO(), workerB, jobID)
		_, forbidden = err.(*service.ErrForbidden)
		Expect(forbidden).To(BeTrue())

		// the profile comes back
		profileClient.SetError(nil)
		Expect(srv.RetryRatingSync(context.TODO(), employer, jobID)).To(Succeed())
		Expect(profileClient.Updates()).To(Equal([]profile.RatingUpdate{{WorkerID: workerB.ID, JobID: jobID, Rating: 5}}))

		_, err = s.RatingSync().Get(context.TODO(), jobID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))

		err = srv.RetryRatingSync(context.TODO(), employer, jobID)
		_, ok := err.(*service.ErrResourceNotFound)
		Expect(ok).To(BeTrue())
	})

	It("drains pending ratings in the background", func() {
		profileClient.SetError(errors.New("down"))
		jobs := []uuid.UUID{uuid.New(), uuid.New()}
		for _, jobID := range jobs {
			insertAssignedJob(gormdb, jobID, employer.ID, workerC.ID)
			_, err := srv.Complete(context.TODO(), employer, jobID, mappers.CompletionForm{Rating: intPtr(3)})
			Expect(err).ToNot(BeNil())
		}
		profileClient.SetError(nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		retrier := service.NewRatingSyncRetrier(srv, 50*time.Millisecond, 10)
		done := make(chan error, 1)
		go func() { done <- retrier.Run(ctx) }()

		Eventually(func() int { return len(profileClient.Updates()) }, 5*time.Second).Should(Equal(2))
		Eventually(func() int {
			pending, err := s.RatingSync().ListPending(context.TODO(), 10)
			Expect(err).To(BeNil())
			return len(pending)
		}).Should(Equal(0))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("gets past a full batch of failing ratings", func() {
		profileClient.FailFor("worker-gone", errors.New("unknown worker"))
		for i := 0; i < 3; i++ {
			Expect(s.RatingSync().Create(context.TODO(), model.RatingSync{JobID: uuid.New(), WorkerID: "worker-gone", Rating: 2})).To(Succeed())
			time.Sleep(2 * time.Millisecond)
		}
		healthy := uuid.New()
		Expect(s.RatingSync().Create(context.TODO(), model.RatingSync{JobID: healthy, WorkerID: workerA.ID, Rating: 5})).To(Succeed())
		time.Sleep(2 * time.Millisecond)

		synced, err := srv.SyncPending(context.TODO(), 3)
		Expect(err).To(BeNil())
		Expect(synced).To(Equal(0))

		synced, err = srv.SyncPending(context.TODO(), 3)
		Expect(err).To(BeNil())
		Expect(synced).To(Equal(1))
		Expect(profileClient.Updates()).To(Equal([]profile.RatingUpdate{{WorkerID: workerA.ID, JobID: healthy, Rating: 5}}))

		pending, err := s.RatingSync().ListPending(context.TODO(), 10)
		Expect(err).To(BeNil())
		Expect(pending).To(HaveLen(3))
	})

	DescribeTable("refuses jobs that are not assigned",
		func(status model.JobStatus) {
			jobID := uuid.New()
			insertJob(gormdb, jobID, employer.ID, status, time.Now())

			_, err := srv.Complete(context.TODO(), employer, jobID, mappers.CompletionForm{Rating: intPtr(5)})
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrInvalidTransition)
			Expect(ok).To(BeTrue())

			job, err := s.Job().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(status))
		},
		Entry("open", model.JobStatusOpen),
		Entry("booked", model.JobStatusBooked),
		Entry("completed", model.JobStatusCompleted),
		Entry("dispute", model.JobStatusDispute),
	)

	It("validates the rating", func() {
		jobID := uuid.New()
		insertAssignedJob(gormdb, jobID, employer.ID, workerA.ID)

		for _, rating := range []int{0, 6} {
			_, err := srv.Complete(context.TODO(), employer, jobID, mappers.CompletionForm{Rating: intPtr(rating)})
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrValidation)
			Expect(ok).To(BeTrue())
		}

		job, err := s.Job().Get(context.TODO(), jobID)
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.JobStatusAssigned))
	})

	It("only lets the owner complete", func() {
		jobID := uuid.New()
		insertAssignedJob(gormdb, jobID, employer.ID, workerA.ID)

		_, err := srv.Complete(context.TODO(), otherEmployer, jobID, mappers.CompletionForm{})
		_, ok := err.(*service.ErrForbidden)
		Expect(ok).To(BeTrue())
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM worker_assignments;")
		gormdb.Exec("DELETE FROM rating_syncs;")
	})
})

var _ = Describe("job lifecycle", Ordered, func() {
	var (
		s           store.Store
		gormdb      *gorm.DB
		profiles    *profile.Service
		eventWriter *testwriter
		producer    *events.EventProducer
		jobs        *service.JobService
		apps        *service.ApplicationService
		assignments *service.AssignmentService
		completions *service.CompletionService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewInMemory("service_lifecycle"))
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())

		eventWriter = newTestWriter()
		producer = events.NewEventProducer(eventWriter)
		profiles = profile.NewService(s)
		jobs = service.NewJobService(s, nil)
		apps = service.NewApplicationService(s, nil, producer)
		assignments = service.NewAssignmentService(s, nil, producer, config.NewDefault().Service.Assignment)
		completions = service.NewCompletionService(s, nil, producer, profile.NewLocalClient(profiles))
	})

	AfterAll(func() {
		producer.Close()
		s.Close()
	})

	It("takes the painter job from posting to rating", func() {
		job, err := jobs.CreateJob(context.TODO(), employer, mappers.JobCreateForm{Title: "Painter for 2BHK", Pay: 800, Location: "Saket"})
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.JobStatusOpen))

		result, err := apps.Submit(context.TODO(), workerA, job.ID, mappers.ApplicationFormFromApi(workerA, nil))
		Expect(err).To(BeNil())
		Expect(result.AlreadyApplied).To(BeFalse())

		ledger, err := apps.List(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		Expect(ledger).To(HaveLen(1))
		Expect(ledger[0].WorkerID).To(Equal(workerA.ID))
		Expect(ledger[0].Status).To(Equal(model.ApplicationStatusPending))

		assigned, err := assignments.Assign(context.TODO(), employer, job.ID, workerA.ID)
		Expect(err).To(BeNil())
		Expect(assigned.Status).To(Equal(model.JobStatusAssigned))

		ledger, err = apps.List(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		Expect(ledger[0].Status).To(Equal(model.ApplicationStatusAccepted))

		active, err := jobs.ActiveAssignment(context.TODO(), workerA.ID)
		Expect(err).To(BeNil())
		Expect(active.ID).To(Equal(job.ID))

		completed, err := completions.Complete(context.TODO(), employer, job.ID, mappers.CompletionForm{Rating: intPtr(5)})
		Expect(err).To(BeNil())
		Expect(completed.Status).To(Equal(model.JobStatusCompleted))
		Expect(*completed.Rating).To(Equal(5))

		p, err := profiles.GetProfile(context.TODO(), workerA.ID)
		Expect(err).To(BeNil())
		Expect(p.CompletedJobs).To(BeNumerically("==", 1))
		Expect(p.RatingCount).To(BeNumerically("==", 1))
		Expect(p.AverageRating).To(BeNumerically("~", 5, 0.001))

		_, err = jobs.ActiveAssignment(context.TODO(), workerA.ID)
		_, ok := err.(*service.ErrResourceNotFound)
		Expect(ok).To(BeTrue())

		Eventually(eventWriter.Len).Should(Equal(3))
		Expect(eventWriter.Get(0).Type()).To(Equal(events.ContactMessageKind))
		Expect(eventWriter.Get(1).Type()).To(Equal(events.AssignedMessageKind))
		Expect(eventWriter.Get(2).Type()).To(Equal(events.CompletedMessageKind))
	})

	It("frees the worker for a new job once the first one is completed", func() {
		first, err := jobs.CreateJob(context.TODO(), employer, mappers.JobCreateForm{Title: "Mason", Pay: 700, Location: "Noida"})
		Expect(err).To(BeNil())
		second, err := jobs.CreateJob(context.TODO(), otherEmployer, mappers.JobCreateForm{Title: "Helper", Pay: 500, Location: "Noida"})
		Expect(err).To(BeNil())

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			_, err := apps.Submit(context.TODO(), workerB, id, mappers.ApplicationFormFromApi(workerB, nil))
			Expect(err).To(BeNil())
		}

		_, err = assignments.Assign(context.TODO(), employer, first.ID, workerB.ID)
		Expect(err).To(BeNil())

		_, err = assignments.Assign(context.TODO(), otherEmployer, second.ID, workerB.ID)
		_, ok := err.(*service.ErrWorkerAlreadyAssigned)
		Expect(ok).To(BeTrue())

		unchanged, err := jobs.GetJob(context.TODO(), second.ID)
		Expect(err).To(BeNil())
		Expect(unchanged.Status).To(Equal(model.JobStatusOpen))

		_, err = completions.Complete(context.TODO(), employer, first.ID, mappers.CompletionForm{})
		Expect(err).To(BeNil())

		assigned, err := assignments.Assign(context.TODO(), otherEmployer, second.ID, workerB.ID)
		Expect(err).To(BeNil())
		Expect(*assigned.AssignedWorkerID).To(Equal(workerB.ID))
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM worker_ratings;")
	})
})
