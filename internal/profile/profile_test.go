package profile_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/config"
	"github.com/kaamsetu/kaamsetu/internal/profile"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

const (
	insertCompletedJobStm = "INSERT INTO jobs (id, schema_version, created_at, updated_at, title, pay, location, employer_id, status, assigned_worker_id) VALUES ('%s', 1, '2024-01-01 10:00:00.000000000+00:00', '2024-01-01 10:00:00.000000000+00:00', 'Painter', 800, 'Noida', 'employer-1', 'completed', '%s');"
)

var _ = Describe("profile service", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		service *profile.Service
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewInMemory("profile_service"))
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())
		service = profile.NewService(s)
	})

	AfterAll(func() {
		s.Close()
	})

	It("aggregates completed jobs and ratings", func() {
		jobA, jobB := uuid.New(), uuid.New()
		Expect(gormdb.Exec(fmt.Sprintf(insertCompletedJobStm, jobA, "worker-1")).Error).To(BeNil())
		Expect(gormdb.Exec(fmt.Sprintf(insertCompletedJobStm, jobB, "worker-1")).Error).To(BeNil())

		client := profile.NewLocalClient(service)
		Expect(client.SyncRating(context.TODO(), profile.RatingUpdate{WorkerID: "worker-1", JobID: jobA, Rating: 5})).To(Succeed())
		Expect(client.SyncRating(context.TODO(), profile.RatingUpdate{WorkerID: "worker-1", JobID: jobB, Rating: 4})).To(Succeed())

		p, err := service.GetProfile(context.TODO(), "worker-1")
		Expect(err).To(BeNil())
		Expect(p.CompletedJobs).To(BeNumerically("==", 2))
		Expect(p.RatingCount).To(BeNumerically("==", 2))
		Expect(p.AverageRating).To(BeNumerically("~", 4.5, 0.001))
	})

	It("does not double count a resubmitted rating", func() {
		jobID := uuid.New()
		for i := 0; i < 3; i++ {
			Expect(service.RecordRating(context.TODO(), profile.RatingUpdate{WorkerID: "worker-2", JobID: jobID, Rating: 3})).To(Succeed())
		}

		p, err := service.GetProfile(context.TODO(), "worker-2")
		Expect(err).To(BeNil())
		Expect(p.RatingCount).To(BeNumerically("==", 1))
		Expect(p.AverageRating).To(BeNumerically("~", 3, 0.001))
	})

	It("refuses out of range ratings", func() {
		err := service.RecordRating(context.TODO(), profile.RatingUpdate{WorkerID: "worker-3", JobID: uuid.New(), Rating: 6})
		Expect(err).ToNot(BeNil())
	})

	It("returns an empty profile for unknown workers", func() {
		p, err := service.GetProfile(context.TODO(), "nobody")
		Expect(err).To(BeNil())
		Expect(p.CompletedJobs).To(BeNumerically("==", 0))
		Expect(p.RatingCount).To(BeNumerically("==", 0))
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM worker_ratings;")
	})
})

var _ = Describe("profile http client", func() {
	It("posts the rating as json", func() {
		received := make(chan profile.RatingUpdate, 1)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(r.Header.Get(requestid.Header)).To(Equal("req-7"))

			var update profile.RatingUpdate
			Expect(json.NewDecoder(r.Body).Decode(&update)).To(Succeed())
			received <- update
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		jobID := uuid.New()
		client := profile.NewHTTPClient(ts.URL, 5*time.Second)
		ctx := requestid.ToContext(context.TODO(), "req-7")
		Expect(client.SyncRating(ctx, profile.RatingUpdate{WorkerID: "worker-1", JobID: jobID, Rating: 4})).To(Succeed())

		var update profile.RatingUpdate
		Eventually(received).Should(Receive(&update))
		Expect(update).To(Equal(profile.RatingUpdate{WorkerID: "worker-1", JobID: jobID, Rating: 4}))
	})

	It("reports non 2xx answers", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "profile store unavailable", http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		client := profile.NewHTTPClient(ts.URL, 5*time.Second)
		err := client.SyncRating(context.TODO(), profile.RatingUpdate{WorkerID: "worker-1", JobID: uuid.New(), Rating: 4})
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("503"))
		Expect(err.Error()).To(ContainSubstring("profile store unavailable"))
	})
})
