package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/client"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("kaamsetu client", func() {
	var (
		ts       *httptest.Server
		requests chan *http.Request
		bodies   chan []byte
		status   int
		answer   any
	)

	identity := client.Identity{User: "employer-1", Role: "employer", Name: "Asha", Phone: "9876543210", Session: "laptop"}

	BeforeEach(func() {
		requests = make(chan *http.Request, 1)
		bodies = make(chan []byte, 1)
		status = http.StatusOK
		answer = nil

		ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body json.RawMessage
			_ = json.NewDecoder(r.Body).Decode(&body)
			requests <- r
			bodies <- body

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if answer != nil {
				_ = json.NewEncoder(w).Encode(answer)
			}
		}))
	})

	AfterEach(func() {
		ts.Close()
	})

	It("sends the identity headers and the request id", func() {
		answer = api.JobList{{Id: uuid.New(), Title: "Painter", Status: api.JobStatusOpen}}
		c := client.NewClient(ts.URL, identity, nil)

		ctx := requestid.ToContext(context.TODO(), "req-1")
		jobs, err := c.ListJobs(ctx, client.JobListParams{Statuses: []string{"open", "booked"}, Employer: "employer-1", Limit: 20})
		Expect(err).To(BeNil())
		Expect(jobs).To(HaveLen(1))

		var r *http.Request
		Eventually(requests).Should(Receive(&r))
		Expect(r.URL.Path).To(Equal("/api/v1/jobs"))
		Expect(r.URL.Query().Get("status")).To(Equal("open,booked"))
		Expect(r.URL.Query().Get("employer")).To(Equal("employer-1"))
		Expect(r.URL.Query().Get("limit")).To(Equal("20"))
		Expect(r.Header.Get(auth.HeaderUserID)).To(Equal("employer-1"))
		Expect(r.Header.Get(auth.HeaderUserRole)).To(Equal("employer"))
		Expect(r.Header.Get(auth.HeaderSessionID)).To(Equal("laptop"))
		Expect(r.Header.Get(requestid.Header)).To(Equal("req-1"))
	})

	It("uses the bearer token when one is configured", func() {
		answer = api.Job{Id: uuid.New()}
		c := client.NewClient(ts.URL, client.Identity{Token: "abc"}, nil)

		_, err := c.GetJob(context.TODO(), uuid.New())
		Expect(err).To(BeNil())

		var r *http.Request
		Eventually(requests).Should(Receive(&r))
		Expect(r.Header.Get("Authorization")).To(Equal("Bearer abc"))
		Expect(r.Header.Get(auth.HeaderUserID)).To(BeEmpty())
	})

	It("posts the assignment", func() {
		jobID := uuid.New()
		answer = api.Job{Id: jobID, Status: api.JobStatusAssigned}
		c := client.NewClient(ts.URL, identity, nil)

		job, err := c.Assign(context.TODO(), jobID, "worker-a")
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(api.JobStatusAssigned))

		var r *http.Request
		Eventually(requests).Should(Receive(&r))
		Expect(r.Method).To(Equal(http.MethodPost))
		Expect(r.URL.Path).To(Equal("/api/v1/jobs/" + jobID.String() + "/assign"))

		var body []byte
		Eventually(bodies).Should(Receive(&body))
		Expect(string(body)).To(MatchJSON(`{"workerId":"worker-a"}`))
	})

	It("turns error answers into APIError", func() {
		status = http.StatusConflict
		answer = api.Status{Message: "worker worker-a is already assigned to another job"}
		c := client.NewClient(ts.URL, identity, nil)

		_, err := c.Assign(context.TODO(), uuid.New(), "worker-a")
		Expect(err).ToNot(BeNil())

		var apiErr *client.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(http.StatusConflict))
		Expect(apiErr.Message).To(ContainSubstring("already assigned"))
	})

	It("reports a pending rating sync", func() {
		status = http.StatusAccepted
		answer = api.Status{Message: "rating not synced"}
		c := client.NewClient(ts.URL, identity, nil)

		synced, st, err := c.RetryRatingSync(context.TODO(), uuid.New())
		Expect(err).To(BeNil())
		Expect(synced).To(BeFalse())
		Expect(st.Message).To(Equal("rating not synced"))
	})
})

var _ = Describe("client config", func() {
	It("writes and parses a config file", func() {
		filename := filepath.Join(GinkgoT().TempDir(), "kaamsetu", "client.yaml")
		identity := client.Identity{User: "worker-a", Role: "worker", Name: "Ramesh"}

		Expect(client.WriteConfig(filename, "http://localhost:3443", identity)).To(Succeed())

		cfg, err := client.ParseConfigFile(filename)
		Expect(err).To(BeNil())
		Expect(cfg.Service.Server).To(Equal("http://localhost:3443"))
		Expect(cfg.Identity).To(Equal(identity))
	})

	It("refuses a config without server or identity", func() {
		filename := filepath.Join(GinkgoT().TempDir(), "client.yaml")
		Expect(os.WriteFile(filename, []byte("service:\n  server: \"\"\n"), 0600)).To(Succeed())

		_, err := client.ParseConfigFile(filename)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("no server found"))
		Expect(err.Error()).To(ContainSubstring("either a token or a user is required"))
	})

	It("refuses an unknown role", func() {
		cfg := client.NewDefault()
		cfg.Service.Server = "http://localhost:3443"
		cfg.Identity = client.Identity{User: "u-1", Role: "admin"}
		Expect(cfg.Validate()).ToNot(Succeed())
	})
})
