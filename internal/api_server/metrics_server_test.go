package apiserver_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"

	apiserver "github.com/kaamsetu/kaamsetu/internal/api_server"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("metrics server", Ordered, func() {
	var (
		baseURL string
		cancel  context.CancelFunc
		done    chan error
		healthy atomic.Bool
	)

	BeforeAll(func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(BeNil())
		baseURL = "http://" + listener.Addr().String()

		ready := func(ctx context.Context) error {
			if !healthy.Load() {
				return errors.New("database is down")
			}
			return nil
		}

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			done <- apiserver.NewMetricServer(listener.Addr().String(), listener, ready).Run(ctx)
		}()
	})

	AfterAll(func() {
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	status := func(path string) int {
		resp, err := http.Get(baseURL + path)
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		return resp.StatusCode
	}

	It("is always live", func() {
		Expect(status("/healthz")).To(Equal(http.StatusOK))
	})

	It("reports readiness from the check", func() {
		Expect(status("/readyz")).To(Equal(http.StatusServiceUnavailable))

		healthy.Store(true)
		Expect(status("/readyz")).To(Equal(http.StatusOK))
	})

	It("serves prometheus metrics", func() {
		Expect(status("/metrics")).To(Equal(http.StatusOK))
	})
})
