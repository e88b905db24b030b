package middleware_test

import (
	"net/http"
	"net/http/httptest"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kaamsetu/kaamsetu/pkg/middleware"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("request id middleware", func() {
	var seen string

	handler := middleware.RequestID(middleware.Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromRequest(r)
		w.WriteHeader(http.StatusNoContent)
	})))

	BeforeEach(func() {
		seen = ""
	})

	It("keeps the id sent by the client", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
		req.Header.Set(chiMiddleware.RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(seen).To(Equal("req-42"))
		Expect(rec.Header().Get(chiMiddleware.RequestIDHeader)).To(Equal("req-42"))
		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})

	It("replaces an id that is not printable ascii", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
		req.Header.Set(chiMiddleware.RequestIDHeader, "req 42\n")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(seen).NotTo(Equal("req 42\n"))
		Expect(seen).NotTo(BeEmpty())
		Expect(rec.Header().Get(chiMiddleware.RequestIDHeader)).To(Equal(seen))
	})

	It("generates an id when none is sent", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

		Expect(seen).NotTo(BeEmpty())
		Expect(rec.Header().Get(chiMiddleware.RequestIDHeader)).To(Equal(seen))
	})
})
