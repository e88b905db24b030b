package auth_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("authentication", func() {
	Context("local authentication", func() {
		It("successfully validates a generated token", func() {
			authenticator, err := auth.NewLocalAuthenticator("secret")
			Expect(err).To(BeNil())

			sToken, err := authenticator.GenerateToken(auth.User{ID: "emp-1", Role: auth.RoleEmployer, Name: "Asha", Phone: "9876543210"})
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.ID).To(Equal("emp-1"))
			Expect(user.Role).To(Equal(auth.RoleEmployer))
			Expect(user.Name).To(Equal("Asha"))
			Expect(user.Phone).To(Equal("9876543210"))
		})

		It("fails to authenticate -- wrong key", func() {
			other, err := auth.NewLocalAuthenticator("other")
			Expect(err).To(BeNil())
			sToken, err := other.GenerateToken(auth.User{ID: "emp-1", Role: auth.RoleEmployer})
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator("secret")
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails to authenticate -- expired token", func() {
			claims := jwt.MapClaims{
				"sub":  "emp-1",
				"role": "employer",
				"iat":  time.Now().Add(-2 * time.Hour).Unix(),
				"exp":  time.Now().Add(-1 * time.Hour).Unix(),
			}
			sToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
			Expect(err).To(BeNil())

			authenticator, err := auth.NewLocalAuthenticator("secret")
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails to authenticate -- unknown role", func() {
			authenticator, err := auth.NewLocalAuthenticator("secret")
			Expect(err).To(BeNil())
			sToken, err := authenticator.GenerateToken(auth.User{ID: "u-1", Role: "admin"})
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("refuses an empty signing key", func() {
			_, err := auth.NewLocalAuthenticator("")
			Expect(err).ToNot(BeNil())
		})
	})

	Context("local auth middleware", func() {
		It("successfully authenticates", func() {
			authenticator, err := auth.NewLocalAuthenticator("secret")
			Expect(err).To(BeNil())
			sToken, err := authenticator.GenerateToken(auth.User{ID: "wrk-1", Role: auth.RoleWorker, Name: "Ravi"})
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			Expect(err).To(BeNil())
			req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", sToken))

			resp, rerr := http.DefaultClient.Do(req)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(h.user.ID).To(Equal("wrk-1"))
			Expect(h.user.Role).To(Equal(auth.RoleWorker))
		})

		It("failed to authenticate -- no token", func() {
			authenticator, err := auth.NewLocalAuthenticator("secret")
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			resp, rerr := http.Get(ts.URL)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})
	})

	Context("none auth middleware", func() {
		It("takes the identity from headers", func() {
			authenticator, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			Expect(err).To(BeNil())
			req.Header.Add(auth.HeaderUserID, "emp-1")
			req.Header.Add(auth.HeaderUserRole, "employer")
			req.Header.Add(auth.HeaderUserName, "Asha")
			req.Header.Add(auth.HeaderUserPhone, "9876543210")

			resp, rerr := http.DefaultClient.Do(req)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(h.user).To(Equal(auth.User{ID: "emp-1", Role: auth.RoleEmployer, Name: "Asha", Phone: "9876543210"}))
		})

		It("rejects requests without identity", func() {
			authenticator, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			ts := httptest.NewServer(authenticator.Authenticator(&handler{}))
			defer ts.Close()

			resp, rerr := http.Get(ts.URL)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})
	})

	Context("authenticator selection", func() {
		It("defaults to trusting identity headers", func() {
			authenticator, err := auth.NewAuthenticator(config.Auth{})
			Expect(err).To(BeNil())
			Expect(authenticator).To(BeAssignableToTypeOf(&auth.NoneAuthenticator{}))
		})

		It("builds a local authenticator", func() {
			authenticator, err := auth.NewAuthenticator(config.Auth{AuthenticationType: auth.LocalAuthentication, LocalSigningKey: "secret"})
			Expect(err).To(BeNil())
			Expect(authenticator).To(BeAssignableToTypeOf(&auth.LocalAuthenticator{}))
		})

		It("rejects an unknown type", func() {
			_, err := auth.NewAuthenticator(config.Auth{AuthenticationType: "rhsso"})
			Expect(err).To(MatchError(ContainSubstring("unknown authentication type")))
		})
	})
})

type handler struct {
	user auth.User
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.user, _ = auth.UserFromContext(r.Context())
	w.WriteHeader(200)
}
