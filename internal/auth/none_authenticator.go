package auth

import (
	"net/http"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
	HeaderUserPhone = "X-User-Phone"

	// HeaderSessionID names the client session owning the live queries of a request.
	// Without it the user id is the session.
	HeaderSessionID = "X-Session-ID"
)

// NoneAuthenticator trusts the identity headers set by the upstream session layer.
type NoneAuthenticator struct{}

func NewNoneAuthenticator() (*NoneAuthenticator, error) {
	return &NoneAuthenticator{}, nil
}

func (n *NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := User{
			ID:    r.Header.Get(HeaderUserID),
			Role:  Role(r.Header.Get(HeaderUserRole)),
			Name:  r.Header.Get(HeaderUserName),
			Phone: r.Header.Get(HeaderUserPhone),
		}
		if user.ID == "" {
			http.Error(w, "No identity provided", http.StatusUnauthorized)
			return
		}
		if !user.Role.Valid() {
			http.Error(w, "unknown role", http.StatusUnauthorized)
			return
		}

		ctx := NewUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
