package auth

import (
	"fmt"
	"net/http"

	"github.com/kaamsetu/kaamsetu/internal/config"
	"go.uber.org/zap"
)

// Authenticator resolves the User of a request and stores it in the request context.
// Requests without a valid identity are answered with 401.
type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	// LocalAuthentication verifies HS256 tokens signed with the configured key.
	LocalAuthentication string = "local"
	// NoneAuthentication trusts the X-User-* headers of the session layer in front of the api.
	NoneAuthentication string = "none"
)

func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	logger := zap.S().Named("auth")

	switch authConfig.AuthenticationType {
	case LocalAuthentication:
		logger.Infow("authenticating with signed tokens")
		return NewLocalAuthenticator(authConfig.LocalSigningKey)
	case NoneAuthentication, "":
		logger.Warnw("trusting identity headers, the api must sit behind the session layer")
		return NewNoneAuthenticator()
	default:
		return nil, fmt.Errorf("unknown authentication type %q: must be %s or %s", authConfig.AuthenticationType, LocalAuthentication, NoneAuthentication)
	}
}
