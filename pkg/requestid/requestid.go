package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey struct{}

// Header carries the request id between kaamctl, the api and the outgoing sync calls.
const Header = "X-Request-Id"

func Generate() string {
	return uuid.New().String()
}

func ToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request id of ctx or an empty string.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKey{}).(string); ok {
		return requestID
	}
	return ""
}

func FromRequest(r *http.Request) string {
	return FromContext(r.Context())
}

// Propagate copies the request id of ctx to an outgoing request, generating one when ctx has none.
func Propagate(ctx context.Context, req *http.Request) {
	requestID := FromContext(ctx)
	if requestID == "" {
		requestID = Generate()
	}
	req.Header.Set(Header, requestID)
}

// Logger adds the request id of ctx to logger, when there is one.
func Logger(ctx context.Context, logger *zap.SugaredLogger) *zap.SugaredLogger {
	if requestID := FromContext(ctx); requestID != "" {
		return logger.With("request_id", requestID)
	}
	return logger
}
