package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/config"
	handlers "github.com/kaamsetu/kaamsetu/internal/handlers/v1"
	"github.com/kaamsetu/kaamsetu/internal/util"
	"github.com/kaamsetu/kaamsetu/pkg/metrics"
	"github.com/kaamsetu/kaamsetu/pkg/middleware"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	listener net.Listener
	handler  *handlers.ServiceHandler
}

// New returns a new instance of a kaamsetu api server.
func New(
	cfg *config.Config,
	listener net.Listener,
	handler *handlers.ServiceHandler,
) *Server {
	return &Server{
		cfg:      cfg,
		listener: listener,
		handler:  handler,
	}
}

func oapiErrorHandler(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.Status{Message: fmt.Sprintf("API Error: %s", message)})
}

// RequestValidator rejects requests that do not match the /api/v1 OpenAPI document.
func RequestValidator() (func(http.Handler) http.Handler, error) {
	swagger, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load swagger spec: %w", err)
	}
	// Skip server name validation
	swagger.Servers = nil

	oapiOpts := oapimiddleware.Options{
		ErrorHandler: oapiErrorHandler,
	}
	return oapimiddleware.OapiRequestValidatorWithOptions(swagger, &oapiOpts), nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")
	validator, err := RequestValidator()
	if err != nil {
		return err
	}

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	router := chi.NewRouter()

	metricMiddleware, err := metrics.NewMiddleware("api_server")
	if err != nil {
		return fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	if err := metricMiddleware.Register(); err != nil {
		return fmt.Errorf("failed to register http metrics: %w", err)
	}

	router.Use(
		util.PathPrefixRewrite(s.cfg.Service.PathPrefix),
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.AllowedOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		authenticator.Authenticator,
		middleware.RequestID,
		middleware.Logger("/api/v1/info"),
		chiMiddleware.Recoverer,
		validator,
	)

	s.handler.RegisterRoutes(router)

	// no write timeout: subscriptions are long lived streams
	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
