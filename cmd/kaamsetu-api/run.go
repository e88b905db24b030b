package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiserver "github.com/kaamsetu/kaamsetu/internal/api_server"
	"github.com/kaamsetu/kaamsetu/internal/config"
	"github.com/kaamsetu/kaamsetu/internal/events"
	handlers "github.com/kaamsetu/kaamsetu/internal/handlers/v1"
	"github.com/kaamsetu/kaamsetu/internal/profile"
	"github.com/kaamsetu/kaamsetu/internal/service"
	"github.com/kaamsetu/kaamsetu/internal/store"
	"github.com/kaamsetu/kaamsetu/internal/subscription"
	certprovider "github.com/kaamsetu/kaamsetu/pkg/cert_provider"
	"github.com/kaamsetu/kaamsetu/pkg/log"
	"github.com/kaamsetu/kaamsetu/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the kaamsetu api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger, err := log.InitLog(log.Options{Level: cfg.Service.LogLevel, Format: cfg.Service.LogFormat})
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := migrate(cfg, db, s); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		producer, err := newEventProducer(cfg.Service.Notification)
		if err != nil {
			zap.S().Fatalw("creating event producer", "error", err)
		}
		defer producer.Close()

		registry := subscription.NewRegistry(subscription.NewStoreFetcher(s), cfg.Service.Subscription.PollInterval)
		defer registry.Close()

		// local live queries refresh at once, other replicas hear about the write through postgres
		publisher := store.NewChangePublisher(db)
		notifier := service.NotifierFunc(func(ctx context.Context, collection string) {
			registry.Notify(ctx, collection)
			publisher.Publish(ctx, collection)
		})

		profileSrv := profile.NewService(s)
		completionSrv := service.NewCompletionService(s, notifier, producer, newProfileClient(cfg.Service.RatingSync, profileSrv))

		h := handlers.NewServiceHandler(
			service.NewJobService(s, notifier),
			service.NewApplicationService(s, notifier, producer),
			service.NewAssignmentService(s, notifier, producer, cfg.Service.Assignment),
			completionSrv,
			profileSrv,
			registry,
		)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				return fmt.Errorf("creating listener: %w", err)
			}
			if cfg.Service.TLSSelfSigned {
				tlsConfig, _, err := certprovider.NewSelfSignedCertificateProvider("KaamSetu").TLSConfig(time.Now().AddDate(1, 0, 0))
				if err != nil {
					return fmt.Errorf("creating self signed certificate: %w", err)
				}
				zap.S().Warn("serving the api with a self signed certificate")
				listener = tls.NewListener(listener, tlsConfig)
			}
			return apiserver.New(cfg, listener, h).Run(gctx)
		})

		g.Go(func() error {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				return fmt.Errorf("creating metrics listener: %w", err)
			}
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, pingDB(db)).Run(gctx)
		})

		g.Go(func() error {
			return service.NewRatingSyncRetrier(completionSrv, cfg.Service.RatingSync.RetryInterval, cfg.Service.RatingSync.BatchSize).Run(gctx)
		})

		if cfg.Database.Type == store.PostgresType {
			g.Go(func() error {
				return store.NewChangeListener(store.PostgresDSN(cfg), func(collection string) {
					registry.Notify(gctx, collection)
				}).Run(gctx)
			})
		}

		// streams end with their subscriptions, which lets the api server drain
		g.Go(func() error {
			<-gctx.Done()
			registry.Close()
			return nil
		})

		if err := g.Wait(); err != nil {
			zap.S().Errorw("service failed", "error", err)
			return err
		}
		return nil
	},
}

func migrate(cfg *config.Config, db *gorm.DB, s store.Store) error {
	if cfg.Database.Type != store.PostgresType {
		return s.InitialMigration()
	}
	return migrations.MigrateStore(db, cfg.Database.MigrationFolder)
}

func newEventProducer(cfg config.Notification) (*events.EventProducer, error) {
	var writer events.Writer = &events.StdoutWriter{}
	if cfg.SinkURL != "" {
		w, err := events.NewWebhookWriter(cfg.SinkURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		writer = w
	}
	return events.NewEventProducer(writer,
		events.WithOutputTopic(cfg.Topic),
		events.WithBufferSize(cfg.BufferSize),
		events.WithWriteTimeout(cfg.Timeout),
	), nil
}

func newProfileClient(cfg config.RatingSync, local *profile.Service) profile.Client {
	if cfg.URL == "" {
		return profile.NewLocalClient(local)
	}
	return profile.NewHTTPClient(cfg.URL, cfg.Timeout)
}

func pingDB(db *gorm.DB) apiserver.ReadinessCheck {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
