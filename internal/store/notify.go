package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChangesChannel is the PostgreSQL notification channel carrying the name of the changed collection.
const ChangesChannel = "kaamsetu_changes"

// ChangePublisher announces committed writes to other processes.
type ChangePublisher interface {
	Publish(ctx context.Context, collection string)
}

// NewChangePublisher returns a pg_notify based publisher for PostgreSQL and a no-op otherwise.
func NewChangePublisher(db *gorm.DB) ChangePublisher {
	if isPostgres(db) {
		return &pgPublisher{db: db}
	}
	return noopPublisher{}
}

type pgPublisher struct {
	db *gorm.DB
}

func (p *pgPublisher) Publish(ctx context.Context, collection string) {
	if err := p.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", ChangesChannel, collection).Error; err != nil {
		zap.S().Named("store").Warnw("failed to publish change", "collection", collection, "error", err)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string) {}

// ChangeListener relays PostgreSQL notifications on ChangesChannel to a callback.
type ChangeListener struct {
	dsn      string
	onChange func(collection string)
	backoff  time.Duration
}

func NewChangeListener(dsn string, onChange func(collection string)) *ChangeListener {
	return &ChangeListener{dsn: dsn, onChange: onChange, backoff: 2 * time.Second}
}

// Run listens until ctx is cancelled, reconnecting after connection failures.
func (l *ChangeListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		zap.S().Named("change_listener").Warnw("listener disconnected", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
		return err
	}
	zap.S().Named("change_listener").Infof("listening on %s", ChangesChannel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.onChange(n.Payload)
	}
}
