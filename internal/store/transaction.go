package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey int

const (
	transactionKey contextKey = iota
)

var errTxNotStarted = errors.New("transaction hasn't started yet")

// Tx is the transaction carried by a context. Hooks registered with AfterCommit run once
// the commit succeeded and are dropped on rollback.
type Tx struct {
	txId        int64
	tx          *gorm.DB
	startedAt   time.Time
	afterCommit []func()
}

func Commit(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok {
		return ctx, nil
	}

	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Commit()
}

func Rollback(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok {
		return ctx, nil
	}

	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Rollback()
}

// AfterCommit defers fn until the transaction of ctx commits. Without a transaction fn runs now.
func AfterCommit(ctx context.Context, fn func()) {
	if tx, ok := ctx.Value(transactionKey).(*Tx); ok && tx.tx != nil {
		tx.afterCommit = append(tx.afterCommit, fn)
		return
	}
	fn()
}

func FromContext(ctx context.Context) *gorm.DB {
	if tx, found := ctx.Value(transactionKey).(*Tx); found {
		if dbTx, err := tx.Db(); err == nil {
			return dbTx
		}
	}
	return nil
}

func newTransactionContext(ctx context.Context, db *gorm.DB) (context.Context, error) {
	// nested calls join the outer transaction
	if tx, found := ctx.Value(transactionKey).(*Tx); found && tx.tx != nil {
		return ctx, nil
	}

	tx, err := newTransaction(db.Session(&gorm.Session{Context: ctx}))
	if err != nil {
		return ctx, err
	}

	return context.WithValue(ctx, transactionKey, tx), nil
}

func newTransaction(db *gorm.DB) (*Tx, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	// postgres txids are reused after vacuum, they only help correlating logs
	var txid struct{ ID int64 }
	if isPostgres(db) {
		tx.Raw("select txid_current() as id").Scan(&txid)
	}

	return &Tx{
		txId:      txid.ID,
		tx:        tx,
		startedAt: time.Now(),
	}, nil
}

func (t *Tx) Db() (*gorm.DB, error) {
	if t.tx != nil {
		return t.tx, nil
	}
	return nil, errTxNotStarted
}

func (t *Tx) Commit() error {
	if t.tx == nil {
		return errTxNotStarted
	}

	logger := zap.S().Named("store")
	err := t.tx.Commit().Error
	t.tx = nil
	hooks := t.afterCommit
	t.afterCommit = nil

	if err != nil {
		logger.Errorw("failed to commit transaction", "txid", t.txId, "error", err)
		return err
	}
	logger.Debugw("transaction committed", "txid", t.txId, "duration", time.Since(t.startedAt))

	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (t *Tx) Rollback() error {
	if t.tx == nil {
		return errTxNotStarted
	}

	err := t.tx.Rollback().Error
	t.tx = nil
	t.afterCommit = nil

	if err != nil {
		zap.S().Named("store").Errorw("failed to rollback transaction", "txid", t.txId, "error", err)
		return err
	}
	zap.S().Named("store").Debugw("transaction rolled back", "txid", t.txId, "duration", time.Since(t.startedAt))
	return nil
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}
