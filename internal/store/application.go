package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Application interface {
	// Create inserts a pending application while its job still accepts applications.
	// ErrConditionFailed when the job moved on, ErrRecordNotFound when it does not exist.
	Create(ctx context.Context, app model.Application) (*model.Application, error)
	Get(ctx context.Context, jobID uuid.UUID, workerID string) (*model.Application, error)
	// List returns applications ordered by submission time, oldest first.
	List(ctx context.Context, filter *ApplicationQueryFilter) (model.ApplicationList, error)
	// Accept moves a pending application to accepted. ErrConditionFailed if it was not pending.
	Accept(ctx context.Context, jobID uuid.UUID, workerID string) error
	// RejectOthers rejects every pending application of the job except the worker's.
	RejectOthers(ctx context.Context, jobID uuid.UUID, workerID string) (int64, error)
}

type ApplicationStore struct {
	db *gorm.DB
}

// Make sure we conform to Application interface
var _ Application = (*ApplicationStore)(nil)

func NewApplicationStore(db *gorm.DB) Application {
	return &ApplicationStore{db: db}
}

func (a *ApplicationStore) Create(ctx context.Context, app model.Application) (*model.Application, error) {
	err := getDB(ctx, a.db).Transaction(func(tx *gorm.DB) error {
		// the share lock makes a concurrent assignment wait for this insert, or this insert
		// wait for the assignment and see the job as assigned
		q := tx.Model(&model.Job{}).Select("status").Where("id = ?", app.JobID)
		if isPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "SHARE"})
		}

		var job model.Job
		if err := q.Take(&job).Error; err != nil {
			return err
		}
		if !job.Status.AcceptsApplications() {
			return ErrConditionFailed
		}

		return tx.Create(&app).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &app, nil
}

func (a *ApplicationStore) Get(ctx context.Context, jobID uuid.UUID, workerID string) (*model.Application, error) {
	var app model.Application
	if err := getDB(ctx, a.db).First(&app, "job_id = ? AND worker_id = ?", jobID, workerID).Error; err != nil {
		return nil, translateError(err)
	}
	return &app, nil
}

func (a *ApplicationStore) List(ctx context.Context, filter *ApplicationQueryFilter) (model.ApplicationList, error) {
	var apps model.ApplicationList
	tx := getDB(ctx, a.db).Model(&apps).Order("created_at ASC").Order("worker_id ASC")
	if filter != nil {
		tx = BaseQuerier(*filter).apply(tx)
	}
	if err := tx.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (a *ApplicationStore) Accept(ctx context.Context, jobID uuid.UUID, workerID string) error {
	result := getDB(ctx, a.db).Model(&model.Application{}).
		Where("job_id = ? AND worker_id = ? AND status = ?", jobID, workerID, string(model.ApplicationStatusPending)).
		Updates(map[string]any{
			"status":     string(model.ApplicationStatusAccepted),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (a *ApplicationStore) RejectOthers(ctx context.Context, jobID uuid.UUID, workerID string) (int64, error) {
	result := getDB(ctx, a.db).Model(&model.Application{}).
		Where("job_id = ? AND worker_id <> ? AND status = ?", jobID, workerID, string(model.ApplicationStatusPending)).
		Updates(map[string]any{
			"status":     string(model.ApplicationStatusRejected),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}
