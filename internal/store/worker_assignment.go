package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"gorm.io/gorm"
)

type WorkerAssignment interface {
	// Acquire binds the worker to the job. ErrDuplicateKey means the worker is already bound.
	Acquire(ctx context.Context, workerID string, jobID uuid.UUID) error
	Get(ctx context.Context, workerID string) (*model.WorkerAssignment, error)
	ReleaseByJob(ctx context.Context, jobID uuid.UUID) error
}

type WorkerAssignmentStore struct {
	db *gorm.DB
}

var _ WorkerAssignment = (*WorkerAssignmentStore)(nil)

func NewWorkerAssignmentStore(db *gorm.DB) WorkerAssignment {
	return &WorkerAssignmentStore{db: db}
}

func (w *WorkerAssignmentStore) Acquire(ctx context.Context, workerID string, jobID uuid.UUID) error {
	lock := model.WorkerAssignment{WorkerID: workerID, JobID: jobID}
	return translateError(getDB(ctx, w.db).Create(&lock).Error)
}

func (w *WorkerAssignmentStore) Get(ctx context.Context, workerID string) (*model.WorkerAssignment, error) {
	var lock model.WorkerAssignment
	if err := getDB(ctx, w.db).First(&lock, "worker_id = ?", workerID).Error; err != nil {
		return nil, translateError(err)
	}
	return &lock, nil
}

func (w *WorkerAssignmentStore) ReleaseByJob(ctx context.Context, jobID uuid.UUID) error {
	return getDB(ctx, w.db).Where("job_id = ?", jobID).Delete(&model.WorkerAssignment{}).Error
}
