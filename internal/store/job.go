package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"gorm.io/gorm"
)

// JobTransition describes a status change and the fields written with it.
// Nil fields are left untouched.
type JobTransition struct {
	Target             model.JobStatus
	AssignedWorkerID   *string
	AssignedWorkerName *string
	AssignedAt         *time.Time
	FeeLockedAt        *time.Time
	CompletedAt        *time.Time
	Rating             *int
	Review             *string
	DisputeReason      *string
	DisputedAt         *time.Time
}

func (t JobTransition) columns() map[string]any {
	cols := map[string]any{
		"status":     string(t.Target),
		"updated_at": time.Now(),
	}
	if t.AssignedWorkerID != nil {
		cols["assigned_worker_id"] = *t.AssignedWorkerID
	}
	if t.AssignedWorkerName != nil {
		cols["assigned_worker_name"] = *t.AssignedWorkerName
	}
	if t.AssignedAt != nil {
		cols["assigned_at"] = *t.AssignedAt
	}
	if t.FeeLockedAt != nil {
		cols["fee_locked_at"] = *t.FeeLockedAt
	}
	if t.CompletedAt != nil {
		cols["completed_at"] = *t.CompletedAt
	}
	if t.Rating != nil {
		cols["rating"] = *t.Rating
	}
	if t.Review != nil {
		cols["review"] = *t.Review
	}
	if t.DisputeReason != nil {
		cols["dispute_reason"] = *t.DisputeReason
	}
	if t.DisputedAt != nil {
		cols["disputed_at"] = *t.DisputedAt
	}
	return cols
}

type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	Count(ctx context.Context, filter *JobQueryFilter) (int64, error)
	// Transition applies t only if the job currently sits in one of the statuses
	// allowed to reach t.Target. ErrConditionFailed means no row matched.
	Transition(ctx context.Context, id uuid.UUID, t JobTransition) (*model.Job, error)
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SchemaVersion == 0 {
		job.SchemaVersion = model.JobSchemaVersion
	}
	if err := getDB(ctx, s.db).Create(&job).Error; err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	if err := getDB(ctx, s.db).First(&job, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList
	tx := getDB(ctx, s.db).Model(&jobs)

	if filter != nil {
		tx = BaseQuerier(*filter).apply(tx)
	}
	if opts != nil {
		tx = BaseQuerier(*opts).apply(tx)
	} else {
		tx = tx.Order("created_at DESC")
	}

	if err := tx.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *JobStore) Count(ctx context.Context, filter *JobQueryFilter) (int64, error) {
	var count int64
	tx := getDB(ctx, s.db).Model(&model.Job{})
	if filter != nil {
		tx = BaseQuerier(*filter).apply(tx)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *JobStore) Transition(ctx context.Context, id uuid.UUID, t JobTransition) (*model.Job, error) {
	sources := model.SourcesOf(t.Target)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no transition leads to status %q", t.Target)
	}

	db := getDB(ctx, s.db)
	result := db.Model(&model.Job{}).
		Where("id = ? AND status IN ?", id, statusStrings(sources)).
		Updates(t.columns())
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrConditionFailed
	}

	return s.Get(ctx, id)
}
