package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"gorm.io/gorm"
)

type RatingSync interface {
	Create(ctx context.Context, entry model.RatingSync) error
	Get(ctx context.Context, jobID uuid.UUID) (*model.RatingSync, error)
	// ListPending returns the least recently tried entries first, so failing entries
	// move behind the others.
	ListPending(ctx context.Context, limit int) (model.RatingSyncList, error)
	MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) error
	Delete(ctx context.Context, jobID uuid.UUID) error
}

type RatingSyncStore struct {
	db *gorm.DB
}

var _ RatingSync = (*RatingSyncStore)(nil)

func NewRatingSyncStore(db *gorm.DB) RatingSync {
	return &RatingSyncStore{db: db}
}

func (r *RatingSyncStore) Create(ctx context.Context, entry model.RatingSync) error {
	return translateError(getDB(ctx, r.db).Create(&entry).Error)
}

func (r *RatingSyncStore) Get(ctx context.Context, jobID uuid.UUID) (*model.RatingSync, error) {
	var entry model.RatingSync
	if err := getDB(ctx, r.db).First(&entry, "job_id = ?", jobID).Error; err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

func (r *RatingSyncStore) ListPending(ctx context.Context, limit int) (model.RatingSyncList, error) {
	var entries model.RatingSyncList
	tx := getDB(ctx, r.db).Model(&entries).
		Order("updated_at ASC").
		Order("created_at ASC").
		Order("job_id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *RatingSyncStore) MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) error {
	result := getDB(ctx, r.db).Model(&model.RatingSync{}).
		Where("job_id = ?", jobID).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *RatingSyncStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	return getDB(ctx, r.db).Where("job_id = ?", jobID).Delete(&model.RatingSync{}).Error
}
