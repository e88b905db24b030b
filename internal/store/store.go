package store

import (
	"context"

	"github.com/kaamsetu/kaamsetu/internal/store/model"
	"gorm.io/gorm"
)

const (
	CollectionJobs         = "jobs"
	CollectionApplications = "applications"
	CollectionProfiles     = "profiles"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	Application() Application
	WorkerAssignment() WorkerAssignment
	RatingSync() RatingSync
	WorkerRating() WorkerRating
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db               *gorm.DB
	job              Job
	application      Application
	workerAssignment WorkerAssignment
	ratingSync       RatingSync
	workerRating     WorkerRating
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:               db,
		job:              NewJobStore(db),
		application:      NewApplicationStore(db),
		workerAssignment: NewWorkerAssignmentStore(db),
		ratingSync:       NewRatingSyncStore(db),
		workerRating:     NewWorkerRatingStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Application() Application {
	return s.application
}

func (s *DataStore) WorkerAssignment() WorkerAssignment {
	return s.workerAssignment
}

func (s *DataStore) RatingSync() RatingSync {
	return s.ratingSync
}

func (s *DataStore) WorkerRating() WorkerRating {
	return s.workerRating
}

// InitialMigration creates the schema from the models. Production PostgreSQL
// databases are migrated with goose instead, see pkg/migrations.
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Job{},
		&model.Application{},
		&model.WorkerAssignment{},
		&model.RatingSync{},
		&model.WorkerRating{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
