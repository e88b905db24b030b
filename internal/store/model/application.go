package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application is keyed by (job, worker): a worker applies at most once per job.
type Application struct {
	JobID       uuid.UUID         `gorm:"primaryKey;column:job_id;type:VARCHAR(255);"`
	WorkerID    string            `gorm:"primaryKey;column:worker_id;type:VARCHAR(255);"`
	WorkerName  string            `gorm:"not null"`
	WorkerPhone string            `gorm:"type:VARCHAR(32)"`
	Status      ApplicationStatus `gorm:"not null;type:VARCHAR(32)"`
	CreatedAt   time.Time         `gorm:"not null"`
	UpdatedAt   time.Time         `gorm:"not null"`
}

type ApplicationList []Application

func NewApplication(jobID uuid.UUID, workerID, workerName, workerPhone string) Application {
	return Application{
		JobID:       jobID,
		WorkerID:    workerID,
		WorkerName:  workerName,
		WorkerPhone: workerPhone,
		Status:      ApplicationStatusPending,
	}
}
