package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkerAssignment exists while a worker is bound to an assigned job.
// The primary key on worker_id is what keeps a worker on a single job at a time.
type WorkerAssignment struct {
	WorkerID  string    `gorm:"primaryKey;column:worker_id;type:VARCHAR(255);"`
	JobID     uuid.UUID `gorm:"not null;type:VARCHAR(255);uniqueIndex:worker_assignments_job_id_idx"`
	CreatedAt time.Time `gorm:"not null"`
}
