package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobSchemaVersion is bumped whenever the jobs table layout changes.
const JobSchemaVersion = 1

type JobStatus string

const (
	JobStatusOpen      JobStatus = "open"
	JobStatusBooked    JobStatus = "booked"
	JobStatusAssigned  JobStatus = "assigned"
	JobStatusCompleted JobStatus = "completed"
	JobStatusDispute   JobStatus = "dispute"
)

// jobTransitions lists, for each target status, the statuses a job may leave to reach it.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusBooked:    {JobStatusOpen},
	JobStatusAssigned:  {JobStatusOpen, JobStatusBooked},
	JobStatusCompleted: {JobStatusAssigned},
	JobStatusDispute:   {JobStatusOpen, JobStatusBooked},
}

// SourcesOf returns the statuses from which target is reachable.
func SourcesOf(target JobStatus) []JobStatus {
	return jobTransitions[target]
}

func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	for _, from := range jobTransitions[target] {
		if from == s {
			return true
		}
	}
	return false
}

// AcceptsApplications is true while no worker is bound to the job.
func (s JobStatus) AcceptsApplications() bool {
	return s == JobStatusOpen || s == JobStatusBooked
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusOpen, JobStatusBooked, JobStatusAssigned, JobStatusCompleted, JobStatusDispute:
		return true
	}
	return false
}

type Job struct {
	ID                 uuid.UUID  `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	SchemaVersion      int        `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null;index:jobs_created_at_idx"`
	UpdatedAt          time.Time  `gorm:"not null"`
	Title              string     `gorm:"not null"`
	Pay                int        `gorm:"not null"`
	Location           string     `gorm:"not null"`
	EmployerID         string     `gorm:"not null;type:VARCHAR(255);index:jobs_employer_id_idx"`
	EmployerPhone      string     `gorm:"type:VARCHAR(32)"`
	Status             JobStatus  `gorm:"not null;type:VARCHAR(32);index:jobs_status_idx"`
	AssignedWorkerID   *string    `gorm:"type:VARCHAR(255);index:jobs_assigned_worker_idx"`
	AssignedWorkerName *string    `gorm:"type:VARCHAR(255)"`
	AssignedAt         *time.Time
	FeeLockedAt        *time.Time
	CompletedAt        *time.Time
	Rating             *int
	Review             *string
	DisputeReason      *string
	DisputedAt         *time.Time
}

type JobList []Job

func NewJob(title string, pay int, location, employerID, employerPhone string) Job {
	return Job{
		ID:            uuid.New(),
		SchemaVersion: JobSchemaVersion,
		Title:         title,
		Pay:           pay,
		Location:      location,
		EmployerID:    employerID,
		EmployerPhone: employerPhone,
		Status:        JobStatusOpen,
	}
}

func (j Job) IsAssignedTo(workerID string) bool {
	return j.Status == JobStatusAssigned && j.AssignedWorkerID != nil && *j.AssignedWorkerID == workerID
}

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
