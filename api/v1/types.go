package v1

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusOpen      JobStatus = "open"
	JobStatusBooked    JobStatus = "booked"
	JobStatusAssigned  JobStatus = "assigned"
	JobStatusCompleted JobStatus = "completed"
	JobStatusDispute   JobStatus = "dispute"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Job defines model for Job.
type Job struct {
	Id                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Pay                int        `json:"pay"`
	Location           string     `json:"location"`
	EmployerId         string     `json:"employerId"`
	EmployerPhone      string     `json:"employerPhone,omitempty"`
	Status             JobStatus  `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	AssignedWorkerId   *string    `json:"assignedWorkerId,omitempty"`
	AssignedWorkerName *string    `json:"assignedWorkerName,omitempty"`
	AssignedAt         *time.Time `json:"assignedAt,omitempty"`
	FeeLockedAt        *time.Time `json:"feeLockedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	Rating             *int       `json:"rating,omitempty"`
	Review             *string    `json:"review,omitempty"`
	DisputeReason      *string    `json:"disputeReason,omitempty"`
	DisputedAt         *time.Time `json:"disputedAt,omitempty"`
}

type JobList []Job

// JobCreate defines the body of POST /api/v1/jobs.
type JobCreate struct {
	Title         string `json:"title"`
	Pay           int    `json:"pay"`
	Location      string `json:"location"`
	EmployerPhone string `json:"employerPhone,omitempty"`
}

type Application struct {
	JobId       uuid.UUID         `json:"jobId"`
	WorkerId    string            `json:"workerId"`
	WorkerName  string            `json:"workerName"`
	WorkerPhone string            `json:"workerPhone,omitempty"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

type ApplicationList []Application

// ApplicationCreate overrides the identity name and phone when set.
type ApplicationCreate struct {
	WorkerName  string `json:"workerName,omitempty"`
	WorkerPhone string `json:"workerPhone,omitempty"`
}

type ApplicationResult struct {
	Application    Application `json:"application"`
	AlreadyApplied bool        `json:"alreadyApplied"`
}

type Assign struct {
	WorkerId string `json:"workerId"`
}

type Complete struct {
	Rating *int    `json:"rating,omitempty"`
	Review *string `json:"review,omitempty"`
}

// CompletionResult carries the completed job. Warning is set when the rating did not reach the worker profile yet.
type CompletionResult struct {
	Job     Job     `json:"job"`
	Warning *string `json:"warning,omitempty"`
}

type Dispute struct {
	Reason string `json:"reason,omitempty"`
}

type WorkerProfile struct {
	WorkerId      string  `json:"workerId"`
	CompletedJobs int64   `json:"completedJobs"`
	RatingCount   int64   `json:"ratingCount"`
	AverageRating float64 `json:"averageRating"`
}

// Snapshot is one delivery of a live query.
type Snapshot struct {
	Key          string          `json:"key"`
	Version      uint64          `json:"version"`
	FetchedAt    time.Time       `json:"fetchedAt"`
	Jobs         JobList         `json:"jobs,omitempty"`
	Applications ApplicationList `json:"applications,omitempty"`
}

type Status struct {
	Message string `json:"message"`
}

type Info struct {
	Version string `json:"version"`
}
