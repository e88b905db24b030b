package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
)

type ErrValidation struct {
	error
}

func NewErrValidation(err error) *ErrValidation {
	return &ErrValidation{fmt.Errorf("validation failed: %w", err)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id string, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id.String(), "job")
}

func NewErrApplicationNotFound(jobID uuid.UUID, workerID string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("application of worker %s to job %s not found", workerID, jobID)}
}

func NewErrAssignmentNotFound(workerID string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("worker %s has no active assignment", workerID)}
}

func NewErrRatingSyncNotFound(jobID uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(jobID.String(), "pending rating of job")
}

// ErrWorkerAlreadyAssigned is returned when the worker is bound to another job.
type ErrWorkerAlreadyAssigned struct {
	error
}

func NewErrWorkerAlreadyAssigned(workerID string) *ErrWorkerAlreadyAssigned {
	return &ErrWorkerAlreadyAssigned{fmt.Errorf("worker %s is already assigned to another job", workerID)}
}

// ErrAlreadyAssigned is returned when the job was assigned by someone else first.
type ErrAlreadyAssigned struct {
	error
}

func NewErrAlreadyAssigned(jobID uuid.UUID) *ErrAlreadyAssigned {
	return &ErrAlreadyAssigned{fmt.Errorf("job %s is already assigned", jobID)}
}

type ErrInvalidTransition struct {
	error
}

func NewErrInvalidTransition(jobID uuid.UUID, from, to model.JobStatus) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("job %s cannot move from %s to %s", jobID, from, to)}
}

func NewErrApplicationNotPending(jobID uuid.UUID, workerID string, status model.ApplicationStatus) *ErrInvalidTransition {
	return &ErrInvalidTransition{fmt.Errorf("application of worker %s to job %s is %s", workerID, jobID, status)}
}

type ErrJobNotAccepting struct {
	error
}

func NewErrJobNotAccepting(jobID uuid.UUID, status model.JobStatus) *ErrJobNotAccepting {
	return &ErrJobNotAccepting{fmt.Errorf("job %s is %s and no longer accepts applications", jobID, status)}
}

type ErrForbidden struct {
	error
}

func NewErrForbidden(userID string, action string, jobID uuid.UUID) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("user %s is not allowed to %s job %s", userID, action, jobID)}
}

func NewErrRoleForbidden(userID string, action string) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("user %s is not allowed to %s", userID, action)}
}

// ErrTransactionFailure means the write did not commit. Nothing was persisted.
type ErrTransactionFailure struct {
	error
}

func NewErrTransactionFailure(err error) *ErrTransactionFailure {
	return &ErrTransactionFailure{fmt.Errorf("transaction failed: %w", err)}
}

// ErrRatingSync means the job completed but its rating did not reach the worker profile yet.
type ErrRatingSync struct {
	error
}

func NewErrRatingSync(jobID uuid.UUID, err error) *ErrRatingSync {
	return &ErrRatingSync{fmt.Errorf("rating of job %s not synced: %w", jobID, err)}
}
