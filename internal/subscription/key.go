package subscription

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaamsetu/kaamsetu/internal/store"
)

const (
	KindJobFeed      = "jobs/feed"
	KindEmployerJobs = "jobs/employer"
	KindApplications = "applications"
	KindAssignment   = "assignment"
)

// Key identifies a live query. At most one subscription per key is kept by a Manager.
type Key string

func JobFeedKey() Key {
	return Key(KindJobFeed)
}

func EmployerJobsKey(employerID string) Key {
	return Key(KindEmployerJobs + "/" + employerID)
}

func ApplicationsKey(jobID uuid.UUID) Key {
	return Key(KindApplications + "/" + jobID.String())
}

func AssignmentKey(workerID string) Key {
	return Key(KindAssignment + "/" + workerID)
}

func ParseKey(s string) (Key, error) {
	s = strings.Trim(s, "/")
	switch {
	case s == KindJobFeed:
		return JobFeedKey(), nil
	case strings.HasPrefix(s, KindEmployerJobs+"/"):
		if id := strings.TrimPrefix(s, KindEmployerJobs+"/"); id != "" && !strings.Contains(id, "/") {
			return EmployerJobsKey(id), nil
		}
	case strings.HasPrefix(s, KindApplications+"/"):
		id, err := uuid.Parse(strings.TrimPrefix(s, KindApplications+"/"))
		if err != nil {
			return "", fmt.Errorf("invalid job id in subscription key %q: %w", s, err)
		}
		return ApplicationsKey(id), nil
	case strings.HasPrefix(s, KindAssignment+"/"):
		if id := strings.TrimPrefix(s, KindAssignment+"/"); id != "" && !strings.Contains(id, "/") {
			return AssignmentKey(id), nil
		}
	}
	return "", fmt.Errorf("unknown subscription key %q", s)
}

func (k Key) String() string {
	return string(k)
}

func (k Key) Kind() string {
	switch {
	case k == Key(KindJobFeed):
		return KindJobFeed
	case strings.HasPrefix(string(k), KindEmployerJobs+"/"):
		return KindEmployerJobs
	case strings.HasPrefix(string(k), KindApplications+"/"):
		return KindApplications
	default:
		return KindAssignment
	}
}

// param is the last path element: employer id, job id or worker id.
func (k Key) param() string {
	return strings.TrimPrefix(strings.TrimPrefix(string(k), k.Kind()), "/")
}

// Collection is the store collection whose writes invalidate the query.
func (k Key) Collection() string {
	if k.Kind() == KindApplications {
		return store.CollectionApplications
	}
	return store.CollectionJobs
}
