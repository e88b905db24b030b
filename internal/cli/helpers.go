package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	JobKind         = "job"
	ApplicationKind = "application"
	ProfileKind     = "profile"
	AssignmentKind  = "assignment"
)

var (
	pluralKinds = map[string]string{
		JobKind:         "jobs",
		ApplicationKind: "applications",
		ProfileKind:     "profiles",
		AssignmentKind:  "assignments",
	}
)

// parseAndValidateKindId splits TYPE/ID. Applications are listed per job, profiles and
// assignments are read per worker, so those kinds need an id.
func parseAndValidateKindId(arg string) (string, string, error) {
	kind, id, _ := strings.Cut(arg, "/")
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", "", fmt.Errorf("invalid resource kind: %s", kind)
	}

	switch kind {
	case JobKind, ApplicationKind:
		if id == "" {
			if kind == ApplicationKind {
				return "", "", fmt.Errorf("%s needs a job id: %s/<job id>", plural(kind), plural(kind))
			}
			return kind, "", nil
		}
		if _, err := uuid.Parse(id); err != nil {
			return "", "", fmt.Errorf("invalid job id %q: %w", id, err)
		}
	default:
		if id == "" {
			return "", "", fmt.Errorf("%s needs a worker id: %s/<worker id>", kind, kind)
		}
	}
	return kind, id, nil
}

func parseJobID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", arg, err)
	}
	return id, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}

func plural(kind string) string {
	return pluralKinds[kind]
}
