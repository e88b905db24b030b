package v1

func StringToJobStatus(s string) (JobStatus, bool) {
	switch s {
	case string(JobStatusOpen):
		return JobStatusOpen, true
	case string(JobStatusBooked):
		return JobStatusBooked, true
	case string(JobStatusAssigned):
		return JobStatusAssigned, true
	case string(JobStatusCompleted):
		return JobStatusCompleted, true
	case string(JobStatusDispute):
		return JobStatusDispute, true
	default:
		return "", false
	}
}
