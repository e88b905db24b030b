package events

import (
	"strings"
	"time"
)

// ContactEvent lets the employer reach a worker who just applied.
type ContactEvent struct {
	JobID         string    `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	EmployerID    string    `json:"employer_id"`
	EmployerPhone string    `json:"employer_phone,omitempty"`
	WorkerID      string    `json:"worker_id"`
	WorkerName    string    `json:"worker_name"`
	WorkerPhone   string    `json:"worker_phone,omitempty"`
	ContactLink   string    `json:"contact_link,omitempty"`
	AppliedAt     time.Time `json:"applied_at"`
}

// JobEvent reports a lifecycle change of a job.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	Status     string    `json:"status"`
	EmployerID string    `json:"employer_id"`
	WorkerID   string    `json:"worker_id,omitempty"`
	Rating     *int      `json:"rating,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// WhatsAppLink returns the wa.me deep link of an Indian mobile number, or "" if phone is empty.
func WhatsAppLink(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if digits == "" {
		return ""
	}
	return "https://wa.me/91" + digits
}
