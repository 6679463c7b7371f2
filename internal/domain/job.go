package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// B2BTargeting narrows a search to a slice of the business population.
type B2BTargeting struct {
	Industry     string `json:"industry,omitempty"`
	MinEmployees int    `json:"minEmployees,omitempty"`
	MaxEmployees int    `json:"maxEmployees,omitempty"`
	TargetState  string `json:"targetState,omitempty"`
	B2COnly      bool   `json:"b2cOnly,omitempty"`
}

type SearchJob struct {
	ID          string       `json:"id"`
	Query       string       `json:"query"`
	Location    string       `json:"location,omitempty"`
	TargetCount int          `json:"targetCount"`
	Priority    Priority     `json:"priority"`
	Status      JobStatus    `json:"status"`
	Progress    int          `json:"progress"` // 0..100
	Message     string       `json:"message"`
	Targeting   B2BTargeting `json:"b2bTargeting"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// NewJobID returns an id in the job_<timestamp>_<random> namespace.
func NewJobID(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("job_%d_%s", now.UnixMilli(), suffix)
}

func ValidJobID(id string) bool {
	if !strings.HasPrefix(id, "job_") {
		return false
	}
	rest := id[len("job_"):]
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
