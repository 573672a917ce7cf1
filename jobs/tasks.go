package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEnrollmentIntegrity is the task type for the enrollment integrity scan.
	TaskEnrollmentIntegrity = "enrollment:integrity"
)

// EnrollmentIntegrityPayload configures an integrity scan run.
type EnrollmentIntegrityPayload struct {
	// Repair removes offending rows instead of only reporting them.
	Repair bool `json:"repair"`
}

// NewEnrollmentIntegrityTask constructs an Asynq task.
func NewEnrollmentIntegrityTask(payload EnrollmentIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrollmentIntegrity, data), nil
}
