package models

// BatchState represents the lifecycle state of a prompt batch
type BatchState string

const (
	BatchStatePending   BatchState = "pending"
	BatchStateRunning   BatchState = "running"
	BatchStateCompleted BatchState = "completed"
)

// RunStatus is the ephemeral progress tracker for one batch of prompt
// executions. Progress advances monotonically; "completed" means every
// prompt was attempted, not that every prompt succeeded. It is safe to
// lose on restart: the status endpoint recomputes it from stored run
// counts when no in-memory tracker exists.
type RunStatus struct {
	JobID    string     `json:"job_id,omitempty"`
	Status   BatchState `json:"status"`
	Progress int        `json:"progress"`
	Total    int        `json:"total"`
}
