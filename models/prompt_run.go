package models

import (
	"time"
)

// ResponseMeta holds the provider response metadata we actually read.
// Only these three fields are ever consumed, so this is a struct rather
// than an untyped map.
type ResponseMeta struct {
	Model        string `json:"model,omitempty"`
	TokensUsed   *int   `json:"tokens_used,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// PromptRun is one execution of one prompt against one provider.
// Invariant: exactly one of ResponseText and Error is set. A run is either
// a success record or a failure record, never both, never neither.
// Rows are append-only; a run is never mutated after insertion.
type PromptRun struct {
	ID           int64        `db:"id"`
	PromptID     int64        `db:"prompt_id"`
	Provider     string       `db:"provider"`
	ResponseText *string      `db:"response_text"`
	ResponseMeta ResponseMeta `db:"response_meta"`
	DurationMs   int64        `db:"duration_ms"`
	Error        *string      `db:"error"`
	ExecutedAt   time.Time    `db:"executed_at"`
}

// Succeeded reports whether this run is a success record.
func (r *PromptRun) Succeeded() bool {
	return r.ResponseText != nil
}

// RunResult is the orchestrator's per-prompt outcome, returned to the
// caller of a batch run. Failures are data here, not errors.
type RunResult struct {
	PromptID  int64
	Success   bool
	Mentioned bool
	Error     string
}

// DomainRunResult groups the results of one domain's batch within an
// all-domains sweep.
type DomainRunResult struct {
	DomainID int64
	Results  []RunResult
	Err      error
}
