package models

import (
	"time"
)

// MentionAnalysis is the extracted evidence for one successful PromptRun
// (1:1, success only). Invariant: if Mentioned is false, Position and
// Snippet are both nil. Rows are append-only.
type MentionAnalysis struct {
	ID          int64     `db:"id"`
	PromptRunID int64     `db:"prompt_run_id"`
	DomainID    int64     `db:"domain_id"`
	Mentioned   bool      `db:"mentioned"`
	Position    *int      `db:"position"`
	Snippet     *string   `db:"snippet"`
	CreatedAt   time.Time `db:"created_at"`
}

// Citation is a reference record attached to a run, sourced from provider
// response metadata. The pipeline counts citations but does not interpret
// them.
type Citation struct {
	ID          int64     `db:"id"`
	PromptRunID int64     `db:"prompt_run_id"`
	URL         string    `db:"url"`
	CreatedAt   time.Time `db:"created_at"`
}
