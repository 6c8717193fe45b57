package models

import (
	"time"
)

// Prompt is a stored natural-language question tracked against a domain.
// Prompts are created by the dashboard app; the pipeline only reads them.
type Prompt struct {
	ID        int64     `db:"id"`
	DomainID  int64     `db:"domain_id"`
	Text      string    `db:"text"`
	Category  string    `db:"category"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}
