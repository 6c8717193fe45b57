package models

import (
	"time"
)

// Domain represents a tracked brand domain (e.g. "acme.com")
type Domain struct {
	ID          int64     `db:"id"`
	WorkspaceID int64     `db:"workspace_id"`
	Name        string    `db:"name"`
	BrandName   string    `db:"brand_name"`
	CreatedAt   time.Time `db:"created_at"`
}
