package repository

import (
	"context"
	"fmt"
	"time"

	"brandlens/database"
	"brandlens/models"
)

// CitationRepository implements the CitationRepository interface
type CitationRepository struct {
	q queryable
}

// NewCitationRepository creates a new citation repository
func NewCitationRepository(db *database.DB) *CitationRepository {
	return &CitationRepository{q: db.Pool}
}

// newCitationRepositoryWithTx creates a new citation repository with a transaction
func newCitationRepositoryWithTx(tx queryable) *CitationRepository {
	return &CitationRepository{q: tx}
}

// CreateBatch inserts one citation row per URL for a run, preserving the
// provider's reported order
func (r *CitationRepository) CreateBatch(ctx context.Context, promptRunID int64, urls []string) error {
	query := `
		INSERT INTO citations (prompt_run_id, url)
		VALUES ($1, $2)
	`

	for _, url := range urls {
		if _, err := r.q.Exec(ctx, query, promptRunID, url); err != nil {
			return fmt.Errorf("failed to create citation for run %d: %w", promptRunID, err)
		}
	}

	return nil
}

// GetByDomainInRange retrieves a domain's citations whose runs executed in
// [from, to]
func (r *CitationRepository) GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.Citation, error) {
	query := `
		SELECT c.id, c.prompt_run_id, c.url, c.created_at
		FROM citations c
		JOIN prompt_runs r ON r.id = c.prompt_run_id
		JOIN prompts p ON p.id = r.prompt_id
		WHERE p.domain_id = $1 AND r.executed_at BETWEEN $2 AND $3
		ORDER BY r.executed_at, c.id
	`

	rows, err := r.q.Query(ctx, query, domainID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get citations for domain %d: %w", domainID, err)
	}
	defer rows.Close()

	var citations []*models.Citation
	for rows.Next() {
		var citation models.Citation
		if err := rows.Scan(
			&citation.ID,
			&citation.PromptRunID,
			&citation.URL,
			&citation.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		citations = append(citations, &citation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate citations: %w", err)
	}

	return citations, nil
}
