package repository

import (
	"context"
	"fmt"

	"brandlens/database"
	"brandlens/models"
)

// PromptRepository implements the PromptRepository interface
type PromptRepository struct {
	q queryable
}

// NewPromptRepository creates a new prompt repository
func NewPromptRepository(db *database.DB) *PromptRepository {
	return &PromptRepository{q: db.Pool}
}

// newPromptRepositoryWithTx creates a new prompt repository with a transaction
func newPromptRepositoryWithTx(tx queryable) *PromptRepository {
	return &PromptRepository{q: tx}
}

// GetActiveByDomain retrieves a domain's active prompts in insertion order.
// Batch execution order follows this ordering.
func (r *PromptRepository) GetActiveByDomain(ctx context.Context, domainID int64) ([]*models.Prompt, error) {
	query := `
		SELECT id, domain_id, text, category, active, created_at
		FROM prompts
		WHERE domain_id = $1 AND active
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active prompts for domain %d: %w", domainID, err)
	}
	defer rows.Close()

	var prompts []*models.Prompt
	for rows.Next() {
		var prompt models.Prompt
		if err := rows.Scan(
			&prompt.ID,
			&prompt.DomainID,
			&prompt.Text,
			&prompt.Category,
			&prompt.Active,
			&prompt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, &prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}

	return prompts, nil
}

// Create creates a new prompt record
func (r *PromptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	query := `
		INSERT INTO prompts (domain_id, text, category, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		prompt.DomainID,
		prompt.Text,
		prompt.Category,
		prompt.Active,
	).Scan(&prompt.ID, &prompt.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create prompt for domain %d: %w", prompt.DomainID, err)
	}

	return nil
}
