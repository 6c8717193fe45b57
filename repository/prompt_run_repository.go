package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"brandlens/database"
	"brandlens/models"
)

// PromptRunRepository implements the PromptRunRepository interface
type PromptRunRepository struct {
	q queryable
}

// NewPromptRunRepository creates a new prompt run repository
func NewPromptRunRepository(db *database.DB) *PromptRunRepository {
	return &PromptRunRepository{q: db.Pool}
}

// newPromptRunRepositoryWithTx creates a new prompt run repository with a transaction
func newPromptRunRepositoryWithTx(tx queryable) *PromptRunRepository {
	return &PromptRunRepository{q: tx}
}

// Create creates a new prompt run record. Runs are append-only evidence;
// there is no update path.
func (r *PromptRunRepository) Create(ctx context.Context, run *models.PromptRun) error {
	metaJSON, err := json.Marshal(run.ResponseMeta)
	if err != nil {
		return fmt.Errorf("failed to marshal response meta: %w", err)
	}

	query := `
		INSERT INTO prompt_runs
		(prompt_id, provider, response_text, response_meta, duration_ms, error, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err = r.q.QueryRow(ctx, query,
		run.PromptID,
		run.Provider,
		run.ResponseText,
		metaJSON,
		run.DurationMs,
		run.Error,
		run.ExecutedAt,
	).Scan(&run.ID)

	if err != nil {
		return fmt.Errorf("failed to create prompt run for prompt %d: %w", run.PromptID, err)
	}

	return nil
}

// GetByDomainInRange retrieves a domain's runs with executed_at in
// [from, to], oldest first
func (r *PromptRunRepository) GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.PromptRun, error) {
	query := `
		SELECT r.id, r.prompt_id, r.provider, r.response_text, r.response_meta,
		       r.duration_ms, r.error, r.executed_at
		FROM prompt_runs r
		JOIN prompts p ON p.id = r.prompt_id
		WHERE p.domain_id = $1 AND r.executed_at BETWEEN $2 AND $3
		ORDER BY r.executed_at, r.id
	`

	rows, err := r.q.Query(ctx, query, domainID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt runs for domain %d: %w", domainID, err)
	}
	defer rows.Close()

	var runs []*models.PromptRun
	for rows.Next() {
		var run models.PromptRun
		var metaJSON []byte
		if err := rows.Scan(
			&run.ID,
			&run.PromptID,
			&run.Provider,
			&run.ResponseText,
			&metaJSON,
			&run.DurationMs,
			&run.Error,
			&run.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prompt run: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &run.ResponseMeta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal response meta: %w", err)
			}
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompt runs: %w", err)
	}

	return runs, nil
}

// CountByDomainSince counts a domain's runs executed at or after the given
// instant
func (r *PromptRunRepository) CountByDomainSince(ctx context.Context, domainID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM prompt_runs r
		JOIN prompts p ON p.id = r.prompt_id
		WHERE p.domain_id = $1 AND r.executed_at >= $2
	`

	var count int
	if err := r.q.QueryRow(ctx, query, domainID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count prompt runs for domain %d: %w", domainID, err)
	}

	return count, nil
}
