package repository

import (
	"context"
	"fmt"
	"time"

	"brandlens/database"
	"brandlens/models"
)

// MentionAnalysisRepository implements the MentionAnalysisRepository interface
type MentionAnalysisRepository struct {
	q queryable
}

// NewMentionAnalysisRepository creates a new mention analysis repository
func NewMentionAnalysisRepository(db *database.DB) *MentionAnalysisRepository {
	return &MentionAnalysisRepository{q: db.Pool}
}

// newMentionAnalysisRepositoryWithTx creates a new mention analysis repository with a transaction
func newMentionAnalysisRepositoryWithTx(tx queryable) *MentionAnalysisRepository {
	return &MentionAnalysisRepository{q: tx}
}

// Create creates a new mention analysis record. Each successful run gets
// exactly one; the unique constraint on prompt_run_id enforces it.
func (r *MentionAnalysisRepository) Create(ctx context.Context, analysis *models.MentionAnalysis) error {
	query := `
		INSERT INTO mention_analyses (prompt_run_id, domain_id, mentioned, position, snippet)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		analysis.PromptRunID,
		analysis.DomainID,
		analysis.Mentioned,
		analysis.Position,
		analysis.Snippet,
	).Scan(&analysis.ID, &analysis.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create mention analysis for run %d: %w", analysis.PromptRunID, err)
	}

	return nil
}

// GetByDomainInRange retrieves a domain's mention analyses whose runs
// executed in [from, to]. Rows are windowed by the run's executed_at, not
// by the analysis row's created_at.
func (r *MentionAnalysisRepository) GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.MentionAnalysis, error) {
	query := `
		SELECT m.id, m.prompt_run_id, m.domain_id, m.mentioned, m.position, m.snippet, m.created_at
		FROM mention_analyses m
		JOIN prompt_runs r ON r.id = m.prompt_run_id
		WHERE m.domain_id = $1 AND r.executed_at BETWEEN $2 AND $3
		ORDER BY r.executed_at, m.id
	`

	rows, err := r.q.Query(ctx, query, domainID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get mention analyses for domain %d: %w", domainID, err)
	}
	defer rows.Close()

	var analyses []*models.MentionAnalysis
	for rows.Next() {
		var analysis models.MentionAnalysis
		if err := rows.Scan(
			&analysis.ID,
			&analysis.PromptRunID,
			&analysis.DomainID,
			&analysis.Mentioned,
			&analysis.Position,
			&analysis.Snippet,
			&analysis.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mention analysis: %w", err)
		}
		analyses = append(analyses, &analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mention analyses: %w", err)
	}

	return analyses, nil
}
