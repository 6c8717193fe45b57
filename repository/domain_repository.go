package repository

import (
	"context"
	"fmt"

	"brandlens/database"
	"brandlens/models"

	"github.com/jackc/pgx/v5"
)

// DomainRepository implements the DomainRepository interface
type DomainRepository struct {
	q queryable
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *database.DB) *DomainRepository {
	return &DomainRepository{q: db.Pool}
}

// newDomainRepositoryWithTx creates a new domain repository with a transaction
func newDomainRepositoryWithTx(tx queryable) *DomainRepository {
	return &DomainRepository{q: tx}
}

// GetByID retrieves a domain by its ID
func (r *DomainRepository) GetByID(ctx context.Context, id int64) (*models.Domain, error) {
	query := `
		SELECT id, workspace_id, name, brand_name, created_at
		FROM domains
		WHERE id = $1
	`

	var domain models.Domain
	err := r.q.QueryRow(ctx, query, id).Scan(
		&domain.ID,
		&domain.WorkspaceID,
		&domain.Name,
		&domain.BrandName,
		&domain.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get domain %d: %w", id, err)
	}

	return &domain, nil
}

// GetByWorkspace retrieves all domains in a workspace
func (r *DomainRepository) GetByWorkspace(ctx context.Context, workspaceID int64) ([]*models.Domain, error) {
	query := `
		SELECT id, workspace_id, name, brand_name, created_at
		FROM domains
		WHERE workspace_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get domains for workspace %d: %w", workspaceID, err)
	}
	defer rows.Close()

	return scanDomains(rows)
}

// GetWithActivePrompts retrieves every domain that has at least one active
// prompt, across all workspaces
func (r *DomainRepository) GetWithActivePrompts(ctx context.Context) ([]*models.Domain, error) {
	query := `
		SELECT DISTINCT d.id, d.workspace_id, d.name, d.brand_name, d.created_at
		FROM domains d
		JOIN prompts p ON p.domain_id = d.id AND p.active
		ORDER BY d.id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get domains with active prompts: %w", err)
	}
	defer rows.Close()

	return scanDomains(rows)
}

// Create creates a new domain record
func (r *DomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	query := `
		INSERT INTO domains (workspace_id, name, brand_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		domain.WorkspaceID,
		domain.Name,
		domain.BrandName,
	).Scan(&domain.ID, &domain.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create domain %s: %w", domain.Name, err)
	}

	return nil
}

func scanDomains(rows pgx.Rows) ([]*models.Domain, error) {
	var domains []*models.Domain
	for rows.Next() {
		var domain models.Domain
		if err := rows.Scan(
			&domain.ID,
			&domain.WorkspaceID,
			&domain.Name,
			&domain.BrandName,
			&domain.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, &domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate domains: %w", err)
	}
	return domains, nil
}
