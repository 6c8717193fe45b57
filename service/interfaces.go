package service

import (
	"context"
	"errors"
	"time"

	"brandlens/events"
	"brandlens/models"
	"brandlens/provider"
)

// ErrDomainNotFound is returned when a batch is requested for a domain id
// that does not exist. It is fatal to that single call only.
var ErrDomainNotFound = errors.New("domain not found")

// ErrBatchInProgress is returned when a batch is triggered for a domain
// that already has one running. Overlapping batches are rejected to keep
// the single-writer-per-domain ordering guarantee.
var ErrBatchInProgress = errors.New("batch already in progress for domain")

// DomainRepository defines the interface for domain data access
type DomainRepository interface {
	// GetByID retrieves a domain by its id
	GetByID(ctx context.Context, id int64) (*models.Domain, error)

	// GetByWorkspace returns all domains in a workspace
	GetByWorkspace(ctx context.Context, workspaceID int64) ([]*models.Domain, error)

	// GetWithActivePrompts returns every domain that has at least one active prompt
	GetWithActivePrompts(ctx context.Context) ([]*models.Domain, error)

	// Create creates a new domain record
	Create(ctx context.Context, domain *models.Domain) error
}

// PromptRepository defines the interface for prompt data access.
// Prompts are created by the dashboard app; the pipeline only reads the
// active ones.
type PromptRepository interface {
	// GetActiveByDomain returns all active prompts for a domain
	GetActiveByDomain(ctx context.Context, domainID int64) ([]*models.Prompt, error)

	// Create creates a new prompt record
	Create(ctx context.Context, prompt *models.Prompt) error
}

// PromptRunRepository defines the interface for prompt run data access.
// Runs are append-only; there is no update or delete.
type PromptRunRepository interface {
	// Create inserts a new prompt run record
	Create(ctx context.Context, run *models.PromptRun) error

	// GetByDomainInRange returns runs for a domain's prompts whose
	// executed_at falls within [from, to], ordered by executed_at
	GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.PromptRun, error)

	// CountByDomainSince counts runs for a domain's prompts executed at or
	// after the given time
	CountByDomainSince(ctx context.Context, domainID int64, since time.Time) (int, error)
}

// MentionAnalysisRepository defines the interface for mention evidence access
type MentionAnalysisRepository interface {
	// Create inserts a new mention analysis record
	Create(ctx context.Context, analysis *models.MentionAnalysis) error

	// GetByDomainInRange returns analyses for runs of a domain's prompts
	// executed within [from, to]
	GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.MentionAnalysis, error)
}

// CitationRepository defines the interface for citation records attached to runs
type CitationRepository interface {
	// CreateBatch inserts citation rows for one run
	CreateBatch(ctx context.Context, promptRunID int64, urls []string) error

	// GetByDomainInRange returns citations for runs of a domain's prompts
	// executed within [from, to]
	GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.Citation, error)
}

// RunService defines the interface for batch prompt execution
type RunService interface {
	// RunForDomain executes every active prompt of a domain against the
	// named provider, sequentially, and returns one result per prompt.
	// Individual prompt failures are data in the results, not errors.
	RunForDomain(ctx context.Context, domainID int64, providerName provider.Name) ([]models.RunResult, error)

	// RunForAllDomains runs every domain that has at least one active
	// prompt. A failure in one domain is logged and does not abort the rest.
	RunForAllDomains(ctx context.Context, providerName provider.Name) ([]models.DomainRunResult, error)

	// RunForWorkspace runs every domain in one workspace
	RunForWorkspace(ctx context.Context, workspaceID int64, providerName provider.Name) ([]models.DomainRunResult, error)

	// StartDomainRun triggers a fire-and-forget batch and returns a job id
	StartDomainRun(ctx context.Context, domainID int64, providerName provider.Name) (string, error)

	// GetRunStatus returns batch progress for a domain, recomputed from
	// stored run counts when no in-memory tracker exists
	GetRunStatus(ctx context.Context, domainID int64) (*models.RunStatus, error)
}

// StatsService defines the interface for read-side aggregation
type StatsService interface {
	// GetVisibilityStats aggregates runs, mentions and citations for a
	// domain over [start, end] (inclusive, UTC day granularity)
	GetVisibilityStats(ctx context.Context, domainID int64, start, end time.Time) (*models.AggregateStats, error)

	// GetRankings computes the brand ranking over the window for the given
	// tracked brand names; the domain's own brand is flagged, not pinned
	GetRankings(ctx context.Context, domainID int64, start, end time.Time, brands []string) ([]*models.RankingEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	DomainRepository() DomainRepository
	PromptRepository() PromptRepository
	PromptRunRepository() PromptRunRepository
	MentionAnalysisRepository() MentionAnalysisRepository
	CitationRepository() CitationRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
