package repository

import (
	"context"
	"fmt"

	"brandlens/database"
	"brandlens/events"
	"brandlens/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is the subset of pgx satisfied by both the pool and a
// transaction, so repositories work inside and outside a unit of work
type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	domainRepo       service.DomainRepository
	promptRepo       service.PromptRepository
	promptRunRepo    service.PromptRunRepository
	mentionRepo      service.MentionAnalysisRepository
	citationRepo     service.CitationRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.domainRepo = newDomainRepositoryWithTx(tx)
	u.promptRepo = newPromptRepositoryWithTx(tx)
	u.promptRunRepo = newPromptRunRepositoryWithTx(tx)
	u.mentionRepo = newMentionAnalysisRepositoryWithTx(tx)
	u.citationRepo = newCitationRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// DomainRepository returns the domain repository for this unit of work
func (u *unitOfWork) DomainRepository() service.DomainRepository {
	if u.domainRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.domainRepo
}

// PromptRepository returns the prompt repository for this unit of work
func (u *unitOfWork) PromptRepository() service.PromptRepository {
	if u.promptRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.promptRepo
}

// PromptRunRepository returns the prompt run repository for this unit of work
func (u *unitOfWork) PromptRunRepository() service.PromptRunRepository {
	if u.promptRunRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.promptRunRepo
}

// MentionAnalysisRepository returns the mention analysis repository for this unit of work
func (u *unitOfWork) MentionAnalysisRepository() service.MentionAnalysisRepository {
	if u.mentionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.mentionRepo
}

// CitationRepository returns the citation repository for this unit of work
func (u *unitOfWork) CitationRepository() service.CitationRepository {
	if u.citationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.citationRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
