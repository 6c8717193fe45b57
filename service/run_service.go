package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brandlens/analysis"
	"brandlens/events"
	"brandlens/models"
	"brandlens/provider"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RunServiceConfig holds the pacing knobs for batch execution
type RunServiceConfig struct {
	// PromptDelay is the courtesy delay inserted after every prompt,
	// success or failure, to stay under provider rate limits
	PromptDelay time.Duration

	// DomainDelay is the larger spacing between domains in a sweep
	DomainDelay time.Duration
}

// runService implements the RunService interface
type runService struct {
	uowFactory UnitOfWorkFactory
	client     provider.Client
	bus        *events.Bus
	cfg        RunServiceConfig

	// domainPacer spaces domain batches within a sweep. Prompts inside a
	// batch stay strictly sequential; the token bucket only paces across
	// domains.
	domainPacer *rate.Limiter

	mu       sync.Mutex
	statuses map[int64]*models.RunStatus // per-domain batch tracker
}

// NewRunService creates a new run service
func NewRunService(uowFactory UnitOfWorkFactory, client provider.Client, bus *events.Bus, cfg RunServiceConfig) RunService {
	if cfg.DomainDelay <= 0 {
		cfg.DomainDelay = 5 * time.Second
	}
	return &runService{
		uowFactory:  uowFactory,
		client:      client,
		bus:         bus,
		cfg:         cfg,
		domainPacer: rate.NewLimiter(rate.Every(cfg.DomainDelay), 1),
		statuses:    make(map[int64]*models.RunStatus),
	}
}

// acquireBatch reserves the per-domain batch slot. Two batches must never
// run concurrently for the same domain: writes are ordered only because
// there is a single writer per domain.
func (s *runService) acquireBatch(domainID int64) (*models.RunStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status, ok := s.statuses[domainID]; ok && status.Status != models.BatchStateCompleted {
		return nil, ErrBatchInProgress
	}

	status := &models.RunStatus{
		JobID:  uuid.New().String(),
		Status: models.BatchStatePending,
	}
	s.statuses[domainID] = status
	return status, nil
}

// releaseBatch drops the tracker for a batch that never ran to completion
// (setup failure or cancellation), so a later trigger is not blocked.
func (s *runService) releaseBatch(domainID int64, status *models.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statuses[domainID] == status {
		delete(s.statuses, domainID)
	}
}

// RunForDomain executes every active prompt of a domain, sequentially
func (s *runService) RunForDomain(ctx context.Context, domainID int64, providerName provider.Name) ([]models.RunResult, error) {
	status, err := s.acquireBatch(domainID)
	if err != nil {
		return nil, err
	}
	return s.runBatch(ctx, domainID, providerName, status)
}

// StartDomainRun triggers a fire-and-forget batch and returns its job id
func (s *runService) StartDomainRun(ctx context.Context, domainID int64, providerName provider.Name) (string, error) {
	status, err := s.acquireBatch(domainID)
	if err != nil {
		return "", err
	}

	// The batch outlives the triggering request
	go func() {
		if _, err := s.runBatch(context.Background(), domainID, providerName, status); err != nil {
			log.WithFields(log.Fields{
				"domainID": domainID,
				"jobID":    status.JobID,
			}).Errorf("Background batch failed: %v", err)
		}
	}()

	return status.JobID, nil
}

// runBatch is the sequential per-domain execution loop. The caller must
// hold the batch slot obtained from acquireBatch.
func (s *runService) runBatch(ctx context.Context, domainID int64, providerName provider.Name, status *models.RunStatus) ([]models.RunResult, error) {
	domain, prompts, err := s.loadDomainPrompts(ctx, domainID)
	if err != nil {
		s.releaseBatch(domainID, status)
		return nil, err
	}

	s.mu.Lock()
	status.Total = len(prompts)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"domainID": domainID,
		"domain":   domain.Name,
		"provider": providerName,
		"prompts":  len(prompts),
		"jobID":    status.JobID,
	}).Info("Starting prompt batch")

	results := make([]models.RunResult, 0, len(prompts))
	succeeded, failed := 0, 0

	for i, prompt := range prompts {
		// Cancellation is only honored between prompts; an in-flight
		// provider call always gets recorded.
		if ctx.Err() != nil {
			s.releaseBatch(domainID, status)
			return results, ctx.Err()
		}

		s.mu.Lock()
		status.Status = models.BatchStateRunning
		s.mu.Unlock()

		result := s.executePrompt(ctx, domain, prompt, providerName)
		results = append(results, result)
		if result.Success {
			succeeded++
		} else {
			failed++
		}

		s.mu.Lock()
		status.Progress = i + 1
		s.mu.Unlock()

		// Courtesy delay after every prompt, success or failure
		if err := sleepCtx(ctx, s.cfg.PromptDelay); err != nil {
			s.releaseBatch(domainID, status)
			return results, err
		}
	}

	s.mu.Lock()
	status.Status = models.BatchStateCompleted
	s.mu.Unlock()

	s.bus.Emit(ctx, events.BatchCompletedEvent{
		JobID:     status.JobID,
		DomainID:  domainID,
		Provider:  string(providerName),
		Total:     len(prompts),
		Succeeded: succeeded,
		Failed:    failed,
	})

	log.WithFields(log.Fields{
		"domainID":  domainID,
		"jobID":     status.JobID,
		"total":     len(prompts),
		"succeeded": succeeded,
		"failed":    failed,
	}).Info("Completed prompt batch")

	return results, nil
}

// loadDomainPrompts loads the domain record and its active prompts
func (s *runService) loadDomainPrompts(ctx context.Context, domainID int64) (*models.Domain, []*models.Prompt, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	domain, err := uow.DomainRepository().GetByID(ctx, domainID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get domain: %w", err)
	}
	if domain == nil {
		return nil, nil, ErrDomainNotFound
	}

	prompts, err := uow.PromptRepository().GetActiveByDomain(ctx, domainID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get active prompts: %w", err)
	}

	return domain, prompts, nil
}

// executePrompt runs one prompt against the provider and persists the
// evidence in a single transaction. Provider failures become failed run
// records, never errors.
func (s *runService) executePrompt(ctx context.Context, domain *models.Domain, prompt *models.Prompt, providerName provider.Name) models.RunResult {
	completion, execErr := s.client.Execute(ctx, prompt.Text, providerName)

	run := &models.PromptRun{
		PromptID:   prompt.ID,
		Provider:   string(providerName),
		ExecutedAt: time.Now().UTC(),
	}

	var mentionResult analysis.Result
	if execErr != nil {
		msg := execErr.Error()
		run.Error = &msg
		log.WithFields(log.Fields{
			"promptID": prompt.ID,
			"provider": providerName,
		}).Warnf("Prompt run failed: %v", execErr)
	} else {
		text := completion.Text
		run.ResponseText = &text
		run.ResponseMeta = completion.Meta
		run.DurationMs = completion.Duration.Milliseconds()
		mentionResult = analysis.Analyze(completion.Text, domain.Name)
	}

	if err := s.persistRun(ctx, domain, run, completion, mentionResult); err != nil {
		log.WithFields(log.Fields{
			"promptID": prompt.ID,
			"provider": providerName,
		}).Errorf("Failed to persist prompt run: %v", err)
		return models.RunResult{
			PromptID: prompt.ID,
			Success:  false,
			Error:    fmt.Sprintf("failed to persist run: %v", err),
		}
	}

	if execErr != nil {
		return models.RunResult{
			PromptID: prompt.ID,
			Success:  false,
			Error:    execErr.Error(),
		}
	}
	return models.RunResult{
		PromptID:  prompt.ID,
		Success:   true,
		Mentioned: mentionResult.Mentioned,
	}
}

// persistRun writes the run plus, on success, its mention analysis and
// citations, in one transaction
func (s *runService) persistRun(ctx context.Context, domain *models.Domain, run *models.PromptRun, completion *provider.Completion, mentionResult analysis.Result) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.PromptRunRepository().Create(ctx, run); err != nil {
		return fmt.Errorf("failed to create prompt run: %w", err)
	}

	if run.Succeeded() {
		mention := &models.MentionAnalysis{
			PromptRunID: run.ID,
			DomainID:    domain.ID,
			Mentioned:   mentionResult.Mentioned,
			Position:    mentionResult.Position,
			Snippet:     mentionResult.Snippet,
		}
		if err := uow.MentionAnalysisRepository().Create(ctx, mention); err != nil {
			return fmt.Errorf("failed to create mention analysis: %w", err)
		}

		if len(completion.Citations) > 0 {
			if err := uow.CitationRepository().CreateBatch(ctx, run.ID, completion.Citations); err != nil {
				return fmt.Errorf("failed to create citations: %w", err)
			}
		}

		if mentionResult.Mentioned {
			uow.EventBus().Publish(events.MentionFoundEvent{
				PromptRunID: run.ID,
				DomainID:    domain.ID,
				DomainName:  domain.Name,
				Position:    mentionResult.Position,
			})
		}
	}

	uow.EventBus().Publish(events.RunRecordedEvent{
		PromptRunID: run.ID,
		PromptID:    run.PromptID,
		DomainID:    domain.ID,
		Provider:    run.Provider,
		Success:     run.Succeeded(),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RunForAllDomains sweeps every domain with at least one active prompt
func (s *runService) RunForAllDomains(ctx context.Context, providerName provider.Name) ([]models.DomainRunResult, error) {
	domains, err := s.listDomains(ctx, func(uow UnitOfWork) ([]*models.Domain, error) {
		return uow.DomainRepository().GetWithActivePrompts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s.sweepDomains(ctx, domains, providerName), nil
}

// RunForWorkspace sweeps every domain in one workspace
func (s *runService) RunForWorkspace(ctx context.Context, workspaceID int64, providerName provider.Name) ([]models.DomainRunResult, error) {
	domains, err := s.listDomains(ctx, func(uow UnitOfWork) ([]*models.Domain, error) {
		return uow.DomainRepository().GetByWorkspace(ctx, workspaceID)
	})
	if err != nil {
		return nil, err
	}
	return s.sweepDomains(ctx, domains, providerName), nil
}

func (s *runService) listDomains(ctx context.Context, load func(UnitOfWork) ([]*models.Domain, error)) ([]*models.Domain, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	domains, err := load(uow)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, nil
}

// sweepDomains runs each domain's batch sequentially, paced by the domain
// token bucket. One domain's failure does not abort the rest.
func (s *runService) sweepDomains(ctx context.Context, domains []*models.Domain, providerName provider.Name) []models.DomainRunResult {
	results := make([]models.DomainRunResult, 0, len(domains))

	for _, domain := range domains {
		if err := s.domainPacer.Wait(ctx); err != nil {
			break
		}

		runResults, err := s.RunForDomain(ctx, domain.ID, providerName)
		if err != nil {
			log.WithFields(log.Fields{
				"domainID": domain.ID,
				"domain":   domain.Name,
			}).Errorf("Domain batch failed: %v", err)
		}
		results = append(results, models.DomainRunResult{
			DomainID: domain.ID,
			Results:  runResults,
			Err:      err,
		})

		if ctx.Err() != nil {
			break
		}
	}

	return results
}

// GetRunStatus returns the tracked status for a domain, or recomputes it
// from stored run counts after a restart
func (s *runService) GetRunStatus(ctx context.Context, domainID int64) (*models.RunStatus, error) {
	s.mu.Lock()
	if status, ok := s.statuses[domainID]; ok {
		copied := *status
		// A completed tracker has served its purpose once observed; evict
		// it so the map does not grow per domain and later polls reflect
		// the store, not a stale in-memory snapshot.
		if copied.Status == models.BatchStateCompleted {
			delete(s.statuses, domainID)
		}
		s.mu.Unlock()
		return &copied, nil
	}
	s.mu.Unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	domain, err := uow.DomainRepository().GetByID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	if domain == nil {
		return nil, ErrDomainNotFound
	}

	prompts, err := uow.PromptRepository().GetActiveByDomain(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active prompts: %w", err)
	}

	progress, err := uow.PromptRunRepository().CountByDomainSince(ctx, domainID, StartOfDayUTC(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	total := len(prompts)
	if progress > total {
		progress = total
	}

	status := &models.RunStatus{Progress: progress, Total: total}
	switch {
	case progress == 0:
		status.Status = models.BatchStatePending
	case progress < total:
		status.Status = models.BatchStateRunning
	default:
		status.Status = models.BatchStateCompleted
	}
	return status, nil
}

// sleepCtx is a cancellable scheduled sleep
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
