package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"brandlens/api"
	"brandlens/config"
	"brandlens/database"
	"brandlens/events"
	"brandlens/models"
	"brandlens/provider"
	"brandlens/repository"
	"brandlens/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes the pipeline and serves the HTTP API until the context
// is cancelled
func Run(ctx context.Context) error {
	log.Info("Starting visibility pipeline...")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runService, statsService, db, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	server := api.NewServer(runService, statsService, strconv.Itoa(cfg.HTTPPort))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Infof("Pipeline is running in %s mode", cfg.Environment)

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down HTTP server: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}

// BatchOptions selects what a one-shot batch invocation runs. With neither
// selector set, every domain with active prompts is swept.
type BatchOptions struct {
	DomainID    int64
	WorkspaceID int64
	Provider    string
}

// RunBatch executes one batch invocation from the CLI and returns when it
// finishes
func RunBatch(ctx context.Context, opts BatchOptions) error {
	if !provider.ValidName(opts.Provider) {
		return fmt.Errorf("unknown provider: %s", opts.Provider)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runService, _, db, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return dispatchBatch(ctx, runService, opts)
}

// dispatchBatch routes a batch invocation to the matching run operation
func dispatchBatch(ctx context.Context, runService service.RunService, opts BatchOptions) error {
	providerName := provider.Name(opts.Provider)

	switch {
	case opts.DomainID > 0:
		results, err := runService.RunForDomain(ctx, opts.DomainID, providerName)
		if err != nil {
			return err
		}
		logBatchResults(opts.DomainID, results)
	case opts.WorkspaceID > 0:
		domainResults, err := runService.RunForWorkspace(ctx, opts.WorkspaceID, providerName)
		if err != nil {
			return err
		}
		for _, dr := range domainResults {
			logBatchResults(dr.DomainID, dr.Results)
		}
	default:
		domainResults, err := runService.RunForAllDomains(ctx, providerName)
		if err != nil {
			return err
		}
		for _, dr := range domainResults {
			logBatchResults(dr.DomainID, dr.Results)
		}
	}

	return nil
}

// buildServices wires the database, event bus and services
func buildServices(ctx context.Context, cfg *config.Config) (service.RunService, service.StatsService, *database.DB, error) {
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	subscribeLogging(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	client := provider.NewHTTPClient(provider.ClientConfig{
		OpenAIKey:     cfg.OpenAIAPIKey,
		PerplexityKey: cfg.PerplexityAPIKey,
		Timeout:       cfg.ProviderTimeout,
	})

	runService := service.NewRunService(uowFactory, client, eventBus, service.RunServiceConfig{
		PromptDelay: cfg.PromptDelay,
		DomainDelay: cfg.DomainDelay,
	})
	statsService := service.NewStatsService(uowFactory)

	return runService, statsService, db, nil
}

// subscribeLogging attaches observability handlers to the event bus
func subscribeLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMentionFound, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MentionFoundEvent); ok {
			fields := log.Fields{
				"domainID":    e.DomainID,
				"domain":      e.DomainName,
				"promptRunID": e.PromptRunID,
			}
			if e.Position != nil {
				fields["position"] = *e.Position
			}
			log.WithFields(fields).Info("Mention found")
		}
	})
	bus.Subscribe(events.EventTypeBatchCompleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BatchCompletedEvent); ok {
			log.WithFields(log.Fields{
				"jobID":     e.JobID,
				"domainID":  e.DomainID,
				"provider":  e.Provider,
				"total":     e.Total,
				"succeeded": e.Succeeded,
				"failed":    e.Failed,
			}).Info("Batch completed")
		}
	})
}

func logBatchResults(domainID int64, results []models.RunResult) {
	succeeded, mentioned := 0, 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		if r.Mentioned {
			mentioned++
		}
	}
	log.WithFields(log.Fields{
		"domainID":  domainID,
		"total":     len(results),
		"succeeded": succeeded,
		"mentioned": mentioned,
	}).Info("Batch finished")
}
