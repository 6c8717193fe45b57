package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"brandlens/cmd"
	"brandlens/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatalf("Migration error: %v", err)
			}
			return
		case "run":
			if err := handleRunCommand(); err != nil {
				log.Fatalf("Run error: %v", err)
			}
			return
		}
	}

	// Default: serve the HTTP API
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: brandlens migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleRunCommand executes a one-shot batch and exits. Cancellation via
// SIGINT stops between prompts; the in-flight prompt is still recorded.
func handleRunCommand() error {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	domainID := flags.Int64("domain", 0, "run prompts for a single domain id")
	workspaceID := flags.Int64("workspace", 0, "run prompts for every domain in a workspace")
	providerName := flags.String("provider", "openai", "provider to query (openai, perplexity, anthropic)")
	if err := flags.Parse(os.Args[2:]); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, stopping after current prompt...")
		cancel()
	}()

	return cmd.RunBatch(ctx, cmd.BatchOptions{
		DomainID:    *domainID,
		WorkspaceID: *workspaceID,
		Provider:    *providerName,
	})
}
