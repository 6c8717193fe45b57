// Package provider adapts outbound calls to external text-generation
// providers. Each Execute performs exactly one network call; there are no
// retries here — a failure is returned as a value for the orchestrator to
// record.
package provider

import (
	"context"
	"fmt"
	"time"

	"brandlens/models"
)

// Name identifies an external text-generation provider. The set is closed
// but extensible: adding a provider means adding a constant and an adapter.
type Name string

const (
	NameOpenAI     Name = "openai"
	NamePerplexity Name = "perplexity"
	NameAnthropic  Name = "anthropic"
)

// ValidName reports whether s names a known provider.
func ValidName(s string) bool {
	switch Name(s) {
	case NameOpenAI, NamePerplexity, NameAnthropic:
		return true
	}
	return false
}

// Completion is a successful provider response.
type Completion struct {
	// Text is the completion text. May legitimately be empty if the
	// provider returned an empty choice.
	Text string

	// Meta carries the response metadata the pipeline reads.
	Meta models.ResponseMeta

	// Citations are reference URLs attached to the response by providers
	// that return them (e.g. answer engines). Often empty.
	Citations []string

	// Duration is wall-clock time from just before the network call to
	// after the response body was fully read.
	Duration time.Duration
}

// Error is a typed provider failure carrying the provider name and a
// human-readable cause.
type Error struct {
	Provider Name
	Cause    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Cause)
}

// Client sends one prompt to one named provider.
type Client interface {
	// Execute submits promptText to the named provider and returns either
	// a completion or a typed *Error. No state is retained between calls.
	Execute(ctx context.Context, promptText string, provider Name) (*Completion, error)
}
