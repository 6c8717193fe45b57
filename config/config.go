package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP API configuration
	HTTPPort int

	// Provider credentials. Empty keys are allowed at startup; runs against a
	// provider with no key fail per-run with a configuration error.
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	PerplexityAPIKey string

	// Pacing between provider calls. Prompts within a domain batch run
	// strictly sequentially; these delays keep us under per-key rate limits.
	PromptDelay time.Duration
	DomainDelay time.Duration

	// Provider HTTP timeout
	ProviderTimeout time.Duration

	// Environment
	Environment string // "development" or "production"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPPort: 8080,

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		PerplexityAPIKey: os.Getenv("PERPLEXITY_API_KEY"),

		PromptDelay:     2 * time.Second,
		DomainDelay:     5 * time.Second,
		ProviderTimeout: 60 * time.Second,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if parsedPort, err := strconv.Atoi(port); err == nil {
			config.HTTPPort = parsedPort
		}
	}
	if delay := os.Getenv("PROMPT_DELAY_MS"); delay != "" {
		if ms, err := strconv.Atoi(delay); err == nil && ms >= 0 {
			config.PromptDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if delay := os.Getenv("DOMAIN_DELAY_MS"); delay != "" {
		if ms, err := strconv.Atoi(delay); err == nil && ms >= 0 {
			config.DomainDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if timeout := os.Getenv("PROVIDER_TIMEOUT_MS"); timeout != "" {
		if ms, err := strconv.Atoi(timeout); err == nil && ms > 0 {
			config.ProviderTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// APIKeyFor returns the configured credential for a provider name, or empty
// string if none is configured.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "perplexity":
		return c.PerplexityAPIKey
	default:
		return ""
	}
}
