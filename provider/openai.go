package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultPerplexityBaseURL = "https://api.perplexity.ai"

	openAIModel     = "gpt-4o-mini"
	perplexityModel = "sonar"
)

// ClientConfig holds the credentials and endpoints for the HTTP client.
// Keys are passed in explicitly at construction time; the client never
// reads the process environment.
type ClientConfig struct {
	OpenAIKey     string
	PerplexityKey string

	// Base URL overrides, used by tests. Empty means the real endpoint.
	OpenAIBaseURL     string
	PerplexityBaseURL string

	Timeout time.Duration
}

// HTTPClient implements Client over OpenAI-style chat completion APIs.
// OpenAI and Perplexity share the same wire shape; Anthropic has no
// adapter yet and returns a "not implemented" error.
type HTTPClient struct {
	cfg    ClientConfig
	client *http.Client
}

// NewHTTPClient creates a provider client with the given configuration
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	if cfg.PerplexityBaseURL == "" {
		cfg.PerplexityBaseURL = defaultPerplexityBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	// Answer-engine style citation URLs; absent on plain chat APIs.
	Citations []string `json:"citations"`
}

// Execute sends one prompt to the named provider
func (c *HTTPClient) Execute(ctx context.Context, promptText string, provider Name) (*Completion, error) {
	var baseURL, apiKey, model string
	switch provider {
	case NameOpenAI:
		baseURL, apiKey, model = c.cfg.OpenAIBaseURL, c.cfg.OpenAIKey, openAIModel
	case NamePerplexity:
		baseURL, apiKey, model = c.cfg.PerplexityBaseURL, c.cfg.PerplexityKey, perplexityModel
	default:
		return nil, &Error{Provider: provider, Cause: "provider not implemented"}
	}

	if apiKey == "" {
		return nil, &Error{Provider: provider, Cause: "missing API credential"}
	}

	reqBody := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: promptText}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Provider: provider, Cause: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Provider: provider, Cause: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	// Duration covers the network call through fully reading the body
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: provider, Cause: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, &Error{Provider: provider, Cause: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Provider: provider, Cause: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Provider: provider, Cause: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &Error{Provider: provider, Cause: "response contained no choices"}
	}

	completion := &Completion{
		Text:      parsed.Choices[0].Message.Content,
		Citations: parsed.Citations,
		Duration:  duration,
	}
	completion.Meta.Model = parsed.Model
	completion.Meta.FinishReason = parsed.Choices[0].FinishReason
	if parsed.Usage.TotalTokens > 0 {
		tokens := parsed.Usage.TotalTokens
		completion.Meta.TokensUsed = &tokens
	}

	return completion, nil
}
