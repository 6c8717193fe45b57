package testutil

import (
	"time"

	"brandlens/models"
)

// CreateTestDomain creates a test domain with default values
func CreateTestDomain(workspaceID int64, name string) *models.Domain {
	return &models.Domain{
		WorkspaceID: workspaceID,
		Name:        name,
		BrandName:   "Test Brand",
	}
}

// CreateTestPrompt creates an active test prompt for a domain
func CreateTestPrompt(domainID int64, text string) *models.Prompt {
	return &models.Prompt{
		DomainID: domainID,
		Text:     text,
		Category: "general",
		Active:   true,
	}
}

// CreateTestRun creates a successful test run for a prompt
func CreateTestRun(promptID int64, provider, responseText string, executedAt time.Time) *models.PromptRun {
	tokens := 128
	return &models.PromptRun{
		PromptID:     promptID,
		Provider:     provider,
		ResponseText: &responseText,
		ResponseMeta: models.ResponseMeta{
			Model:        "gpt-4o-mini",
			TokensUsed:   &tokens,
			FinishReason: "stop",
		},
		DurationMs: 850,
		ExecutedAt: executedAt,
	}
}

// CreateTestFailedRun creates a failed test run for a prompt
func CreateTestFailedRun(promptID int64, provider, errMsg string, executedAt time.Time) *models.PromptRun {
	return &models.PromptRun{
		PromptID:   promptID,
		Provider:   provider,
		Error:      &errMsg,
		ExecutedAt: executedAt,
	}
}

// CreateTestMentionAnalysis creates a positive mention analysis for a run
func CreateTestMentionAnalysis(promptRunID, domainID int64, position int, snippet string) *models.MentionAnalysis {
	return &models.MentionAnalysis{
		PromptRunID: promptRunID,
		DomainID:    domainID,
		Mentioned:   true,
		Position:    &position,
		Snippet:     &snippet,
	}
}

// CreateTestMiss creates a no-mention analysis for a run
func CreateTestMiss(promptRunID, domainID int64) *models.MentionAnalysis {
	return &models.MentionAnalysis{
		PromptRunID: promptRunID,
		DomainID:    domainID,
		Mentioned:   false,
	}
}
