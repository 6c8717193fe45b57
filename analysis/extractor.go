// Package analysis implements mention detection over provider response text.
package analysis

import (
	"strings"
)

// snippetRadius is the number of characters of context captured on each
// side of a matched domain variant.
const snippetRadius = 100

// Result is the outcome of analyzing one response for one domain.
// If Mentioned is false, Position and Snippet are both nil.
type Result struct {
	Mentioned bool
	Position  *int
	Snippet   *string
}

// Analyze decides whether domainName is mentioned in responseText and, if
// so, estimates an ordinal position and captures a context snippet.
//
// Matching is a plain case-insensitive substring search over three domain
// variants tried in a fixed order: the domain as given, the domain with a
// "www." prefix added, and the domain with any existing "www." prefix
// stripped. The first variant that occurs anywhere in the response wins;
// remaining variants are not checked even if they would also match.
//
// The search is deliberately not word-boundary aware: "example.com" inside
// "myexample.comsite" counts as a mention. That is a documented limitation
// of the matcher, not a bug.
//
// Analyze is pure and total: the same inputs always produce the same
// result, and absence of a match is a normal result, not an error.
func Analyze(responseText, domainName string) Result {
	lowerText := strings.ToLower(responseText)
	lowerDomain := strings.ToLower(domainName)

	// If the domain has no "www." prefix the first and third variants are
	// identical; the fixed order makes that harmless.
	variants := []string{
		lowerDomain,
		"www." + lowerDomain,
		strings.TrimPrefix(lowerDomain, "www."),
	}

	for _, v := range variants {
		idx := strings.Index(lowerText, v)
		if idx < 0 {
			continue
		}

		pos := estimatePosition(responseText, idx)
		snippet := extractSnippet(responseText, idx, len(v))
		return Result{
			Mentioned: true,
			Position:  &pos,
			Snippet:   &snippet,
		}
	}

	return Result{Mentioned: false}
}

// estimatePosition approximates where the mention falls in the response:
// the text before the match is split into sentence-like segments (on '.'
// and newlines) and the mention is ranked after them. This is a proxy for
// list rank in enumerated answers, not a citation index — do not read it
// as one.
func estimatePosition(responseText string, idx int) int {
	before := responseText[:idx]
	pieces := strings.FieldsFunc(before, func(r rune) bool {
		return r == '.' || r == '\n'
	})

	count := 0
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count + 1
}

// extractSnippet returns up to snippetRadius characters of original-case
// context on either side of the match.
func extractSnippet(responseText string, idx, matchLen int) string {
	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + snippetRadius
	if end > len(responseText) {
		end = len(responseText)
	}
	return responseText[start:end]
}
