package models

import (
	"time"
)

// AggregateStats is the read-side visibility summary for one domain over a
// requested window. Computed on every read, never stored.
type AggregateStats struct {
	TotalMentions  int            `json:"total_mentions"`
	TotalCitations int            `json:"total_citations"`
	TotalQueries   int            `json:"total_queries"`
	DailySeries    []DailyCount   `json:"daily_series"`
	Platforms      []PlatformStat `json:"platforms"`
}

// DailyCount is one point of the daily time series. The series always has
// exactly 7 entries (the last 7 calendar days ending today, UTC) with
// zero-filled counts, so callers can plot it without nil checks.
type DailyCount struct {
	Date      time.Time `json:"date"`
	Mentions  int       `json:"mentions"`
	Citations int       `json:"citations"`
}

// PlatformStat is the per-provider breakdown entry. Percentage is that
// platform's mention rate over its own query count, not a share of a pie.
type PlatformStat struct {
	Name       string `json:"name"`
	Mentions   int    `json:"mentions"`
	Percentage int    `json:"percentage"`
}

// RankingEntry is one brand's row in the industry/competitor ranking.
type RankingEntry struct {
	Rank         int     `json:"rank"`
	BrandName    string  `json:"brand_name"`
	Mentions     int     `json:"mentions"`
	AvgPosition  float64 `json:"avg_position"`
	IsUserDomain bool    `json:"is_user_domain"`
}
