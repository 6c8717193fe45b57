package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"brandlens/analysis"
	"brandlens/models"
)

// dailySeriesLength is the fixed length of the dashboard's daily series.
// The series always covers the last 7 calendar days ending today (UTC),
// independent of the requested window, and is zero-filled so the UI can
// plot it without nil checks.
const dailySeriesLength = 7

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// windowRows holds one window's worth of evidence rows
type windowRows struct {
	runs      []*models.PromptRun
	analyses  []*models.MentionAnalysis
	citations []*models.Citation
}

// GetVisibilityStats aggregates runs, mentions and citations for a domain
// over [start, end], inclusive at UTC day granularity
func (s *statsService) GetVisibilityStats(ctx context.Context, domainID int64, start, end time.Time) (*models.AggregateStats, error) {
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

	window, err := s.loadRows(ctx, uow, domainID, StartOfDayUTC(start), EndOfDayUTC(end))
	if err != nil {
		return nil, err
	}

	// The daily series has its own fixed window: the last 7 calendar days
	// ending today, regardless of what the caller asked for.
	seriesDays := LastNDaysUTC(dailySeriesLength, s.now())
	seriesRows, err := s.loadRows(ctx, uow, domainID, seriesDays[0], EndOfDayUTC(seriesDays[len(seriesDays)-1]))
	if err != nil {
		return nil, err
	}

	stats := &models.AggregateStats{
		TotalQueries:   len(window.runs),
		TotalMentions:  countMentions(window.analyses),
		TotalCitations: countDistinctCitations(window.citations),
		DailySeries:    buildDailySeries(seriesDays, seriesRows),
		Platforms:      buildPlatformBreakdown(window),
	}

	return stats, nil
}

func (s *statsService) loadRows(ctx context.Context, uow UnitOfWork, domainID int64, from, to time.Time) (*windowRows, error) {
	runs, err := uow.PromptRunRepository().GetByDomainInRange(ctx, domainID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt runs: %w", err)
	}
	analyses, err := uow.MentionAnalysisRepository().GetByDomainInRange(ctx, domainID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get mention analyses: %w", err)
	}
	citations, err := uow.CitationRepository().GetByDomainInRange(ctx, domainID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get citations: %w", err)
	}
	return &windowRows{runs: runs, analyses: analyses, citations: citations}, nil
}

func countMentions(analyses []*models.MentionAnalysis) int {
	count := 0
	for _, a := range analyses {
		if a.Mentioned {
			count++
		}
	}
	return count
}

// countDistinctCitations counts distinct (run, url) citation records
func countDistinctCitations(citations []*models.Citation) int {
	seen := make(map[string]struct{}, len(citations))
	for _, c := range citations {
		seen[fmt.Sprintf("%d|%s", c.PromptRunID, c.URL)] = struct{}{}
	}
	return len(seen)
}

// buildDailySeries produces exactly one entry per day, zero-filled for
// days with no rows. Rows are bucketed by their run's executed_at, never
// by insertion order.
func buildDailySeries(days []time.Time, rows *windowRows) []models.DailyCount {
	runDay := make(map[int64]time.Time, len(rows.runs))
	for _, run := range rows.runs {
		runDay[run.ID] = StartOfDayUTC(run.ExecutedAt)
	}

	mentionsByDay := make(map[time.Time]int)
	for _, a := range rows.analyses {
		if !a.Mentioned {
			continue
		}
		if day, ok := runDay[a.PromptRunID]; ok {
			mentionsByDay[day]++
		}
	}

	citationsByDay := make(map[time.Time]int)
	for _, c := range rows.citations {
		if day, ok := runDay[c.PromptRunID]; ok {
			citationsByDay[day]++
		}
	}

	series := make([]models.DailyCount, 0, len(days))
	for _, day := range days {
		series = append(series, models.DailyCount{
			Date:      day,
			Mentions:  mentionsByDay[day],
			Citations: citationsByDay[day],
		})
	}
	return series
}

// buildPlatformBreakdown computes one entry per provider seen in range.
// Percentage is the platform's own mention rate, not a share of a pie.
func buildPlatformBreakdown(rows *windowRows) []models.PlatformStat {
	queriesByProvider := make(map[string]int)
	runProvider := make(map[int64]string, len(rows.runs))
	for _, run := range rows.runs {
		queriesByProvider[run.Provider]++
		runProvider[run.ID] = run.Provider
	}

	mentionsByProvider := make(map[string]int)
	for _, a := range rows.analyses {
		if !a.Mentioned {
			continue
		}
		if p, ok := runProvider[a.PromptRunID]; ok {
			mentionsByProvider[p]++
		}
	}

	platforms := make([]models.PlatformStat, 0, len(queriesByProvider))
	for name, queries := range queriesByProvider {
		mentions := mentionsByProvider[name]
		percentage := 0
		if queries > 0 {
			percentage = int(math.Round(float64(mentions) / float64(queries) * 100))
		}
		platforms = append(platforms, models.PlatformStat{
			Name:       name,
			Mentions:   mentions,
			Percentage: percentage,
		})
	}

	// Mentions descending, ties broken by name ascending for determinism
	sort.Slice(platforms, func(i, j int) bool {
		if platforms[i].Mentions != platforms[j].Mentions {
			return platforms[i].Mentions > platforms[j].Mentions
		}
		return platforms[i].Name < platforms[j].Name
	})

	return platforms
}

// GetRankings scores each tracked brand against the successful responses
// in the window and ranks them. The domain's own brand competes in the
// same sort; it is flagged for UI highlighting, not pinned.
func (s *statsService) GetRankings(ctx context.Context, domainID int64, start, end time.Time, brands []string) ([]*models.RankingEntry, error) {
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

	runs, err := uow.PromptRunRepository().GetByDomainInRange(ctx, domainID, StartOfDayUTC(start), EndOfDayUTC(end))
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt runs: %w", err)
	}

	entries := make([]*models.RankingEntry, 0, len(brands))
	for _, brand := range brands {
		mentions := 0
		positionSum := 0
		for _, run := range runs {
			if !run.Succeeded() {
				continue
			}
			result := analysis.Analyze(*run.ResponseText, brand)
			if result.Mentioned {
				mentions++
				if result.Position != nil {
					positionSum += *result.Position
				}
			}
		}

		avgPosition := 0.0
		if mentions > 0 {
			avgPosition = float64(positionSum) / float64(mentions)
		}

		entries = append(entries, &models.RankingEntry{
			BrandName:    brand,
			Mentions:     mentions,
			AvgPosition:  avgPosition,
			IsUserDomain: isOwnBrand(domain, brand),
		})
	}

	// Mentions descending, then average position ascending (fewer means
	// earlier in the answer), then name ascending
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Mentions != entries[j].Mentions {
			return entries[i].Mentions > entries[j].Mentions
		}
		if entries[i].AvgPosition != entries[j].AvgPosition {
			return entries[i].AvgPosition < entries[j].AvgPosition
		}
		return entries[i].BrandName < entries[j].BrandName
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

func isOwnBrand(domain *models.Domain, brand string) bool {
	return strings.EqualFold(brand, domain.Name) ||
		(domain.BrandName != "" && strings.EqualFold(brand, domain.BrandName))
}
