package service

import (
	"context"
	"testing"
	"time"

	"brandlens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type statsServiceFixture struct {
	service      *statsService
	domainRepo   *MockDomainRepository
	runRepo      *MockPromptRunRepository
	mentionRepo  *MockMentionAnalysisRepository
	citationRepo *MockCitationRepository
}

func newStatsServiceFixture(now time.Time) *statsServiceFixture {
	f := &statsServiceFixture{
		domainRepo:   new(MockDomainRepository),
		runRepo:      new(MockPromptRunRepository),
		mentionRepo:  new(MockMentionAnalysisRepository),
		citationRepo: new(MockCitationRepository),
	}
	uow := new(MockUnitOfWork)
	uow.SetRepositories(f.domainRepo, new(MockPromptRepository), f.runRepo, f.mentionRepo, f.citationRepo, nil)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)

	f.service = &statsService{
		uowFactory: factory,
		now:        func() time.Time { return now },
	}
	return f
}

func successfulRun(id int64, provider, text string, executedAt time.Time) *models.PromptRun {
	return &models.PromptRun{
		ID:           id,
		Provider:     provider,
		ResponseText: &text,
		ExecutedAt:   executedAt,
	}
}

func TestStatsService_GetVisibilityStats_NoData(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.PromptRun{}, nil)
	f.mentionRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.MentionAnalysis{}, nil)
	f.citationRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.Citation{}, nil)

	stats, err := f.service.GetVisibilityStats(ctx, 1, now.AddDate(0, 0, -30), now)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalQueries)
	assert.Equal(t, 0, stats.TotalMentions)
	assert.Equal(t, 0, stats.TotalCitations)
	assert.Empty(t, stats.Platforms)

	// The daily series is always 7 zero-filled entries ending today
	require.Len(t, stats.DailySeries, 7)
	for i, entry := range stats.DailySeries {
		expected := time.Date(2026, 8, 25+i, 0, 0, 0, 0, time.UTC)
		assert.True(t, entry.Date.Equal(expected), "entry %d: got %v", i, entry.Date)
		assert.Equal(t, 0, entry.Mentions)
		assert.Equal(t, 0, entry.Citations)
	}
}

func TestStatsService_GetVisibilityStats_DomainNotFound(t *testing.T) {
	ctx := context.Background()
	f := newStatsServiceFixture(time.Now())

	f.domainRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	stats, err := f.service.GetVisibilityStats(ctx, 99, time.Now().AddDate(0, 0, -7), time.Now())
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, ErrDomainNotFound)
}

func TestStatsService_GetVisibilityStats_InclusiveDayWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)

	start := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	end := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)

	// The repository is asked for full calendar days, not raw timestamps
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1),
		time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		mock.MatchedBy(func(to time.Time) bool {
			return to.After(time.Date(2026, 8, 22, 23, 59, 59, 0, time.UTC))
		})).Return([]*models.PromptRun{}, nil).Once()
	f.mentionRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.MentionAnalysis{}, nil)
	f.citationRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.Citation{}, nil)
	// Second load for the fixed 7-day series window
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.PromptRun{}, nil)

	_, err := f.service.GetVisibilityStats(ctx, 1, start, end)
	require.NoError(t, err)
	f.runRepo.AssertExpectations(t)
}

func TestStatsService_GetVisibilityStats_PlatformBreakdown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	runs := []*models.PromptRun{
		successfulRun(1, "openai", "example.com wins", day),
		successfulRun(2, "openai", "nothing here", day),
		successfulRun(3, "openai", "try example.com", day),
		successfulRun(4, "perplexity", "example.com again", day),
		successfulRun(5, "perplexity", "nope", day),
	}
	analyses := []*models.MentionAnalysis{
		{PromptRunID: 1, DomainID: 1, Mentioned: true},
		{PromptRunID: 2, DomainID: 1, Mentioned: false},
		{PromptRunID: 3, DomainID: 1, Mentioned: true},
		{PromptRunID: 4, DomainID: 1, Mentioned: true},
		{PromptRunID: 5, DomainID: 1, Mentioned: false},
	}

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(runs, nil)
	f.mentionRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(analyses, nil)
	f.citationRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.Citation{}, nil)

	stats, err := f.service.GetVisibilityStats(ctx, 1, day, day)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalQueries)
	assert.Equal(t, 3, stats.TotalMentions)

	require.Len(t, stats.Platforms, 2)
	// openai: 2/3 mentions = 67%, perplexity: 1/2 = 50%
	assert.Equal(t, "openai", stats.Platforms[0].Name)
	assert.Equal(t, 2, stats.Platforms[0].Mentions)
	assert.Equal(t, 67, stats.Platforms[0].Percentage)
	assert.Equal(t, "perplexity", stats.Platforms[1].Name)
	assert.Equal(t, 1, stats.Platforms[1].Mentions)
	assert.Equal(t, 50, stats.Platforms[1].Percentage)
}

func TestStatsService_GetVisibilityStats_PlatformTieBrokenByName(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	runs := []*models.PromptRun{
		successfulRun(1, "perplexity", "example.com", day),
		successfulRun(2, "openai", "example.com", day),
	}
	analyses := []*models.MentionAnalysis{
		{PromptRunID: 1, Mentioned: true},
		{PromptRunID: 2, Mentioned: true},
	}

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(runs, nil)
	f.mentionRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(analyses, nil)
	f.citationRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.Citation{}, nil)

	stats, err := f.service.GetVisibilityStats(ctx, 1, day, day)
	require.NoError(t, err)

	require.Len(t, stats.Platforms, 2)
	assert.Equal(t, "openai", stats.Platforms[0].Name)
	assert.Equal(t, "perplexity", stats.Platforms[1].Name)
}

func TestStatsService_GetVisibilityStats_DistinctCitations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	runs := []*models.PromptRun{
		successfulRun(1, "perplexity", "example.com", day),
		successfulRun(2, "perplexity", "example.com", day),
	}
	citations := []*models.Citation{
		{PromptRunID: 1, URL: "https://a.example/post"},
		{PromptRunID: 1, URL: "https://a.example/post"}, // duplicate row
		{PromptRunID: 1, URL: "https://b.example"},
		{PromptRunID: 2, URL: "https://a.example/post"}, // same url, other run
	}

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(runs, nil)
	f.mentionRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return([]*models.MentionAnalysis{}, nil)
	f.citationRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(citations, nil)

	stats, err := f.service.GetVisibilityStats(ctx, 1, day, day)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCitations)
}

func TestStatsService_GetVisibilityStats_DailySeriesBucketsByExecutionDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	runs := []*models.PromptRun{
		successfulRun(1, "openai", "example.com", time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)),
		successfulRun(2, "openai", "example.com", time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)),
		successfulRun(3, "openai", "example.com", time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)),
	}
	analyses := []*models.MentionAnalysis{
		{PromptRunID: 1, Mentioned: true},
		{PromptRunID: 2, Mentioned: true},
		{PromptRunID: 3, Mentioned: true},
	}
	citations := []*models.Citation{
		{PromptRunID: 2, URL: "https://a.example"},
	}

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(runs, nil)
	f.mentionRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(analyses, nil)
	f.citationRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(citations, nil)

	stats, err := f.service.GetVisibilityStats(ctx, 1, now.AddDate(0, 0, -7), now)
	require.NoError(t, err)

	require.Len(t, stats.DailySeries, 7)
	byDay := make(map[string]models.DailyCount)
	for _, entry := range stats.DailySeries {
		byDay[entry.Date.Format("2006-01-02")] = entry
	}
	assert.Equal(t, 2, byDay["2026-08-29"].Mentions)
	assert.Equal(t, 1, byDay["2026-08-29"].Citations)
	assert.Equal(t, 0, byDay["2026-08-30"].Mentions)
	assert.Equal(t, 1, byDay["2026-08-31"].Mentions)
}

func TestStatsService_GetRankings(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	failedText := "provider exploded"
	runs := []*models.PromptRun{
		successfulRun(1, "openai", "Try acme.com first. Then example.com is solid too.", day),
		successfulRun(2, "openai", "acme.com is the standard answer here.", day),
		{ID: 3, Provider: "openai", Error: &failedText, ExecutedAt: day},
	}

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(runs, nil)

	entries, err := f.service.GetRankings(ctx, 1, day, day, []string{"example.com", "acme.com", "ghost.io"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// acme.com: 2 mentions (positions 2 and 1), example.com: 1 mention
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "acme.com", entries[0].BrandName)
	assert.Equal(t, 2, entries[0].Mentions)
	assert.InDelta(t, 1.5, entries[0].AvgPosition, 0.001)
	assert.False(t, entries[0].IsUserDomain)

	// The user's own brand ranks on merit, flagged not pinned
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "example.com", entries[1].BrandName)
	assert.Equal(t, 1, entries[1].Mentions)
	assert.True(t, entries[1].IsUserDomain)

	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, "ghost.io", entries[2].BrandName)
	assert.Equal(t, 0, entries[2].Mentions)
}

func TestStatsService_GetRankings_TieBreaks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f := newStatsServiceFixture(now)

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	runs := []*models.PromptRun{
		// beta.io opens its response, alpha.io comes later in the same one
		successfulRun(1, "openai", "beta.io leads the pack. alpha.io follows.", day),
		// zeta.io and yarn.dev each open their own response
		successfulRun(2, "openai", "zeta.io is fine", day),
		successfulRun(3, "openai", "yarn.dev is fine", day),
	}

	f.domainRepo.On("GetByID", mock.Anything, int64(1)).Return(testDomain(), nil)
	f.runRepo.On("GetByDomainInRange", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(runs, nil)

	entries, err := f.service.GetRankings(ctx, 1, day, day, []string{"alpha.io", "beta.io", "zeta.io", "yarn.dev"})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Equal mentions: earlier average position wins
	assert.Equal(t, "beta.io", entries[0].BrandName)
	assert.InDelta(t, 1.0, entries[0].AvgPosition, 0.001)
	// Equal mentions and position: name ascending
	assert.Equal(t, "yarn.dev", entries[1].BrandName)
	assert.Equal(t, "zeta.io", entries[2].BrandName)
	assert.Equal(t, "alpha.io", entries[3].BrandName)
}

func TestStatsService_GetRankings_DomainNotFound(t *testing.T) {
	ctx := context.Background()
	f := newStatsServiceFixture(time.Now())

	f.domainRepo.On("GetByID", mock.Anything, int64(42)).Return(nil, nil)

	entries, err := f.service.GetRankings(ctx, 42, time.Now(), time.Now(), []string{"a.com"})
	assert.Nil(t, entries)
	assert.ErrorIs(t, err, ErrDomainNotFound)
}
