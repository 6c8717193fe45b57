package service

import (
	"context"
	"time"

	"brandlens/events"
	"brandlens/models"
	"brandlens/provider"

	"github.com/stretchr/testify/mock"
)

// MockDomainRepository is a mock implementation of DomainRepository
type MockDomainRepository struct {
	mock.Mock
}

func (m *MockDomainRepository) GetByID(ctx context.Context, id int64) (*models.Domain, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) GetByWorkspace(ctx context.Context, workspaceID int64) ([]*models.Domain, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) GetWithActivePrompts(ctx context.Context) ([]*models.Domain, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	args := m.Called(ctx, domain)
	return args.Error(0)
}

// MockPromptRepository is a mock implementation of PromptRepository
type MockPromptRepository struct {
	mock.Mock
}

func (m *MockPromptRepository) GetActiveByDomain(ctx context.Context, domainID int64) ([]*models.Prompt, error) {
	args := m.Called(ctx, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Prompt), args.Error(1)
}

func (m *MockPromptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	args := m.Called(ctx, prompt)
	return args.Error(0)
}

// MockPromptRunRepository is a mock implementation of PromptRunRepository
type MockPromptRunRepository struct {
	mock.Mock
}

func (m *MockPromptRunRepository) Create(ctx context.Context, run *models.PromptRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockPromptRunRepository) GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.PromptRun, error) {
	args := m.Called(ctx, domainID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PromptRun), args.Error(1)
}

func (m *MockPromptRunRepository) CountByDomainSince(ctx context.Context, domainID int64, since time.Time) (int, error) {
	args := m.Called(ctx, domainID, since)
	return args.Int(0), args.Error(1)
}

// MockMentionAnalysisRepository is a mock implementation of MentionAnalysisRepository
type MockMentionAnalysisRepository struct {
	mock.Mock
}

func (m *MockMentionAnalysisRepository) Create(ctx context.Context, analysis *models.MentionAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockMentionAnalysisRepository) GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.MentionAnalysis, error) {
	args := m.Called(ctx, domainID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MentionAnalysis), args.Error(1)
}

// MockCitationRepository is a mock implementation of CitationRepository
type MockCitationRepository struct {
	mock.Mock
}

func (m *MockCitationRepository) CreateBatch(ctx context.Context, promptRunID int64, urls []string) error {
	args := m.Called(ctx, promptRunID, urls)
	return args.Error(0)
}

func (m *MockCitationRepository) GetByDomainInRange(ctx context.Context, domainID int64, from, to time.Time) ([]*models.Citation, error) {
	args := m.Called(ctx, domainID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Citation), args.Error(1)
}

// MockProviderClient is a mock implementation of provider.Client
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) Execute(ctx context.Context, promptText string, providerName provider.Name) (*provider.Completion, error) {
	args := m.Called(ctx, promptText, providerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Completion), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopPublisher swallows events for tests that don't assert on them
type noopPublisher struct{}

func (noopPublisher) Publish(event events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories rather than mocked per-getter.
type MockUnitOfWork struct {
	mock.Mock
	domainRepo   DomainRepository
	promptRepo   PromptRepository
	runRepo      PromptRunRepository
	mentionRepo  MentionAnalysisRepository
	citationRepo CitationRepository
	publisher    EventPublisher
}

// SetRepositories wires the repositories this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	domainRepo DomainRepository,
	promptRepo PromptRepository,
	runRepo PromptRunRepository,
	mentionRepo MentionAnalysisRepository,
	citationRepo CitationRepository,
	publisher EventPublisher,
) {
	m.domainRepo = domainRepo
	m.promptRepo = promptRepo
	m.runRepo = runRepo
	m.mentionRepo = mentionRepo
	m.citationRepo = citationRepo
	if publisher == nil {
		publisher = noopPublisher{}
	}
	m.publisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) DomainRepository() DomainRepository {
	return m.domainRepo
}

func (m *MockUnitOfWork) PromptRepository() PromptRepository {
	return m.promptRepo
}

func (m *MockUnitOfWork) PromptRunRepository() PromptRunRepository {
	return m.runRepo
}

func (m *MockUnitOfWork) MentionAnalysisRepository() MentionAnalysisRepository {
	return m.mentionRepo
}

func (m *MockUnitOfWork) CitationRepository() CitationRepository {
	return m.citationRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
