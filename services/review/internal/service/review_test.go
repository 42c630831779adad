package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository/memory"
)

// --- Mocks ---

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text string) (*domain.SentimentResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SentimentResult), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, params *domain.CreateReviewParams) (*domain.Review, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockReviewRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func positive(score float64) *domain.SentimentResult {
	return &domain.SentimentResult{Label: domain.SentimentPositive, Score: score, Provider: "sentiment-api"}
}

func countReviews(t *testing.T, repo repository.ReviewRepository) int {
	t.Helper()
	reviews, err := repo.List(context.Background(), repository.ReviewFilter{})
	require.NoError(t, err)
	return len(reviews)
}

// --- CreateWithAnalysis ---

func TestCreateWithAnalysis_Success(t *testing.T) {
	repo := memory.NewReviewRepository()
	analyzer := new(mockAnalyzer)
	publisher := new(mockPublisher)
	svc := NewReviewService(repo, analyzer, publisher, newTestLogger())
	ctx := context.Background()

	analyzer.On("Analyze", ctx, "great").Return(positive(0.8), nil)
	publisher.On("PublishReviewCreated", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.CreateWithAnalysis(ctx, domain.CreateReviewInput{ProductName: "Mouse", Text: "great"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), review.ID)
	assert.Equal(t, domain.SentimentPositive, review.SentimentLabel)
	assert.Equal(t, 0.8, review.SentimentScore)
	assert.Equal(t, domain.DefaultSource, review.Source)
	assert.Nil(t, review.Rating)

	result, err := svc.ListWithMetrics(ctx, "")
	require.NoError(t, err)
	require.Len(t, result.Reviews, 1)
	assert.Equal(t, 1, result.Metrics.TotalReviews)
	require.NotNil(t, result.Metrics.AvgSentimentScore)
	assert.InDelta(t, 0.8, *result.Metrics.AvgSentimentScore, 1e-9)
	assert.Equal(t, domain.SentimentSummary{Positive: 1, Total: 1}, result.Metrics.SentimentSummary)

	analyzer.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateWithAnalysis_ValidationRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name    string
		input   domain.CreateReviewInput
		message string
	}{
		{"missing text", domain.CreateReviewInput{ProductName: "Mouse"}, "text is required"},
		{"missing product", domain.CreateReviewInput{Text: "great"}, "productName is required"},
		{"blank both", domain.CreateReviewInput{ProductName: "  ", Text: "\t"}, "productName and text are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewReviewRepository()
			analyzer := new(mockAnalyzer)
			svc := NewReviewService(repo, analyzer, nil, newTestLogger())

			_, err := svc.CreateWithAnalysis(context.Background(), tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, 0, countReviews(t, repo))
			analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateWithAnalysis_AnalysisFailureStoresNothing(t *testing.T) {
	repo := memory.NewReviewRepository()
	analyzer := new(mockAnalyzer)
	publisher := new(mockPublisher)
	svc := NewReviewService(repo, analyzer, publisher, newTestLogger())

	analyzer.On("Analyze", mock.Anything, "great").
		Return(nil, apperrors.AnalysisFailed(errors.New("timeout")))

	_, err := svc.CreateWithAnalysis(context.Background(), domain.CreateReviewInput{ProductName: "Mouse", Text: "great"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAnalysisFailed)
	assert.Equal(t, 0, countReviews(t, repo))
	publisher.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestCreateWithAnalysis_StorageFailure(t *testing.T) {
	repo := new(mockReviewRepository)
	analyzer := new(mockAnalyzer)
	publisher := new(mockPublisher)
	svc := NewReviewService(repo, analyzer, publisher, newTestLogger())

	analyzer.On("Analyze", mock.Anything, "great").Return(positive(0.5), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.CreateReviewParams")).
		Return(nil, apperrors.StorageUnavailable(errors.New("connection refused")))

	_, err := svc.CreateWithAnalysis(context.Background(), domain.CreateReviewInput{ProductName: "Mouse", Text: "great"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	publisher.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestCreateWithAnalysis_PassesInputAndSentimentToStore(t *testing.T) {
	repo := new(mockReviewRepository)
	analyzer := new(mockAnalyzer)
	svc := NewReviewService(repo, analyzer, nil, newTestLogger())

	rating := 3.5
	analyzer.On("Analyze", mock.Anything, "meh").
		Return(&domain.SentimentResult{Label: domain.SentimentNeutral, Score: 0.01}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.CreateReviewParams) bool {
		return p.ProductName == "Mouse" && p.Source == "amazon" && p.Rating != nil && *p.Rating == 3.5 &&
			p.Text == "meh" && p.SentimentLabel == domain.SentimentNeutral && p.SentimentScore == 0.01
	})).Return(&domain.Review{ID: 9, SentimentLabel: domain.SentimentNeutral}, nil)

	review, err := svc.CreateWithAnalysis(context.Background(), domain.CreateReviewInput{
		ProductName: "Mouse", Source: "amazon", Rating: &rating, Text: "meh",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), review.ID)
	repo.AssertExpectations(t)
}

func TestCreateWithAnalysis_PublishFailureDoesNotFailRequest(t *testing.T) {
	repo := memory.NewReviewRepository()
	analyzer := new(mockAnalyzer)
	publisher := new(mockPublisher)
	svc := NewReviewService(repo, analyzer, publisher, newTestLogger())

	analyzer.On("Analyze", mock.Anything, "great").Return(positive(0.9), nil)
	publisher.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	review, err := svc.CreateWithAnalysis(context.Background(), domain.CreateReviewInput{ProductName: "Mouse", Text: "great"})
	require.NoError(t, err)
	assert.NotNil(t, review)
	assert.Equal(t, 1, countReviews(t, repo))
	publisher.AssertExpectations(t)
}

// stalledPublisher blocks until its context ends, like a producer whose
// brokers never acknowledge.
type stalledPublisher struct {
	deadlineSet atomic.Bool
}

func (p *stalledPublisher) PublishReviewCreated(ctx context.Context, _ *domain.Review) error {
	_, ok := ctx.Deadline()
	p.deadlineSet.Store(ok)
	<-ctx.Done()
	return ctx.Err()
}

func (p *stalledPublisher) Close() error { return nil }

func TestCreateWithAnalysis_StalledPublishIsBounded(t *testing.T) {
	repo := memory.NewReviewRepository()
	analyzer := new(mockAnalyzer)
	publisher := &stalledPublisher{}
	svc := NewReviewService(repo, analyzer, publisher, newTestLogger())
	svc.SetPublishTimeout(20 * time.Millisecond)

	analyzer.On("Analyze", mock.Anything, "great").Return(positive(0.9), nil)

	start := time.Now()
	review, err := svc.CreateWithAnalysis(context.Background(), domain.CreateReviewInput{ProductName: "Mouse", Text: "great"})
	require.NoError(t, err)
	assert.NotNil(t, review)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, publisher.deadlineSet.Load())
	assert.Equal(t, 1, countReviews(t, repo))
}

func TestSetPublishTimeout_IgnoresNonPositive(t *testing.T) {
	svc := NewReviewService(memory.NewReviewRepository(), new(mockAnalyzer), nil, newTestLogger())
	svc.SetPublishTimeout(0)
	svc.SetPublishTimeout(-time.Second)
	assert.Equal(t, DefaultPublishTimeout, svc.publishTimeout)
}

// --- ListWithMetrics ---

func TestListWithMetrics_FilterAppliesToMetrics(t *testing.T) {
	repo := memory.NewReviewRepository()
	analyzer := new(mockAnalyzer)
	svc := NewReviewService(repo, analyzer, nil, newTestLogger())
	ctx := context.Background()

	analyzer.On("Analyze", mock.Anything, "love it").Return(positive(0.9), nil)
	analyzer.On("Analyze", mock.Anything, "hate it").
		Return(&domain.SentimentResult{Label: domain.SentimentNegative, Score: -0.7}, nil)

	for _, in := range []domain.CreateReviewInput{
		{ProductName: "Wireless Mouse", Text: "love it"},
		{ProductName: "Keyboard", Text: "hate it"},
		{ProductName: "mouse pad", Text: "hate it"},
	} {
		_, err := svc.CreateWithAnalysis(ctx, in)
		require.NoError(t, err)
	}

	result, err := svc.ListWithMetrics(ctx, "MOUSE")
	require.NoError(t, err)

	require.Len(t, result.Reviews, 2)
	assert.Equal(t, 2, result.Metrics.TotalReviews)
	require.NotNil(t, result.Metrics.AvgSentimentScore)
	assert.InDelta(t, 0.1, *result.Metrics.AvgSentimentScore, 1e-9)
	assert.Equal(t, domain.SentimentSummary{Positive: 1, Negative: 1, Total: 2}, result.Metrics.SentimentSummary)

	all, err := svc.ListWithMetrics(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all.Reviews, 3)
}

func TestListWithMetrics_EmptyStore(t *testing.T) {
	svc := NewReviewService(memory.NewReviewRepository(), new(mockAnalyzer), nil, newTestLogger())

	result, err := svc.ListWithMetrics(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, result.Reviews)
	assert.Empty(t, result.Reviews)
	assert.Equal(t, 0, result.Metrics.TotalReviews)
	assert.Nil(t, result.Metrics.AvgSentimentScore)
}

func TestListWithMetrics_StorageFailure(t *testing.T) {
	repo := new(mockReviewRepository)
	analyzer := new(mockAnalyzer)
	svc := NewReviewService(repo, analyzer, nil, newTestLogger())

	repo.On("List", mock.Anything, repository.ReviewFilter{Product: "x"}).
		Return(nil, apperrors.StorageUnavailable(errors.New("down")))

	_, err := svc.ListWithMetrics(context.Background(), "x")
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

// --- AnalyzeText ---

func TestAnalyzeText(t *testing.T) {
	analyzer := new(mockAnalyzer)
	svc := NewReviewService(memory.NewReviewRepository(), analyzer, nil, newTestLogger())

	analyzer.On("Analyze", mock.Anything, "great").Return(positive(0.8), nil)

	result, err := svc.AnalyzeText(context.Background(), "great")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, result.Label)

	_, err = svc.AnalyzeText(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	analyzer.AssertNumberOfCalls(t, "Analyze", 1)
}

// --- Reset ---

func TestReset_NextCreateStartsAtOne(t *testing.T) {
	repo := memory.NewReviewRepository()
	analyzer := new(mockAnalyzer)
	svc := NewReviewService(repo, analyzer, nil, newTestLogger())
	ctx := context.Background()

	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(positive(0.5), nil)
	for i := 0; i < 2; i++ {
		_, err := svc.CreateWithAnalysis(ctx, domain.CreateReviewInput{ProductName: "Mouse", Text: "ok"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Reset(ctx))

	result, err := svc.ListWithMetrics(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, result.Reviews)

	review, err := svc.CreateWithAnalysis(ctx, domain.CreateReviewInput{ProductName: "Mouse", Text: "ok"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), review.ID)
}

func TestReset_StorageFailure(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, new(mockAnalyzer), nil, newTestLogger())

	repo.On("Reset", mock.Anything).Return(apperrors.StorageUnavailable(errors.New("down")))

	assert.ErrorIs(t, svc.Reset(context.Background()), apperrors.ErrStorageUnavailable)
}
