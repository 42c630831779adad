package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/event"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
)

// ReviewsCreated counts persisted reviews by sentiment label.
var ReviewsCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total number of reviews created, by sentiment label",
	},
	[]string{"label"},
)

// DefaultPublishTimeout bounds the review.created publish made after a store
// write.
const DefaultPublishTimeout = time.Second

// Analyzer classifies review text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*domain.SentimentResult, error)
}

// ReviewListResult contains reviews and their aggregate metrics.
type ReviewListResult struct {
	Reviews []domain.Review       `json:"reviews"`
	Metrics domain.MetricsSummary `json:"metrics"`
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	repo     repository.ReviewRepository
	analyzer Analyzer
	events   event.Publisher
	logger   *slog.Logger

	publishTimeout time.Duration
}

// NewReviewService creates a new review service. A nil publisher disables
// events.
func NewReviewService(repo repository.ReviewRepository, analyzer Analyzer, events event.Publisher, logger *slog.Logger) *ReviewService {
	if events == nil {
		events = event.NoopPublisher{}
	}
	return &ReviewService{
		repo:           repo,
		analyzer:       analyzer,
		events:         events,
		logger:         logger,
		publishTimeout: DefaultPublishTimeout,
	}
}

// SetPublishTimeout overrides how long CreateWithAnalysis waits for the event
// publish. Non-positive values are ignored.
func (s *ReviewService) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		s.publishTimeout = d
	}
}

// ListWithMetrics returns the reviews matching product together with metrics
// computed over exactly that set.
func (s *ReviewService) ListWithMetrics(ctx context.Context, product string) (*ReviewListResult, error) {
	reviews, err := s.repo.List(ctx, repository.ReviewFilter{Product: product})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}

	return &ReviewListResult{
		Reviews: reviews,
		Metrics: domain.CalculateMetrics(reviews),
	}, nil
}

// CreateWithAnalysis validates input, classifies the text and stores the
// review. Nothing is stored when validation or analysis fails.
func (s *ReviewService) CreateWithAnalysis(ctx context.Context, input domain.CreateReviewInput) (*domain.Review, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	result, err := s.analyzer.Analyze(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("analyze review: %w", err)
	}

	review, err := s.repo.Create(ctx, domain.NewCreateReviewParams(input, result))
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	ReviewsCreated.WithLabelValues(string(review.SentimentLabel)).Inc()

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.String("product_name", review.ProductName),
		slog.String("sentiment_label", string(review.SentimentLabel)),
		slog.Float64("sentiment_score", review.SentimentScore),
	)

	s.publishCreated(ctx, review)

	return review, nil
}

// publishCreated announces a stored review. The review is already persisted,
// so a failed or slow publish is logged and never fails the request.
func (s *ReviewService) publishCreated(ctx context.Context, review *domain.Review) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.events.PublishReviewCreated(pubCtx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.Int64("review_id", review.ID),
			slog.Duration("timeout", s.publishTimeout),
			slog.String("error", err.Error()),
		)
	}
}

// AnalyzeText classifies text without storing anything.
func (s *ReviewService) AnalyzeText(ctx context.Context, text string) (*domain.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.InvalidInput("text is required")
	}
	result, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}
	return result, nil
}

// Reset removes every stored review.
func (s *ReviewService) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		return fmt.Errorf("reset reviews: %w", err)
	}
	s.logger.WarnContext(ctx, "review store reset")
	return nil
}

func validateCreateInput(input domain.CreateReviewInput) error {
	var missing []string
	if strings.TrimSpace(input.ProductName) == "" {
		missing = append(missing, "productName")
	}
	if strings.TrimSpace(input.Text) == "" {
		missing = append(missing, "text")
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return apperrors.InvalidInput(missing[0] + " is required")
	default:
		return apperrors.InvalidInput(strings.Join(missing, " and ") + " are required")
	}
}
