package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	pkgkafka "github.com/utafrali/ReviewInsights/pkg/kafka"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
)

// Kafka topic for review domain events.
var TopicReviewCreated = pkgkafka.Topic("review", "created")

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the review service.
const SourceReviewService = "review-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID             int64     `json:"id"`
	ProductName    string    `json:"productName"`
	Source         string    `json:"source"`
	Rating         *float64  `json:"rating"`
	SentimentLabel string    `json:"sentimentLabel"`
	SentimentScore float64   `json:"sentimentScore"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Publisher announces review lifecycle events.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	Close() error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event. The review text is
// not included in the payload.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:             review.ID,
		ProductName:    review.ProductName,
		Source:         review.Source,
		Rating:         review.Rating,
		SentimentLabel: string(review.SentimentLabel),
		SentimentScore: review.SentimentScore,
		CreatedAt:      review.CreatedAt,
	}

	agg := pkgkafka.Aggregate{Type: AggregateTypeReview, ID: strconv.FormatInt(review.ID, 10)}
	event, err := pkgkafka.NewEvent(ctx, TopicReviewCreated, SourceReviewService, agg, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.Int64("review_id", review.ID),
		slog.String("product_name", review.ProductName),
	)

	return nil
}

// Close closes the underlying Kafka producer.
func (p *Producer) Close() error {
	return p.kafka.Close()
}

// NoopPublisher drops every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

// PublishReviewCreated does nothing.
func (NoopPublisher) PublishReviewCreated(context.Context, *domain.Review) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }
