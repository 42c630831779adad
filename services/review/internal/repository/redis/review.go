package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ReviewInsights/pkg/database"
	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
)

const (
	keyPrefix = "reviews:"
	seqKey    = keyPrefix + "seq"
	itemsKey  = keyPrefix + "items"
)

// ReviewRepository keeps reviews in a Redis list in insertion order, with
// ids drawn from an INCR counter.
type ReviewRepository struct {
	client *redis.Client
	now    func() time.Time
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a new Redis-backed review repository.
func NewReviewRepository(client *redis.Client) *ReviewRepository {
	return &ReviewRepository{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns the next id and appends the review.
func (r *ReviewRepository) Create(ctx context.Context, params *domain.CreateReviewParams) (_ *domain.Review, err error) {
	ctx, end := database.TraceQueryFor(ctx, database.SystemRedis, "CreateReview", "INCR "+seqKey+"; RPUSH "+itemsKey)
	defer func() { end(err) }()

	id, err := r.client.Incr(ctx, seqKey).Result()
	if err != nil {
		return nil, apperrors.StorageUnavailable(fmt.Errorf("redis incr review id: %w", err))
	}

	review := &domain.Review{
		ID:             id,
		ProductName:    params.ProductName,
		Source:         params.SourceOrDefault(),
		Rating:         params.Rating,
		Text:           params.Text,
		SentimentLabel: params.SentimentLabel,
		SentimentScore: params.SentimentScore,
		CreatedAt:      r.now(),
	}

	data, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}

	if err = r.client.RPush(ctx, itemsKey, data).Err(); err != nil {
		return nil, apperrors.StorageUnavailable(fmt.Errorf("redis rpush review: %w", err))
	}

	return review, nil
}

// List reads every stored review and filters in process. Order is
// insertion order.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, err error) {
	ctx, end := database.TraceQueryFor(ctx, database.SystemRedis, "ListReviews", "LRANGE "+itemsKey+" 0 -1")
	defer func() { end(err) }()

	items, err := r.client.LRange(ctx, itemsKey, 0, -1).Result()
	if err != nil {
		return nil, apperrors.StorageUnavailable(fmt.Errorf("redis lrange reviews: %w", err))
	}

	reviews := make([]domain.Review, 0, len(items))
	for _, item := range items {
		var rv domain.Review
		if err = json.Unmarshal([]byte(item), &rv); err != nil {
			return nil, apperrors.StorageUnavailable(fmt.Errorf("unmarshal review: %w", err))
		}
		if repository.MatchesProduct(rv.ProductName, filter.Product) {
			reviews = append(reviews, rv)
		}
	}
	return reviews, nil
}

// Reset deletes the review list and the id counter.
func (r *ReviewRepository) Reset(ctx context.Context) (err error) {
	ctx, end := database.TraceQueryFor(ctx, database.SystemRedis, "ResetReviews", "DEL "+itemsKey+" "+seqKey)
	defer func() { end(err) }()

	if err = r.client.Del(ctx, itemsKey, seqKey).Err(); err != nil {
		return apperrors.StorageUnavailable(fmt.Errorf("redis del reviews: %w", err))
	}
	return nil
}

// Ping sends PING.
func (r *ReviewRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperrors.StorageUnavailable(fmt.Errorf("redis ping: %w", err))
	}
	return nil
}
