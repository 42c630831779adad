package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
)

// ReviewRepository keeps reviews in process memory in insertion order.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews []domain.Review
	nextID  int64
	now     func() time.Time
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates an empty in-memory review store.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create appends a review with the next sequential ID.
func (r *ReviewRepository) Create(_ context.Context, params *domain.CreateReviewParams) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	review := domain.Review{
		ID:             r.nextID,
		ProductName:    params.ProductName,
		Source:         params.SourceOrDefault(),
		Rating:         copyRating(params.Rating),
		Text:           params.Text,
		SentimentLabel: params.SentimentLabel,
		SentimentScore: params.SentimentScore,
		CreatedAt:      r.now(),
	}
	r.nextID++
	r.reviews = append(r.reviews, review)

	out := review
	out.Rating = copyRating(review.Rating)
	return &out, nil
}

// List returns matching reviews, oldest first.
func (r *ReviewRepository) List(_ context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		if !repository.MatchesProduct(rv.ProductName, filter.Product) {
			continue
		}
		rv.Rating = copyRating(rv.Rating)
		out = append(out, rv)
	}
	return out, nil
}

// Reset drops every review and restarts IDs at 1.
func (r *ReviewRepository) Reset(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = nil
	r.nextID = 1
	return nil
}

// Ping always succeeds.
func (r *ReviewRepository) Ping(context.Context) error { return nil }

func copyRating(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
