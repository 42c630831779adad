package repository

import (
	"context"
	"strings"

	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
)

// ReviewFilter narrows List. An empty Product matches every review.
type ReviewFilter struct {
	Product string
}

// ReviewRepository is the review store. Implementations assign IDs and
// CreatedAt and report every backend failure as a storage-unavailable error.
type ReviewRepository interface {
	// Create persists a review and returns it as stored.
	Create(ctx context.Context, params *domain.CreateReviewParams) (*domain.Review, error)

	// List returns reviews whose product name contains filter.Product,
	// case-insensitively.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)

	// Reset removes all reviews and restarts ID assignment.
	Reset(ctx context.Context) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// MatchesProduct reports whether name contains filter, ignoring case.
func MatchesProduct(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// EscapeLike escapes LIKE metacharacters so s matches literally with
// ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
