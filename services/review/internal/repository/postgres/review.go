package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewInsights/pkg/database"
	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
)

const (
	insertReviewSQL = `
		INSERT INTO reviews (product_name, source, rating, text, sentiment_label, sentiment_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, product_name, source, rating, text, sentiment_label, sentiment_score, created_at`

	listReviewsSQL = `
		SELECT id, product_name, source, rating, text, sentiment_label, sentiment_score, created_at
		FROM reviews
		WHERE $1 = '' OR product_name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY created_at DESC, id DESC`

	resetReviewsSQL = `TRUNCATE TABLE reviews RESTART IDENTITY`

	pingSQL = `SELECT 1`
)

// ReviewRepository stores reviews in PostgreSQL. Connections come from a
// database.Provider; connection-level failures are handed back to it so a
// broken pool is discarded and re-established on the next call.
type ReviewRepository struct {
	db database.Provider
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(db database.Provider) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review and returns the stored row.
func (r *ReviewRepository) Create(ctx context.Context, params *domain.CreateReviewParams) (review *domain.Review, err error) {
	db, err := r.db.DB(ctx)
	if err != nil {
		return nil, r.fail("acquire connection", err)
	}

	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewSQL)
	defer func() { end(err) }()

	row := db.QueryRow(ctx, insertReviewSQL,
		params.ProductName,
		params.SourceOrDefault(),
		params.Rating,
		params.Text,
		string(params.SentimentLabel),
		params.SentimentScore,
	)

	review, err = scanReview(row)
	if err != nil {
		return nil, r.fail("insert review", err)
	}
	return review, nil
}

// List returns matching reviews, newest first.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (reviews []domain.Review, err error) {
	db, err := r.db.DB(ctx)
	if err != nil {
		return nil, r.fail("acquire connection", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListReviews", listReviewsSQL)
	defer func() { end(err) }()

	rows, err := db.Query(ctx, listReviewsSQL, repository.EscapeLike(filter.Product))
	if err != nil {
		return nil, r.fail("list reviews", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, r.fail("scan review row", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("iterate review rows", err)
	}

	return reviews, nil
}

// Reset truncates the table and restarts the id sequence.
func (r *ReviewRepository) Reset(ctx context.Context) (err error) {
	db, err := r.db.DB(ctx)
	if err != nil {
		return r.fail("acquire connection", err)
	}

	ctx, end := database.TraceQuery(ctx, "ResetReviews", resetReviewsSQL)
	defer func() { end(err) }()

	if _, err = db.Exec(ctx, resetReviewsSQL); err != nil {
		return r.fail("reset reviews", err)
	}
	return nil
}

// Ping runs a trivial query.
func (r *ReviewRepository) Ping(ctx context.Context) error {
	db, err := r.db.DB(ctx)
	if err != nil {
		return r.fail("acquire connection", err)
	}
	if _, err := db.Exec(ctx, pingSQL); err != nil {
		return r.fail("ping", err)
	}
	return nil
}

func (r *ReviewRepository) fail(op string, err error) error {
	r.db.Invalidate(err)
	return apperrors.StorageUnavailable(fmt.Errorf("%s: %w", op, err))
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv    domain.Review
		label string
	)
	if err := row.Scan(
		&rv.ID,
		&rv.ProductName,
		&rv.Source,
		&rv.Rating,
		&rv.Text,
		&label,
		&rv.SentimentScore,
		&rv.CreatedAt,
	); err != nil {
		return nil, err
	}
	rv.SentimentLabel = domain.SentimentLabel(label)
	rv.CreatedAt = rv.CreatedAt.UTC()
	return &rv, nil
}
