package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/utafrali/ReviewInsights/pkg/database"
	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/repository"
)

// reviewModel is the gorm mapping of the reviews table.
type reviewModel struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ProductName    string    `gorm:"not null"`
	Source         string    `gorm:"not null;default:unknown"`
	Rating         *float64
	Text           string    `gorm:"not null"`
	SentimentLabel string    `gorm:"not null"`
	SentimentScore float64   `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

func (reviewModel) TableName() string { return "reviews" }

func (m *reviewModel) toDomain() domain.Review {
	return domain.Review{
		ID:             m.ID,
		ProductName:    m.ProductName,
		Source:         m.Source,
		Rating:         m.Rating,
		Text:           m.Text,
		SentimentLabel: domain.SentimentLabel(m.SentimentLabel),
		SentimentScore: m.SentimentScore,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

// Open opens (creating if needed) the SQLite database at path. ":memory:"
// opens a private in-memory database.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory %q: %w", dir, err)
		}
	}

	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes writers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// ReviewRepository stores reviews in SQLite through gorm.
type ReviewRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository migrates the reviews table and returns a repository.
func NewReviewRepository(db *gorm.DB) (*ReviewRepository, error) {
	if err := db.AutoMigrate(&reviewModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate reviews: %w", err)
	}
	return &ReviewRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create inserts a review; SQLite assigns the id.
func (r *ReviewRepository) Create(ctx context.Context, params *domain.CreateReviewParams) (_ *domain.Review, err error) {
	ctx, end := database.TraceQueryFor(ctx, database.SystemSQLite, "CreateReview", "INSERT INTO reviews")
	defer func() { end(err) }()

	m := reviewModel{
		ProductName:    params.ProductName,
		Source:         params.SourceOrDefault(),
		Rating:         params.Rating,
		Text:           params.Text,
		SentimentLabel: string(params.SentimentLabel),
		SentimentScore: params.SentimentScore,
		CreatedAt:      r.now(),
	}
	if err = r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, apperrors.StorageUnavailable(fmt.Errorf("insert review: %w", err))
	}

	review := m.toDomain()
	return &review, nil
}

// List returns matching reviews, newest first. SQLite's LOWER and LIKE fold
// ASCII only, so the product filter is applied in Go with full Unicode case
// folding.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, err error) {
	ctx, end := database.TraceQueryFor(ctx, database.SystemSQLite, "ListReviews", "SELECT FROM reviews")
	defer func() { end(err) }()

	var rows []reviewModel
	err = r.db.WithContext(ctx).Model(&reviewModel{}).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(fmt.Errorf("list reviews: %w", err))
	}

	reviews := make([]domain.Review, 0, len(rows))
	for i := range rows {
		if !repository.MatchesProduct(rows[i].ProductName, filter.Product) {
			continue
		}
		reviews = append(reviews, rows[i].toDomain())
	}
	return reviews, nil
}

// Reset deletes all rows and clears the AUTOINCREMENT counter.
func (r *ReviewRepository) Reset(ctx context.Context) (err error) {
	ctx, end := database.TraceQueryFor(ctx, database.SystemSQLite, "ResetReviews", "DELETE FROM reviews")
	defer func() { end(err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM reviews").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", reviewModel{}.TableName()).Error
	})
	if err != nil {
		return apperrors.StorageUnavailable(fmt.Errorf("reset reviews: %w", err))
	}
	return nil
}

// Ping pings the underlying database handle.
func (r *ReviewRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.StorageUnavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.StorageUnavailable(fmt.Errorf("ping sqlite: %w", err))
	}
	return nil
}

// Close closes the underlying database handle.
func (r *ReviewRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
