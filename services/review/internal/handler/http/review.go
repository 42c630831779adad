package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/utafrali/ReviewInsights/pkg/httputil"
	"github.com/utafrali/ReviewInsights/pkg/validator"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/service"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review.
// Rating is kept raw so that a non-numeric value can be stored as null
// instead of failing the request.
type CreateReviewRequest struct {
	ProductName string          `json:"productName" validate:"required"`
	Source      string          `json:"source"`
	Rating      json.RawMessage `json:"rating"`
	Text        string          `json:"text" validate:"required"`
}

func (req *CreateReviewRequest) toInput() domain.CreateReviewInput {
	return domain.CreateReviewInput{
		ProductName: req.ProductName,
		Source:      req.Source,
		Rating:      parseRating(req.Rating),
		Text:        req.Text,
	}
}

// parseRating returns the rating when raw is a JSON number and nil otherwise.
func parseRating(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// --- Handlers ---

// ListReviews handles GET /api/reviews?product=<text>
// @Summary List reviews with metrics
// @Description Returns reviews whose product name contains the filter, with aggregate sentiment metrics
// @Tags reviews
// @Produce json
// @Param product query string false "Case-insensitive product name substring"
// @Success 200 {object} service.ReviewListResult
// @Failure 500 {object} httputil.ErrorResponse
// @Router /api/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListWithMetrics(r.Context(), r.URL.Query().Get("product"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// CreateReview handles POST /api/reviews
// @Summary Create a review
// @Description Classifies the review text and stores the review
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review to submit"
// @Success 201 {object} domain.Review
// @Failure 400 {object} httputil.ErrorResponse
// @Failure 500 {object} httputil.ErrorResponse
// @Router /api/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.CreateWithAnalysis(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, review)
}
