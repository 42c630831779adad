package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ReviewInsights/pkg/httputil"
	"github.com/utafrali/ReviewInsights/pkg/validator"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
	"github.com/utafrali/ReviewInsights/services/review/internal/service"
)

// SentimentHandler exposes the sentiment API for diagnostics.
type SentimentHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewSentimentHandler creates a new sentiment probe handler.
func NewSentimentHandler(svc *service.ReviewService, logger *slog.Logger) *SentimentHandler {
	return &SentimentHandler{service: svc, logger: logger}
}

// AnalyzeRequest is the JSON request body for a sentiment probe.
type AnalyzeRequest struct {
	Text string `json:"text" validate:"required"`
}

// AnalyzeResponse echoes the input alongside the classification.
type AnalyzeResponse struct {
	Input  string                  `json:"input"`
	Result *domain.SentimentResult `json:"result"`
}

// Analyze handles POST /teste/sentiment
func (h *SentimentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.service.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, AnalyzeResponse{Input: req.Text, Result: result})
}
