package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ReviewInsights/pkg/httputil"
	"github.com/utafrali/ReviewInsights/services/review/internal/service"
)

// DebugHandler serves development-only maintenance endpoints.
type DebugHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewDebugHandler creates a new debug handler.
func NewDebugHandler(svc *service.ReviewService, logger *slog.Logger) *DebugHandler {
	return &DebugHandler{service: svc, logger: logger}
}

// ResetReviews handles DELETE /debug/reviews
func (h *DebugHandler) ResetReviews(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.MessageResponse{Message: "reviews reset"})
}
