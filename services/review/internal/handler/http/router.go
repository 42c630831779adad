package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ReviewInsights/pkg/health"
	"github.com/utafrali/ReviewInsights/pkg/middleware"
	"github.com/utafrali/ReviewInsights/services/review/internal/service"
)

// HealthMessage is the body of GET /health.
const HealthMessage = "API is working!"

// RouterOptions controls optional parts of the router.
type RouterOptions struct {
	ServiceName string
	CORS        middleware.CORSConfig
	// EnableDebug mounts DELETE /debug/reviews and /debug/pprof.
	EnableDebug bool
	// DebugCIDRs may reach the debug routes. Empty means loopback only.
	DebugCIDRs []string
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	opts RouterOptions,
	logger *slog.Logger,
) http.Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "review"
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(opts.CORS))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.Tracing(opts.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.PrometheusMetrics(opts.ServiceName))

	// Health check endpoints
	r.Get("/health", health.MessageHandler(HealthMessage))
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Review API endpoints
	reviewHandler := NewReviewHandler(reviewService, logger)

	r.Route("/api/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", reviewHandler.ListReviews)
		r.Post("/", reviewHandler.CreateReview)
	})

	// Sentiment probe
	sentimentHandler := NewSentimentHandler(reviewService, logger)

	r.With(ContentTypeJSON).Post("/teste/sentiment", sentimentHandler.Analyze)

	if opts.EnableDebug {
		debugHandler := NewDebugHandler(reviewService, logger)
		middleware.RegisterDebug(r, opts.DebugCIDRs, logger, func(r chi.Router) {
			r.Delete("/debug/reviews", debugHandler.ResetReviews)
		})
	}

	return r
}
