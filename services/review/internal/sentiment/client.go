package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/pkg/httpclient"
	"github.com/utafrali/ReviewInsights/services/review/internal/domain"
)

// ProviderName tags every result produced by this client.
const ProviderName = "sentiment-api"

const maxResponseBody = 1 << 20

// Config holds sentiment API client settings.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	BreakerEnabled bool
}

// Client classifies review text through the remote sentiment API. Each call
// is a single request; there is no caching and no retry.
type Client struct {
	baseURL string
	timeout time.Duration
	http    httpclient.Doer
	logger  *slog.Logger
}

// New builds a client on a pooled httpclient.Client, wrapped in a circuit
// breaker when cfg.BreakerEnabled is set.
func New(cfg Config, logger *slog.Logger) *Client {
	base := httpclient.New(httpclient.Config{
		Timeout:         cfg.Timeout,
		MaxConnsPerHost: 100,
		UserAgent:       "review-insights",
	})

	var doer httpclient.Doer = base
	if cfg.BreakerEnabled {
		doer = httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig(ProviderName), logger)
	}
	return NewWithDoer(cfg.BaseURL, cfg.Timeout, doer, logger)
}

// NewWithDoer builds a client on an existing Doer.
func NewWithDoer(baseURL string, timeout time.Duration, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    doer,
		logger:  logger,
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze classifies text. Blank text is rejected as invalid input before any
// request is made; every other failure is an analysis failure.
func (c *Client) Analyze(ctx context.Context, text string) (*domain.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.InvalidInput("text is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, outcome, err := c.analyze(ctx, text)
	RequestDuration.Observe(time.Since(start).Seconds())
	RequestsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		c.logger.WarnContext(ctx, "sentiment analysis failed",
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.AnalysisFailed(err)
	}
	return result, nil
}

func (c *Client) analyze(ctx context.Context, text string) (*domain.SentimentResult, string, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("marshal sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sentiment", bytes.NewReader(body))
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("create sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return nil, OutcomeCircuitOpen, fmt.Errorf("call sentiment api: %w", err)
		}
		return nil, OutcomeError, fmt.Errorf("call sentiment api: %w", err)
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, OutcomeHTTPError, httpclient.ParseResponseError(resp, ProviderName)
	}
	defer resp.Body.Close()

	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&raw); err != nil {
		return nil, OutcomeMalformed, fmt.Errorf("decode sentiment response: %w", err)
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, OutcomeMalformed, err
	}
	return result, OutcomeSuccess, nil
}

// parseResult requires a non-empty string label and a finite numeric score.
// The label is kept as received even when it is not one of the known values.
func parseResult(raw map[string]any) (*domain.SentimentResult, error) {
	label, ok := raw["label"].(string)
	if !ok || label == "" {
		return nil, fmt.Errorf("sentiment response has no label: %v", raw["label"])
	}
	score, ok := raw["score"].(float64)
	if !ok || math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, fmt.Errorf("sentiment response has no numeric score: %v", raw["score"])
	}

	return &domain.SentimentResult{
		Label:    domain.SentimentLabel(label),
		Score:    score,
		Provider: ProviderName,
		Raw:      raw,
	}, nil
}

// Ping checks the sentiment API health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call sentiment api health: %w", err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, ProviderName)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	return resp.Body.Close()
}
