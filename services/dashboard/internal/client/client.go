package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/utafrali/ReviewInsights/pkg/httpclient"
)

// serviceName prefixes errors reported by the review API.
const serviceName = "review-api"

// Review is a stored review as returned by the review API.
type Review struct {
	ID             int64     `json:"id"`
	ProductName    string    `json:"productName"`
	Source         string    `json:"source"`
	Rating         *float64  `json:"rating"`
	Text           string    `json:"text"`
	SentimentLabel string    `json:"sentimentLabel"`
	SentimentScore float64   `json:"sentimentScore"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SentimentSummary counts reviews per sentiment label.
type SentimentSummary struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Total    int `json:"total"`
}

// Metrics aggregates a review list.
type Metrics struct {
	TotalReviews      int              `json:"totalReviews"`
	AvgSentimentScore *float64         `json:"avgSentimentScore"`
	SentimentSummary  SentimentSummary `json:"sentimentSummary"`
}

// ReviewList is the body of GET /api/reviews.
type ReviewList struct {
	Reviews []Review `json:"reviews"`
	Metrics Metrics  `json:"metrics"`
}

// SubmitInput is the body of POST /api/reviews.
type SubmitInput struct {
	ProductName string   `json:"productName"`
	Source      string   `json:"source,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Text        string   `json:"text"`
}

// Client talks to the review API.
type Client struct {
	baseURL string
	http    httpclient.Doer
	logger  *slog.Logger
}

// New creates a client for the review API at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return NewWithDoer(baseURL, httpclient.New(httpclient.Config{
		Timeout:         timeout,
		MaxConnsPerHost: 4,
		UserAgent:       "review-insights-dashboard",
	}), logger)
}

// NewWithDoer creates a client on an existing Doer.
func NewWithDoer(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// FetchReviews lists reviews and metrics, filtered by product when it is non-empty.
func (c *Client) FetchReviews(ctx context.Context, product string) (*ReviewList, error) {
	endpoint := c.baseURL + "/api/reviews"
	if product != "" {
		endpoint += "?" + url.Values{"product": {product}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}

	var list ReviewList
	if err := c.do(ctx, req, http.StatusOK, &list); err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	if list.Reviews == nil {
		list.Reviews = []Review{}
	}
	return &list, nil
}

// SubmitReview creates a review and returns it as stored.
func (c *Client) SubmitReview(ctx context.Context, input SubmitInput) (*Review, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reviews", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var review Review
	if err := c.do(ctx, req, http.StatusCreated, &review); err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}

	c.logger.DebugContext(ctx, "review submitted",
		slog.Int64("review_id", review.ID),
		slog.String("sentiment_label", review.SentimentLabel),
	)
	return &review, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, want int, out any) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", serviceName, err)
	}
	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		c.logger.WarnContext(ctx, "unexpected status from review API",
			slog.Int("status", resp.StatusCode),
			slog.Int("want", want),
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", serviceName, err)
	}
	return nil
}
