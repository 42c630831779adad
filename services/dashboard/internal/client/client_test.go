package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ReviewInsights/pkg/errors"
	"github.com/utafrali/ReviewInsights/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 2*time.Second, logger.NewDiscard())
}

func TestFetchReviews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/reviews", r.URL.Path)
		assert.Equal(t, "wireless mouse", r.URL.Query().Get("product"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"reviews": [{"id": 1, "productName": "Wireless Mouse", "source": "web", "rating": null,
				"text": "great", "sentimentLabel": "positive", "sentimentScore": 0.8,
				"createdAt": "2026-01-02T03:04:05Z"}],
			"metrics": {"totalReviews": 1, "avgSentimentScore": 0.8,
				"sentimentSummary": {"positive": 1, "neutral": 0, "negative": 0, "total": 1}}
		}`))
	})

	list, err := c.FetchReviews(context.Background(), "wireless mouse")
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, "Wireless Mouse", list.Reviews[0].ProductName)
	assert.Nil(t, list.Reviews[0].Rating)
	assert.Equal(t, 1, list.Metrics.TotalReviews)
	require.NotNil(t, list.Metrics.AvgSentimentScore)
	assert.Equal(t, 0.8, *list.Metrics.AvgSentimentScore)
}

func TestFetchReviews_NoFilterOmitsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"reviews": null, "metrics": {"totalReviews": 0, "avgSentimentScore": null,
			"sentimentSummary": {"positive": 0, "neutral": 0, "negative": 0, "total": 0}}}`))
	})

	list, err := c.FetchReviews(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, list.Reviews)
	assert.Empty(t, list.Reviews)
	assert.Nil(t, list.Metrics.AvgSentimentScore)
}

func TestFetchReviews_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "review storage is unavailable", "code": "STORAGE_UNAVAILABLE"}`))
	})

	_, err := c.FetchReviews(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review storage is unavailable")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "STORAGE_UNAVAILABLE", appErr.Code)
}

func TestFetchReviews_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, logger.NewDiscard())

	_, err := c.FetchReviews(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestSubmitReview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Mouse", in["productName"])
		assert.Equal(t, "great", in["text"])
		assert.Equal(t, 5.0, in["rating"])
		assert.NotContains(t, in, "source")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 7, "productName": "Mouse", "source": "unknown", "rating": 5,
			"text": "great", "sentimentLabel": "positive", "sentimentScore": 0.9,
			"createdAt": "2026-01-02T03:04:05Z"}`))
	})

	rating := 5.0
	review, err := c.SubmitReview(context.Background(), SubmitInput{ProductName: "Mouse", Text: "great", Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, int64(7), review.ID)
	assert.Equal(t, "unknown", review.Source)
	assert.Equal(t, "positive", review.SentimentLabel)
}

func TestSubmitReview_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "productName and text are required", "code": "INVALID_INPUT"}`))
	})

	_, err := c.SubmitReview(context.Background(), SubmitInput{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "productName and text are required")
}

func TestSubmitReview_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.SubmitReview(context.Background(), SubmitInput{ProductName: "Mouse", Text: "great"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}
