package domain

import (
	"time"
)

// DefaultSource is stored when a review is submitted without a source.
const DefaultSource = "unknown"

// Review is one customer opinion about a product. Sentiment fields are set
// from the sentiment API when the review is created and never change.
type Review struct {
	ID             int64          `json:"id"`
	ProductName    string         `json:"productName"`
	Source         string         `json:"source"`
	Rating         *float64       `json:"rating"`
	Text           string         `json:"text"`
	SentimentLabel SentimentLabel `json:"sentimentLabel"`
	SentimentScore float64        `json:"sentimentScore"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// CreateReviewInput is what a client submits. Rating is nil when absent or
// not a number.
type CreateReviewInput struct {
	ProductName string
	Source      string
	Rating      *float64
	Text        string
}

// CreateReviewParams is what the store persists: the client input plus the
// derived sentiment. ID and CreatedAt are assigned by the store.
type CreateReviewParams struct {
	ProductName    string
	Source         string
	Rating         *float64
	Text           string
	SentimentLabel SentimentLabel
	SentimentScore float64
}

// NewCreateReviewParams combines input and sentiment.
func NewCreateReviewParams(in CreateReviewInput, result *SentimentResult) *CreateReviewParams {
	return &CreateReviewParams{
		ProductName:    in.ProductName,
		Source:         in.Source,
		Rating:         in.Rating,
		Text:           in.Text,
		SentimentLabel: result.Label,
		SentimentScore: result.Score,
	}
}

// SourceOrDefault returns Source, or DefaultSource when it is empty.
func (p *CreateReviewParams) SourceOrDefault() string {
	if p.Source == "" {
		return DefaultSource
	}
	return p.Source
}
