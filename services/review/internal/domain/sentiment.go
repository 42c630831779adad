package domain

// SentimentLabel is the polarity assigned by the sentiment API.
type SentimentLabel string

// Known sentiment labels.
const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// IsKnown reports whether l is one of the three labels counted in metrics.
// Any other value is stored as received and ignored by CalculateMetrics.
func (l SentimentLabel) IsKnown() bool {
	switch l {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// SentimentResult is a successful classification of one text.
type SentimentResult struct {
	Label    SentimentLabel `json:"label"`
	Score    float64        `json:"score"`
	Provider string         `json:"provider"`
	Raw      map[string]any `json:"raw,omitempty"`
}
