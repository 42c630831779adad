package domain

import "math"

// SentimentSummary is the label histogram. Total is the number of reviews
// considered, so the three counts sum to at most Total.
type SentimentSummary struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Total    int `json:"total"`
}

// MetricsSummary aggregates a set of reviews. AvgSentimentScore is nil when
// no review has a finite score.
type MetricsSummary struct {
	TotalReviews      int              `json:"totalReviews"`
	AvgSentimentScore *float64         `json:"avgSentimentScore"`
	SentimentSummary  SentimentSummary `json:"sentimentSummary"`
}

// CalculateMetrics computes the summary for reviews. NaN and infinite scores
// are left out of the average; unknown labels are left out of the histogram.
func CalculateMetrics(reviews []Review) MetricsSummary {
	m := MetricsSummary{
		TotalReviews:     len(reviews),
		SentimentSummary: SentimentSummary{Total: len(reviews)},
	}

	var (
		sum    float64
		scored int
	)
	for i := range reviews {
		r := &reviews[i]
		if isFinite(r.SentimentScore) {
			sum += r.SentimentScore
			scored++
		}
		switch r.SentimentLabel {
		case SentimentPositive:
			m.SentimentSummary.Positive++
		case SentimentNeutral:
			m.SentimentSummary.Neutral++
		case SentimentNegative:
			m.SentimentSummary.Negative++
		}
	}

	if scored > 0 {
		avg := sum / float64(scored)
		m.AvgSentimentScore = &avg
	}
	return m
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
