// Package render turns a review list into the dashboard's text view.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/utafrali/ReviewInsights/services/dashboard/internal/client"
)

// maxTextWidth is how many runes of review text a table row shows.
const maxTextWidth = 60

// Card is one headline figure.
type Card struct {
	Title   string
	Value   string
	Caption string
}

// Row is one line of the reviews table.
type Row struct {
	Product   string
	Source    string
	Rating    string
	Sentiment string
	Text      string
}

// View is everything the dashboard displays.
type View struct {
	Filter      string
	Total       int
	AvgScore    *float64
	PositivePct int
	NeutralPct  int
	NegativePct int
	Cards       []Card
	Rows        []Row
}

// NewView builds the view model for list. Percentages are rounded shares of
// the summary total and are 0 when the total is 0.
func NewView(list *client.ReviewList, filter string) View {
	summary := list.Metrics.SentimentSummary
	v := View{
		Filter:      filter,
		Total:       list.Metrics.TotalReviews,
		AvgScore:    list.Metrics.AvgSentimentScore,
		PositivePct: Percent(summary.Positive, summary.Total),
		NeutralPct:  Percent(summary.Neutral, summary.Total),
		NegativePct: Percent(summary.Negative, summary.Total),
	}

	avg := "n/a"
	if v.AvgScore != nil {
		avg = strconv.FormatFloat(*v.AvgScore, 'f', 2, 64)
	}
	v.Cards = []Card{
		{Title: "Total reviews", Value: strconv.Itoa(v.Total)},
		{Title: "Avg sentiment score", Value: avg, Caption: "from -1 to 1"},
		{
			Title:   "Sentiment",
			Value:   fmt.Sprintf("%d%% positive", v.PositivePct),
			Caption: fmt.Sprintf("%d%% negative", v.NegativePct),
		},
	}

	v.Rows = make([]Row, 0, len(list.Reviews))
	for _, r := range list.Reviews {
		v.Rows = append(v.Rows, Row{
			Product:   r.ProductName,
			Source:    r.Source,
			Rating:    formatRating(r.Rating),
			Sentiment: r.SentimentLabel,
			Text:      truncate(oneLine(r.Text), maxTextWidth),
		})
	}
	return v
}

// Percent returns round(part/total*100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Render writes the cards followed by the reviews table.
func Render(w io.Writer, v View) error {
	title := "Review dashboard"
	if v.Filter != "" {
		title += fmt.Sprintf(" (product contains %q)", v.Filter)
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", title, strings.Repeat("=", len(title))); err != nil {
		return err
	}

	for _, c := range v.Cards {
		line := fmt.Sprintf("%-20s %s", c.Title+":", c.Value)
		if c.Caption != "" {
			line += fmt.Sprintf("  (%s)", c.Caption)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No reviews yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tSOURCE\tRATING\tSENTIMENT\tREVIEW")
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Product, r.Source, r.Rating, r.Sentiment, r.Text)
	}
	return tw.Flush()
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
