package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/utafrali/ReviewInsights/services/dashboard/internal/client"
)

var (
	seedProducts = []string{"Wireless Mouse", "Mechanical Keyboard", "USB-C Hub", "Noise Cancelling Headphones", "Webcam HD"}
	seedSources  = []string{"web", "mobile", "marketplace", "email"}
	seedTexts    = []string{
		"Absolutely love it, works perfectly out of the box.",
		"Great value for the price, would buy again.",
		"It does the job, nothing special.",
		"Arrived on time. Packaging was fine.",
		"Stopped working after two weeks, very disappointed.",
		"Terrible quality, returned it the same day.",
	}
)

func newSeedCmd(newClient clientFactory) *cobra.Command {
	var (
		count   int
		seedVal int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Submit sample reviews through the API",
		Long:  "Submits sample reviews one by one, so each is classified by the sentiment API like a real submission. Stops at the first failure.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			c, err := newClient(cmd)
			if err != nil {
				return fmt.Errorf("build api client: %w", err)
			}
			out := cmd.OutOrStdout()
			n, err := seed(cmd.Context(), c, count, rand.New(rand.NewSource(seedVal)), out)
			if err != nil {
				return fmt.Errorf("seeding stopped after %d reviews: %w", n, err)
			}
			_, err = fmt.Fprintf(out, "Done: %d reviews submitted\n", n)
			return err
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "number of reviews to submit")
	cmd.Flags().Int64Var(&seedVal, "seed", 1, "random seed")
	return cmd
}

// sample draws one review. The same rng seed always yields the same sequence.
func sample(rng *rand.Rand) client.SubmitInput {
	in := client.SubmitInput{
		ProductName: seedProducts[rng.Intn(len(seedProducts))],
		Source:      seedSources[rng.Intn(len(seedSources))],
		Text:        seedTexts[rng.Intn(len(seedTexts))],
	}
	// Roughly one in five reviews has no rating.
	if rng.Intn(5) != 0 {
		r := float64(1 + rng.Intn(5))
		in.Rating = &r
	}
	return in
}

// seed submits count reviews and stops at the first failure.
func seed(ctx context.Context, c *client.Client, count int, rng *rand.Rand, out io.Writer) (int, error) {
	for i := 0; i < count; i++ {
		review, err := c.SubmitReview(ctx, sample(rng))
		if err != nil {
			return i, fmt.Errorf("review %d of %d: %w", i+1, count, err)
		}
		if _, err := fmt.Fprintf(out, "  #%d %-28s %-8s %s\n", review.ID, review.ProductName, review.SentimentLabel, review.Source); err != nil {
			return i + 1, err
		}
	}
	return count, nil
}
