package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/utafrali/ReviewInsights/services/dashboard/internal/client"
	"github.com/utafrali/ReviewInsights/services/dashboard/internal/render"
)

// clientFactory builds the API client once flags are parsed.
type clientFactory func(cmd *cobra.Command) (*client.Client, error)

type options struct {
	product string
	submit  bool
	text    string
	source  string
	rating  string
}

// submitInput builds the request body. A rating that is not a number is sent
// as absent, which the API stores as null.
func (o options) submitInput() client.SubmitInput {
	in := client.SubmitInput{ProductName: o.product, Source: o.source, Text: o.text}
	if r, err := strconv.ParseFloat(o.rating, 64); err == nil {
		in.Rating = &r
	}
	return in
}

func newRootCmd(newClient clientFactory) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Show review metrics and submit reviews",
		Long:         "Renders sentiment metrics and the review table from the review API. With --submit, creates a review first and then refreshes.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.submit && (opts.product == "" || opts.text == "") {
				return errors.New("--submit requires --product and --text")
			}
			c, err := newClient(cmd)
			if err != nil {
				return fmt.Errorf("build api client: %w", err)
			}
			return run(cmd, opts, c, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.product, "product", "", "product name filter, or the product to review with --submit")
	cmd.Flags().BoolVar(&opts.submit, "submit", false, "submit a review before rendering")
	cmd.Flags().StringVar(&opts.text, "text", "", "review text (with --submit)")
	cmd.Flags().StringVar(&opts.source, "source", "", "where the review came from (with --submit)")
	cmd.Flags().StringVar(&opts.rating, "rating", "", "numeric rating (with --submit)")

	cmd.AddCommand(newSeedCmd(newClient))
	return cmd
}

func run(cmd *cobra.Command, opts options, c *client.Client, out io.Writer) error {
	ctx := cmd.Context()

	filter := opts.product
	if opts.submit {
		review, err := c.SubmitReview(ctx, opts.submitInput())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "Submitted review #%d (%s, score %.2f)\n\n", review.ID, review.SentimentLabel, review.SentimentScore); err != nil {
			return err
		}
		filter = ""
	}

	list, err := c.FetchReviews(ctx, filter)
	if err != nil {
		return err
	}
	return render.Render(out, render.NewView(list, filter))
}
