// Command dashboard prints review metrics from the review API, submits new
// reviews to it and seeds it with sample data.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/ReviewInsights/pkg/logger"
	"github.com/utafrali/ReviewInsights/services/dashboard/internal/client"
	"github.com/utafrali/ReviewInsights/services/dashboard/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(func(cmd *cobra.Command) (*client.Client, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		log := logger.NewWithWriter("dashboard", cfg.LogLevel, cmd.ErrOrStderr())
		return client.New(cfg.APIURL, cfg.Timeout(), log), nil
	})

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
