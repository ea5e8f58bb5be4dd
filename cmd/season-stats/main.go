// Command season-stats downloads one MLB season's player stat lines into a CSV file.
//
// Usage:
//
//	season-stats download --season 2024
//	season-stats download --season 2024 --league AL --player-type pitchers
//	season-stats download --season 2023 --teams 147,121 --aggregate
//	season-stats teams --league NL
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/season-stats/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "season-stats",
		Short:         "Bulk season stat downloader for MLB rosters",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				return config.LoadDotEnv(envFile)
			}
			return config.LoadDotEnv()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load before reading configuration (default .env)")

	root.AddCommand(downloadCmd())
	root.AddCommand(teamsCmd())
	return root
}
