package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/season-stats/internal/app"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/usecase"
)

func downloadCmd() *cobra.Command {
	dl := usecase.DefaultDownloadConfig()
	var teamsFile string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every rostered player's season stats into one CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), teamsFile, func(ctx context.Context, runtime *app.Runtime, logger *logging.Logger) error {
				result, err := runtime.Download(ctx, dl)
				if result.Ledger != nil {
					fmt.Fprint(cmd.OutOrStdout(), result.Summary())
				}
				if err != nil {
					logger.ErrorContext(ctx, "season download failed", "season", dl.Season, "error", err)
					return err
				}
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&dl.Season, "season", 0, "Season year to download")
	flags.StringVar(&dl.OutputDir, "output-dir", dl.OutputDir, "Directory for the generated stats_<season>.csv")
	flags.StringVar(&dl.OutputFile, "output-file", "", "Explicit output file, overrides --output-dir naming")
	flags.StringVar(&dl.League, "league", "", "Restrict to one league (AL or NL)")
	flags.StringVar(&dl.PlayerType, "player-type", dl.PlayerType, "Player filter: none, pitchers or batters")
	flags.Int64SliceVar(&dl.TeamIDs, "teams", nil, "Comma separated MLBAM team ids")
	flags.IntVar(&dl.MaxWorkers, "max-workers", dl.MaxWorkers, "Concurrent player tasks")
	flags.IntVar(&dl.RetryAttempts, "retry-attempts", dl.RetryAttempts, "Attempts per provider call on transient failures")
	flags.DurationVar(&dl.RetryDelay, "retry-delay", dl.RetryDelay, "Pause between attempts")
	flags.IntVar(&dl.ChunkSize, "chunk-size", dl.ChunkSize, "Rows buffered before each flush")
	flags.BoolVar(&dl.Aggregate, "aggregate", false, "Fetch one season aggregate row per player instead of one row per club")
	flags.StringVar(&dl.RunID, "run-id", "", "Run id recorded in logs and the Postgres mirror (default random)")
	flags.StringVar(&teamsFile, "teams-file", "", "JSON or YAML team registry replacing the built-in one")
	_ = cmd.MarkFlagRequired("season")

	return cmd
}
