package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/season-stats/internal/app"
	"github.com/riskibarqy/season-stats/internal/domain/team"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
)

func teamsCmd() *cobra.Command {
	var league, teamsFile string

	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Print the team registry used to resolve --teams and --league",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			normalized, err := team.NormalizeLeague(league)
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), teamsFile, func(ctx context.Context, runtime *app.Runtime, _ *logging.Logger) error {
				var teams []team.Team
				if normalized == "" {
					teams, err = runtime.Teams().ListAll(ctx)
				} else {
					teams, err = runtime.Teams().ListByLeague(ctx, normalized)
				}
				if err != nil {
					return err
				}
				printTeams(cmd.OutOrStdout(), teams)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&league, "league", "", "Only list one league (AL or NL)")
	cmd.Flags().StringVar(&teamsFile, "teams-file", "", "JSON or YAML team registry replacing the built-in one")
	return cmd
}

func printTeams(w io.Writer, teams []team.Team) {
	fmt.Fprintf(w, "%-6s %-6s %-3s %-9s %s\n", "ID", "ABBREV", "LG", "FANGRAPHS", "NAME")
	for _, item := range teams {
		fmt.Fprintf(w, "%-6d %-6s %-3s %-9d %s\n", item.ID, item.Abbrev, item.League, item.FangraphsID, item.Name)
	}
}
