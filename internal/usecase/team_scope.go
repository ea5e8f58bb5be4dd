package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/domain/team"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
)

// TeamMultiplicityResolver turns the clubs a player appeared for into provider
// team scopes, so a traded player yields one row per stint.
type TeamMultiplicityResolver struct {
	teams  team.Repository
	logger *logging.Logger
}

func NewTeamMultiplicityResolver(teams team.Repository, logger *logging.Logger) *TeamMultiplicityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamMultiplicityResolver{teams: teams, logger: logger}
}

// Scopes keeps the identity's team order and drops duplicates and clubs the
// registry does not know. An empty result means a single unscoped fetch.
func (r *TeamMultiplicityResolver) Scopes(ctx context.Context, identity seasonstats.Identity) ([]seasonstats.TeamScope, error) {
	if len(identity.Teams) == 0 {
		return nil, nil
	}

	seen := make(map[seasonstats.TeamID]struct{}, len(identity.Teams))
	out := make([]seasonstats.TeamScope, 0, len(identity.Teams))
	for _, teamID := range identity.Teams {
		if teamID <= 0 {
			continue
		}
		if _, ok := seen[teamID]; ok {
			continue
		}
		seen[teamID] = struct{}{}

		item, ok, err := r.teams.GetByID(ctx, int64(teamID))
		if err != nil {
			return nil, fmt.Errorf("%w: lookup team %d: %v", ErrDependencyUnavailable, teamID, err)
		}
		if !ok || item.FangraphsID <= 0 {
			r.logger.DebugContext(ctx, "team has no provider scope, skipping", "player_id", identity.PlayerID, "team_id", teamID)
			continue
		}

		out = append(out, seasonstats.TeamScope{
			TeamID:  teamID,
			ScopeID: seasonstats.ScopeID(item.FangraphsID),
		})
	}

	return out, nil
}
