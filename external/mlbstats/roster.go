package mlbstats

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/usecase"
)

type rosterEnvelope struct {
	Roster []rosterEntry `json:"roster"`
}

type rosterEntry struct {
	Person struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
	} `json:"person"`
}

// GetRoster returns every player on the club's full-season roster in response order.
func (c *Client) GetRoster(ctx context.Context, teamID seasonstats.TeamID, season int) ([]seasonstats.PlayerID, error) {
	if teamID <= 0 || season <= 0 {
		return nil, fmt.Errorf("%w: team_id=%d season=%d", usecase.ErrInvalidInput, teamID, season)
	}

	query := url.Values{}
	query.Set("season", strconv.Itoa(season))
	query.Set("rosterType", "fullSeason")

	var envelope rosterEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/teams/%d/roster", teamID), query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch roster team_id=%d season=%d: %w", teamID, season, err)
	}

	out := make([]seasonstats.PlayerID, 0, len(envelope.Roster))
	for _, entry := range envelope.Roster {
		if entry.Person.ID <= 0 {
			continue
		}
		out = append(out, seasonstats.PlayerID(entry.Person.ID))
	}
	return out, nil
}
