package mlbstats

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/usecase"
)

const (
	positionPitcher = "P"
	positionTwoWay  = "TWP"
)

type peopleEnvelope struct {
	People []person `json:"people"`
}

type person struct {
	ID              int64  `json:"id"`
	FullName        string `json:"fullName"`
	PrimaryPosition struct {
		Abbreviation string `json:"abbreviation"`
		Code         string `json:"code"`
	} `json:"primaryPosition"`
	Stats []struct {
		Splits []struct {
			Team *struct {
				ID int64 `json:"id"`
			} `json:"team"`
		} `json:"splits"`
	} `json:"stats"`
}

// Resolve reads the player's primary position and the clubs that carry a
// season split for him, in response order.
func (c *Client) Resolve(ctx context.Context, playerID seasonstats.PlayerID, season int) (seasonstats.Identity, seasonstats.Outcome) {
	if playerID <= 0 || season <= 0 {
		return seasonstats.Identity{}, usecase.OutcomeFromError(fmt.Errorf("%w: player_id=%d season=%d", usecase.ErrInvalidInput, playerID, season))
	}

	query := url.Values{}
	query.Set("hydrate", fmt.Sprintf("stats(group=[hitting,pitching],type=[season],team,season=%d)", season))

	var envelope peopleEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/people/%d", playerID), query, &envelope); err != nil {
		return seasonstats.Identity{}, usecase.OutcomeFromError(fmt.Errorf("resolve player_id=%d: %w", playerID, err))
	}
	if len(envelope.People) == 0 {
		return seasonstats.Identity{}, usecase.OutcomeFromError(fmt.Errorf("%w: player_id=%d", usecase.ErrNotFound, playerID))
	}

	p := envelope.People[0]
	return seasonstats.Identity{
		PlayerID: playerID,
		Name:     strings.TrimSpace(p.FullName),
		Role:     roleFromPosition(p.PrimaryPosition.Abbreviation),
		Teams:    p.seasonTeams(),
	}, seasonstats.Success()
}

func roleFromPosition(abbreviation string) seasonstats.PlayerRole {
	switch strings.ToUpper(strings.TrimSpace(abbreviation)) {
	case positionPitcher:
		return seasonstats.RolePitcher
	case positionTwoWay:
		return seasonstats.RoleTwoWay
	case "":
		return seasonstats.RoleUnknown
	default:
		return seasonstats.RoleBatter
	}
}

func (p person) seasonTeams() []seasonstats.TeamID {
	seen := make(map[int64]struct{}, 2)
	var out []seasonstats.TeamID
	for _, group := range p.Stats {
		for _, split := range group.Splits {
			// splits without a team are the season aggregate
			if split.Team == nil || split.Team.ID <= 0 {
				continue
			}
			if _, ok := seen[split.Team.ID]; ok {
				continue
			}
			seen[split.Team.ID] = struct{}{}
			out = append(out, seasonstats.TeamID(split.Team.ID))
		}
	}
	return out
}
