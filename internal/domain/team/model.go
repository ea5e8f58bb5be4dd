package team

import (
	"fmt"
	"strings"
)

const (
	LeagueAL = "AL"
	LeagueNL = "NL"
)

// Team is a major league club and its key in the stat provider.
type Team struct {
	ID          int64  `json:"mlbam_team_id" yaml:"mlbam_team_id"`
	Abbrev      string `json:"abbrev" yaml:"abbrev"`
	Name        string `json:"name" yaml:"name"`
	League      string `json:"league" yaml:"league"`
	FangraphsID int64  `json:"fangraphs_team_id" yaml:"fangraphs_team_id"`
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id must be > 0")
	}
	if strings.TrimSpace(t.Abbrev) == "" {
		return fmt.Errorf("team %d abbrev is required", t.ID)
	}
	if _, err := NormalizeLeague(t.League); err != nil || strings.TrimSpace(t.League) == "" {
		return fmt.Errorf("team %d league must be AL or NL", t.ID)
	}

	return nil
}

// NormalizeLeague upper-cases a league filter. An empty input means no filter.
func NormalizeLeague(raw string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case "", LeagueAL, LeagueNL:
		return value, nil
	default:
		return "", fmt.Errorf("invalid league %q: valid values are %s, %s", raw, LeagueAL, LeagueNL)
	}
}
