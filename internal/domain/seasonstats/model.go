package seasonstats

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type PlayerID int64

type TeamID int64

// ScopeID is the provider-side team key a stat request is scoped to.
type ScopeID int64

type TeamScope struct {
	TeamID  TeamID
	ScopeID ScopeID
}

type PlayerRole string

const (
	RoleUnknown PlayerRole = ""
	RolePitcher PlayerRole = "pitcher"
	RoleBatter  PlayerRole = "batter"
	// RoleTwoWay players are fetched as pitchers only under a pitchers filter.
	RoleTwoWay PlayerRole = "two_way"
)

// PlayerType is the run-level role filter. The zero value admits every role.
type PlayerType string

const (
	PlayerTypeNone     PlayerType = "none"
	PlayerTypePitchers PlayerType = "pitchers"
	PlayerTypeBatters  PlayerType = "batters"
)

func ParsePlayerType(raw string) (PlayerType, error) {
	switch value := strings.ToLower(strings.TrimSpace(raw)); value {
	case "", string(PlayerTypeNone):
		return PlayerTypeNone, nil
	case string(PlayerTypePitchers), string(PlayerTypeBatters):
		return PlayerType(value), nil
	default:
		return "", fmt.Errorf("invalid player type %q: valid values are none, pitchers, batters", raw)
	}
}

func (t PlayerType) Admits(role PlayerRole) bool {
	switch t {
	case PlayerTypePitchers:
		return role == RolePitcher || role == RoleTwoWay
	case PlayerTypeBatters:
		return role == RoleBatter || role == RoleTwoWay
	default:
		return true
	}
}

// FetchRole picks the stat group requested for an admitted role.
func (t PlayerType) FetchRole(role PlayerRole) PlayerRole {
	switch role {
	case RolePitcher:
		return RolePitcher
	case RoleTwoWay:
		if t == PlayerTypePitchers {
			return RolePitcher
		}
		return RoleBatter
	default:
		return RoleBatter
	}
}

// Identity is what the resolver knows about a player for one season.
type Identity struct {
	PlayerID PlayerID
	Name     string
	Role     PlayerRole
	Teams    []TeamID
}

const (
	FieldMLBAMID     = "mlbam_id"
	FieldSeason      = "season"
	FieldMLBAMTeamID = "mlbam_team_id"
)

var annotationFields = []string{FieldMLBAMID, FieldSeason, FieldMLBAMTeamID}

// StatRecord is one flat output row keyed by column name.
type StatRecord map[string]any

// Annotate returns a copy of r carrying the coordinator-owned columns.
// Provider values for those columns are always overwritten.
func (r StatRecord) Annotate(playerID PlayerID, season int, scope *TeamScope) StatRecord {
	out := make(StatRecord, len(r)+3)
	for key, value := range r {
		out[key] = value
	}
	out[FieldMLBAMID] = int64(playerID)
	out[FieldSeason] = season
	if scope != nil {
		out[FieldMLBAMTeamID] = int64(scope.TeamID)
	} else {
		delete(out, FieldMLBAMTeamID)
	}
	return out
}

// Columns returns the record's columns in canonical order.
func (r StatRecord) Columns() []string {
	set := make(map[string]struct{}, len(r))
	for key := range r {
		set[key] = struct{}{}
	}
	return OrderColumns(set)
}

// OrderColumns sorts provider columns by name and appends the annotation columns present.
func OrderColumns(set map[string]struct{}) []string {
	cols := make([]string, 0, len(set))
	for key := range set {
		if isAnnotationField(key) {
			continue
		}
		cols = append(cols, key)
	}
	sort.Strings(cols)
	for _, key := range annotationFields {
		if _, ok := set[key]; ok {
			cols = append(cols, key)
		}
	}
	return cols
}

// Present reports whether the column holds a usable value.
func (r StatRecord) Present(column string) bool {
	value, ok := r[column]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case float64:
		return !math.IsNaN(v)
	case float32:
		return !math.IsNaN(float64(v))
	}
	return true
}

func isAnnotationField(key string) bool {
	for _, field := range annotationFields {
		if key == field {
			return true
		}
	}
	return false
}
