package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/domain/team"
)

const (
	defaultMaxWorkers = 10
	defaultChunkSize  = 200
)

// DownloadConfig holds the run-level options of one season download.
type DownloadConfig struct {
	Season        int           `validate:"gte=1871,lte=2100"`
	OutputDir     string        `validate:"required_without=OutputFile"`
	OutputFile    string        `validate:"omitempty"`
	League        string        `validate:"omitempty,oneof=AL NL"`
	PlayerType    string        `validate:"omitempty,oneof=none pitchers batters"`
	TeamIDs       []int64       `validate:"dive,gt=0"`
	MaxWorkers    int           `validate:"gte=1,lte=256"`
	RetryAttempts int           `validate:"gte=1,lte=20"`
	RetryDelay    time.Duration `validate:"gte=0s"`
	ChunkSize     int           `validate:"gte=1"`
	// Aggregate requests one unscoped row per player instead of one per team stint.
	Aggregate bool
	RunID     string
}

func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		OutputDir:     ".",
		PlayerType:    string(seasonstats.PlayerTypeNone),
		MaxWorkers:    defaultMaxWorkers,
		RetryAttempts: defaultRetryAttempts,
		RetryDelay:    defaultRetryDelay,
		ChunkSize:     defaultChunkSize,
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

func (c DownloadConfig) normalize() DownloadConfig {
	c.League = strings.ToUpper(strings.TrimSpace(c.League))
	c.PlayerType = strings.ToLower(strings.TrimSpace(c.PlayerType))
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	c.OutputFile = strings.TrimSpace(c.OutputFile)
	return c
}

// Validate reports every invalid field as ErrInvalidConfig.
func (c DownloadConfig) Validate() error {
	c = c.normalize()
	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if crerr.As(err, &fieldErrs) {
			parts := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				parts = append(parts, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return crerr.Wrapf(ErrInvalidConfig, "%s", strings.Join(parts, "; "))
		}
		return crerr.Wrapf(ErrInvalidConfig, "%v", err)
	}
	return nil
}

func (c DownloadConfig) playerType() seasonstats.PlayerType {
	playerType, err := seasonstats.ParsePlayerType(c.PlayerType)
	if err != nil {
		return seasonstats.PlayerTypeNone
	}
	return playerType
}

func (c DownloadConfig) retryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: c.RetryAttempts, Delay: c.RetryDelay}
}

// OutputPath is OutputFile when set, otherwise stats_<season>[_<league>][_<type>].csv under OutputDir.
func (c DownloadConfig) OutputPath() string {
	c = c.normalize()
	if c.OutputFile != "" {
		return c.OutputFile
	}

	parts := []string{fmt.Sprintf("stats_%d", c.Season)}
	if c.League == team.LeagueAL || c.League == team.LeagueNL {
		parts = append(parts, strings.ToLower(c.League))
	}
	switch c.playerType() {
	case seasonstats.PlayerTypePitchers, seasonstats.PlayerTypeBatters:
		parts = append(parts, string(c.playerType()))
	}

	return filepath.Join(c.OutputDir, strings.Join(parts, "_")+".csv")
}

// resolveTeams picks explicit teams, a league, or the whole registry, in that order.
// Explicit teams combined with a league keep only that league's clubs.
func (c DownloadConfig) resolveTeams(ctx context.Context, teams team.Repository) ([]seasonstats.TeamID, error) {
	c = c.normalize()

	var leagueTeams map[int64]struct{}
	var registry []team.Team
	var err error
	if c.League != "" {
		registry, err = teams.ListByLeague(ctx, c.League)
		if err != nil {
			return nil, fmt.Errorf("list teams by league: %w", err)
		}
		if len(registry) == 0 {
			return nil, crerr.Wrapf(ErrInvalidConfig, "no teams found for league=%s", c.League)
		}
		leagueTeams = make(map[int64]struct{}, len(registry))
		for _, item := range registry {
			leagueTeams[item.ID] = struct{}{}
		}
	} else if len(c.TeamIDs) == 0 {
		registry, err = teams.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list teams: %w", err)
		}
		if len(registry) == 0 {
			return nil, crerr.Wrapf(ErrInvalidConfig, "team registry is empty")
		}
	}

	if len(c.TeamIDs) == 0 {
		out := make([]seasonstats.TeamID, 0, len(registry))
		for _, item := range registry {
			out = append(out, seasonstats.TeamID(item.ID))
		}
		return out, nil
	}

	seen := make(map[int64]struct{}, len(c.TeamIDs))
	out := make([]seasonstats.TeamID, 0, len(c.TeamIDs))
	for _, id := range c.TeamIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if leagueTeams != nil {
			if _, ok := leagueTeams[id]; !ok {
				continue
			}
		}
		out = append(out, seasonstats.TeamID(id))
	}
	if len(out) == 0 {
		return nil, crerr.Wrapf(ErrInvalidConfig, "none of teams %v belong to league=%s", c.TeamIDs, c.League)
	}
	return out, nil
}

func ensureOutputDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return crerr.Wrapf(ErrInvalidConfig, "create output dir %s: %v", dir, err)
	}
	return nil
}
