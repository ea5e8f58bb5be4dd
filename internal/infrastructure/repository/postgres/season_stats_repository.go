package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	qb "github.com/riskibarqy/season-stats/internal/platform/querybuilder"
)

const seasonPlayerStatsTable = "season_player_stats"

// aggregateTeamID keys rows fetched without a team scope.
const aggregateTeamID int64 = 0

var seasonPlayerStatsUpsertSuffix = `ON CONFLICT (mlbam_id, season, mlbam_team_id)
DO UPDATE SET ` + qb.ExcludedAssignments("stats", "run_id") + `,
    updated_at = NOW()`

// SeasonStatsRepository mirrors flushed stat rows into Postgres. It satisfies
// seasonstats.Sink so it can sit next to the CSV file.
type SeasonStatsRepository struct {
	db    *sqlx.DB
	runID string
}

func NewSeasonStatsRepository(db *sqlx.DB, runID string) *SeasonStatsRepository {
	return &SeasonStatsRepository{db: db, runID: runID}
}

func (r *SeasonStatsRepository) Flush(ctx context.Context, rows []seasonstats.StatRecord, _ string, _ bool) error {
	return r.UpsertMany(ctx, rows)
}

func (r *SeasonStatsRepository) UpsertMany(ctx context.Context, rows []seasonstats.StatRecord) error {
	if len(rows) == 0 {
		return nil
	}

	statements, err := buildSeasonStatsUpserts(rows, r.runID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert season stats: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("upsert season stats rows=%d: %w", stmt.rows, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert season stats tx: %w", err)
	}
	return nil
}

type seasonPlayerStatInsertModel struct {
	MLBAMID     int64  `db:"mlbam_id"`
	Season      int64  `db:"season"`
	MLBAMTeamID int64  `db:"mlbam_team_id"`
	Stats       string `db:"stats"`
	RunID       string `db:"run_id"`
}

type upsertStatement struct {
	query string
	args  []any
	rows  int
}

// buildSeasonStatsUpserts keeps the last row per key, since one statement may
// not touch the same conflict target twice, and splits by the bind limit.
func buildSeasonStatsUpserts(rows []seasonstats.StatRecord, runID string) ([]upsertStatement, error) {
	type key struct{ player, season, team int64 }

	order := make([]key, 0, len(rows))
	models := make(map[key]seasonPlayerStatInsertModel, len(rows))
	for idx, row := range rows {
		model, err := toSeasonPlayerStatModel(row, runID)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", idx, err)
		}
		k := key{model.MLBAMID, model.Season, model.MLBAMTeamID}
		if _, ok := models[k]; !ok {
			order = append(order, k)
		}
		models[k] = model
	}

	perStatement := qb.MaxParams / 5
	statements := make([]upsertStatement, 0, len(order)/perStatement+1)
	for start := 0; start < len(order); start += perStatement {
		end := min(start+perStatement, len(order))
		batch := make([]any, 0, end-start)
		for _, k := range order[start:end] {
			batch = append(batch, models[k])
		}

		query, args, err := qb.InsertModels(seasonPlayerStatsTable, batch, seasonPlayerStatsUpsertSuffix)
		if err != nil {
			return nil, fmt.Errorf("build upsert season stats query: %w", err)
		}
		statements = append(statements, upsertStatement{query: query, args: args, rows: len(batch)})
	}
	return statements, nil
}

func toSeasonPlayerStatModel(row seasonstats.StatRecord, runID string) (seasonPlayerStatInsertModel, error) {
	playerID, ok := asInt64(row[seasonstats.FieldMLBAMID])
	if !ok || playerID <= 0 {
		return seasonPlayerStatInsertModel{}, fmt.Errorf("missing %s", seasonstats.FieldMLBAMID)
	}
	season, ok := asInt64(row[seasonstats.FieldSeason])
	if !ok || season <= 0 {
		return seasonPlayerStatInsertModel{}, fmt.Errorf("missing %s", seasonstats.FieldSeason)
	}
	teamID, ok := asInt64(row[seasonstats.FieldMLBAMTeamID])
	if !ok {
		teamID = aggregateTeamID
	}

	stats := make(map[string]any, len(row))
	for column, value := range row {
		if column == seasonstats.FieldMLBAMID || column == seasonstats.FieldSeason || column == seasonstats.FieldMLBAMTeamID {
			continue
		}
		// NaN has no JSON form
		if !row.Present(column) {
			continue
		}
		stats[column] = value
	}
	payload, err := sonic.MarshalString(stats)
	if err != nil {
		return seasonPlayerStatInsertModel{}, fmt.Errorf("encode stats mlbam_id=%d: %w", playerID, err)
	}

	return seasonPlayerStatInsertModel{
		MLBAMID:     playerID,
		Season:      season,
		MLBAMTeamID: teamID,
		Stats:       payload,
		RunID:       runID,
	}, nil
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), v == float64(int64(v))
	default:
		return 0, false
	}
}
