package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/domain/team"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

type DownloadState string

const (
	StateInit             DownloadState = "init"
	StateGatheringRosters DownloadState = "gathering_rosters"
	StateDispatching      DownloadState = "dispatching"
	StateDraining         DownloadState = "draining"
	StateFlushing         DownloadState = "flushing"
	StateDone             DownloadState = "done"
)

type SeasonStatsDownloaderDeps struct {
	Teams      team.Repository
	Rosters    seasonstats.RosterSource
	Identities seasonstats.IdentityResolver
	Stats      seasonstats.StatRecordFetcher
	Sink       seasonstats.Sink
	Recorder   Recorder
	Logger     *logging.Logger
}

// SeasonStatsDownloader fans one season's roster players out over a worker pool
// and streams their stat rows to a sink in chunks.
type SeasonStatsDownloader struct {
	cfg        DownloadConfig
	playerType seasonstats.PlayerType
	retry      RetryPolicy
	outputPath string
	teamIDs    []seasonstats.TeamID
	runID      string

	rosters    seasonstats.RosterSource
	identities seasonstats.IdentityResolver
	stats      seasonstats.StatRecordFetcher
	sink       seasonstats.Sink
	scopes     *TeamMultiplicityResolver
	recorder   Recorder
	logger     *logging.Logger
}

type DownloadResult struct {
	RunID             string
	Season            int
	OutputPath        string
	TeamsRequested    int
	TeamsFailed       []seasonstats.TeamID
	PlayersDispatched int
	RowsWritten       int
	Flushes           int
	Ledger            *RunStatusLedger
	Elapsed           time.Duration
}

type playerTaskResult struct {
	playerID seasonstats.PlayerID
	outcome  seasonstats.Outcome
	rows     []seasonstats.StatRecord
	attempts int
	elapsed  time.Duration
}

type flushState struct {
	headerWritten bool
	rowsWritten   int
	flushes       int
	err           error
}

// NewSeasonStatsDownloader performs the Init step: it validates cfg, resolves
// the team list and creates the output directory. Only ErrInvalidConfig and
// registry failures are returned.
func NewSeasonStatsDownloader(ctx context.Context, cfg DownloadConfig, deps SeasonStatsDownloaderDeps) (*SeasonStatsDownloader, error) {
	if deps.Teams == nil || deps.Rosters == nil || deps.Identities == nil || deps.Stats == nil || deps.Sink == nil {
		return nil, crerr.Wrapf(ErrInvalidConfig, "downloader dependencies are not fully configured")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalize()

	teamIDs, err := cfg.resolveTeams(ctx, deps.Teams)
	if err != nil {
		return nil, err
	}

	outputPath := cfg.OutputPath()
	if err := ensureOutputDir(outputPath); err != nil {
		return nil, err
	}

	runID := strings.TrimSpace(cfg.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("run_id", runID, "season", cfg.Season)

	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &SeasonStatsDownloader{
		cfg:        cfg,
		playerType: cfg.playerType(),
		retry:      cfg.retryPolicy(),
		outputPath: outputPath,
		teamIDs:    teamIDs,
		runID:      runID,
		rosters:    deps.Rosters,
		identities: deps.Identities,
		stats:      deps.Stats,
		sink:       deps.Sink,
		scopes:     NewTeamMultiplicityResolver(deps.Teams, logger),
		recorder:   recorder,
		logger:     logger,
	}, nil
}

func (d *SeasonStatsDownloader) OutputPath() string {
	return d.outputPath
}

func (d *SeasonStatsDownloader) RunID() string {
	return d.runID
}

// Download runs to completion of the dispatched players. Per-player failures
// only land in the ledger. A cancelled ctx stops dispatch, records the rest as
// errors and still flushes what was collected; the returned error is then ctx.Err().
func (d *SeasonStatsDownloader) Download(ctx context.Context) (DownloadResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonStatsDownloader.Download",
		attribute.Int("season", d.cfg.Season),
		attribute.String("run_id", d.runID),
	)
	defer span.End()

	start := time.Now()
	ledger := NewRunStatusLedger()
	result := DownloadResult{
		RunID:          d.runID,
		Season:         d.cfg.Season,
		OutputPath:     d.outputPath,
		TeamsRequested: len(d.teamIDs),
		Ledger:         ledger,
	}

	d.enter(ctx, StateGatheringRosters)
	players, failedTeams := d.gatherRosters(ctx)
	result.TeamsFailed = failedTeams
	result.PlayersDispatched = len(players)

	pool, err := ants.NewPool(d.cfg.MaxWorkers)
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	d.enter(ctx, StateDispatching)
	results := d.dispatch(ctx, pool, players)

	d.enter(ctx, StateDraining)
	flushCtx := context.WithoutCancel(ctx)
	state := &flushState{}
	batch := make([]seasonstats.StatRecord, 0, d.cfg.ChunkSize)
	processed := 0
	for res := range results {
		processed++
		bucket := res.outcome.Kind.Bucket()
		ledger.Record(bucket, PlayerLabel(res.playerID))
		d.recorder.RecordOutcome(string(bucket))
		d.recorder.ObserveTask(res.elapsed)
		d.logOutcome(ctx, res, bucket)

		if res.outcome.OK() {
			batch = append(batch, res.rows...)
		}
		if len(batch) >= d.cfg.ChunkSize {
			d.flush(flushCtx, state, batch)
			batch = make([]seasonstats.StatRecord, 0, d.cfg.ChunkSize)
		}
		if processed%d.cfg.ChunkSize == 0 {
			d.logger.InfoContext(ctx, "download progress", "processed", processed, "total", len(players), "rows_written", state.rowsWritten)
		}
	}

	// the final flush also creates the file when nothing was written yet
	if len(batch) > 0 || !state.headerWritten {
		d.flush(flushCtx, state, batch)
	}

	result.RowsWritten = state.rowsWritten
	result.Flushes = state.flushes
	result.Elapsed = time.Since(start)
	d.enter(ctx, StateDone)
	d.logSummary(ctx, result)

	if state.err != nil {
		err := crerr.Wrapf(state.err, "flush output %s", d.outputPath)
		markSpanError(span, err)
		return result, err
	}
	if err := ctx.Err(); err != nil {
		markSpanError(span, err)
		return result, err
	}
	return result, nil
}

func (d *SeasonStatsDownloader) enter(ctx context.Context, state DownloadState) {
	d.logger.DebugContext(ctx, "download state", "state", string(state))
}

// gatherRosters walks the teams sequentially and returns the de-duplicated
// players in first-seen order plus the teams whose roster could not be read.
func (d *SeasonStatsDownloader) gatherRosters(ctx context.Context) ([]seasonstats.PlayerID, []seasonstats.TeamID) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonStatsDownloader.gatherRosters", attribute.Int("teams", len(d.teamIDs)))
	defer span.End()

	seen := make(map[seasonstats.PlayerID]struct{}, len(d.teamIDs)*40)
	players := make([]seasonstats.PlayerID, 0, len(d.teamIDs)*40)
	var failed []seasonstats.TeamID
	for _, teamID := range d.teamIDs {
		if err := ctx.Err(); err != nil {
			failed = append(failed, teamID)
			continue
		}

		roster, err := d.rosters.GetRoster(ctx, teamID, d.cfg.Season)
		if err != nil {
			d.logger.WarnContext(ctx, "skipping team, roster unavailable", "team_id", teamID, "error", err)
			failed = append(failed, teamID)
			continue
		}

		added := 0
		for _, playerID := range roster {
			if playerID <= 0 {
				continue
			}
			if _, ok := seen[playerID]; ok {
				continue
			}
			seen[playerID] = struct{}{}
			players = append(players, playerID)
			added++
		}
		d.logger.DebugContext(ctx, "roster gathered", "team_id", teamID, "roster_size", len(roster), "new_players", added)
	}

	return players, failed
}

// dispatch feeds the pool from its own goroutine so the caller can drain
// concurrently. The returned channel is closed once every player has a result.
func (d *SeasonStatsDownloader) dispatch(ctx context.Context, pool *ants.Pool, players []seasonstats.PlayerID) <-chan playerTaskResult {
	results := make(chan playerTaskResult, d.cfg.MaxWorkers)

	go func() {
		var workers sync.WaitGroup
		defer func() {
			workers.Wait()
			close(results)
		}()

		for idx, playerID := range players {
			if err := ctx.Err(); err != nil {
				for _, rest := range players[idx:] {
					results <- playerTaskResult{
						playerID: rest,
						outcome:  seasonstats.Fail(seasonstats.OutcomeTransientError, crerr.Wrap(err, "not dispatched")),
					}
				}
				return
			}

			playerID := playerID
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()
				results <- d.runPlayerTask(ctx, playerID)
			}); err != nil {
				workers.Done()
				results <- playerTaskResult{
					playerID: playerID,
					outcome:  seasonstats.Fail(seasonstats.OutcomeTransientError, fmt.Errorf("submit task to worker pool: %w", err)),
				}
			}
		}
	}()

	return results
}

// runPlayerTask never panics; a panicking collaborator counts as an exhausted failure.
func (d *SeasonStatsDownloader) runPlayerTask(ctx context.Context, playerID seasonstats.PlayerID) playerTaskResult {
	start := time.Now()

	var res playerTaskResult
	var catcher panics.Catcher
	catcher.Try(func() {
		res = d.fetchPlayer(ctx, playerID)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		res = playerTaskResult{
			outcome: seasonstats.Fail(seasonstats.OutcomeTransientError, recovered.AsError()),
		}
	}

	res.playerID = playerID
	res.elapsed = time.Since(start)
	return res
}

func (d *SeasonStatsDownloader) fetchPlayer(ctx context.Context, playerID seasonstats.PlayerID) playerTaskResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonStatsDownloader.fetchPlayer", attribute.Int64("player_id", int64(playerID)))
	defer span.End()

	season := d.cfg.Season
	identity, outcome, _ := Retry(ctx, d.retry, func(ctx context.Context, _ int) (seasonstats.Identity, seasonstats.Outcome) {
		return d.identities.Resolve(ctx, playerID, season)
	})
	if !outcome.OK() {
		markSpanError(span, outcome.Err)
		return playerTaskResult{outcome: outcome}
	}

	if !d.playerType.Admits(identity.Role) {
		return playerTaskResult{outcome: seasonstats.Fail(
			seasonstats.OutcomePositionMismatch,
			fmt.Errorf("role %q excluded by player type %q", identity.Role, d.playerType),
		)}
	}
	role := d.playerType.FetchRole(identity.Role)

	var scopes []seasonstats.TeamScope
	if !d.cfg.Aggregate {
		var err error
		scopes, err = d.scopes.Scopes(ctx, identity)
		if err != nil {
			return playerTaskResult{outcome: OutcomeFromError(err)}
		}
	}

	targets := make([]*seasonstats.TeamScope, 0, len(scopes)+1)
	for i := range scopes {
		targets = append(targets, &scopes[i])
	}
	if len(targets) == 0 {
		targets = append(targets, nil)
	}

	var (
		rows      []seasonstats.StatRecord
		first     *seasonstats.Outcome
		exhausted *seasonstats.Outcome
		attempts  int
	)
	for _, scope := range targets {
		record, out, n := Retry(ctx, d.retry, func(ctx context.Context, _ int) (seasonstats.StatRecord, seasonstats.Outcome) {
			record, out := d.stats.FetchStats(ctx, playerID, season, role, scope)
			d.recorder.RecordAttempt(out.Kind.String())
			return record, out
		})
		attempts += n

		if out.OK() && len(record) == 0 {
			out = seasonstats.Fail(seasonstats.OutcomeNoStats, ErrNoStats)
		}
		if out.OK() {
			rows = append(rows, record.Annotate(playerID, season, scope))
			continue
		}

		if out.Kind.Retryable() && exhausted == nil {
			exhausted = &out
		}
		if first == nil {
			first = &out
		}
		if scope != nil {
			d.logger.DebugContext(ctx, "team scope fetch failed", "player_id", playerID, "team_id", scope.TeamID, "outcome", out.String())
		}
	}

	switch {
	case len(rows) > 0:
		if first != nil {
			d.logger.WarnContext(ctx, "partial team scopes written", "player_id", playerID, "rows", len(rows), "scopes", len(targets), "first_failure", first.String())
		}
		return playerTaskResult{outcome: seasonstats.Success(), rows: rows, attempts: attempts}
	case exhausted != nil:
		markSpanError(span, exhausted.Err)
		return playerTaskResult{outcome: *exhausted, attempts: attempts}
	default:
		return playerTaskResult{outcome: *first, attempts: attempts}
	}
}

func (d *SeasonStatsDownloader) flush(ctx context.Context, state *flushState, rows []seasonstats.StatRecord) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonStatsDownloader.flush", attribute.Int("rows", len(rows)))
	defer span.End()

	d.enter(ctx, StateFlushing)
	start := time.Now()
	err := d.sink.Flush(ctx, rows, d.outputPath, !state.headerWritten)
	d.recorder.RecordFlush(len(rows), time.Since(start))
	if err != nil {
		markSpanError(span, err)
		d.logger.ErrorContext(ctx, "flush failed", "path", d.outputPath, "rows", len(rows), "error", err)
		if state.err == nil {
			state.err = err
		}
		return
	}

	state.headerWritten = true
	state.rowsWritten += len(rows)
	state.flushes++
	d.logger.DebugContext(ctx, "flushed batch", "path", d.outputPath, "rows", len(rows), "total_rows", state.rowsWritten)
}

func (d *SeasonStatsDownloader) logOutcome(ctx context.Context, res playerTaskResult, bucket seasonstats.Bucket) {
	switch bucket {
	case seasonstats.BucketSuccess:
		d.logger.DebugContext(ctx, "player fetched", "player_id", res.playerID, "rows", len(res.rows), "attempts", res.attempts)
	case seasonstats.BucketError:
		d.logger.WarnContext(ctx, "player failed after retries", "player_id", res.playerID, "error", res.outcome.Err)
	default:
		d.logger.DebugContext(ctx, "player not written", "player_id", res.playerID, "bucket", string(bucket), "reason", res.outcome.String())
	}
}

func (d *SeasonStatsDownloader) logSummary(ctx context.Context, result DownloadResult) {
	d.logger.InfoContext(ctx, "season download completed",
		"output", result.OutputPath,
		"players_processed", result.Ledger.Total(),
		"teams_requested", result.TeamsRequested,
		"teams_failed", len(result.TeamsFailed),
		"rows_written", result.RowsWritten,
		"elapsed", result.Elapsed,
	)
	for _, item := range result.Ledger.Counts() {
		d.logger.InfoContext(ctx, "ledger bucket", "bucket", string(item.Bucket), "count", item.Count)
	}
}

// Summary renders the end-of-run report for terminal output.
func (r DownloadResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Completed season %d ===\n", r.Season)
	fmt.Fprintf(&b, "Run:               %s\n", r.RunID)
	fmt.Fprintf(&b, "Output:            %s\n", r.OutputPath)
	fmt.Fprintf(&b, "Teams requested:   %d (failed %d)\n", r.TeamsRequested, len(r.TeamsFailed))
	if r.Ledger != nil {
		fmt.Fprintf(&b, "Players processed: %d\n", r.Ledger.Total())
	}
	fmt.Fprintf(&b, "Rows written:      %d\n", r.RowsWritten)
	if r.Ledger != nil {
		for _, item := range r.Ledger.Counts() {
			fmt.Fprintf(&b, "  %-20s %d\n", item.Bucket, item.Count)
		}
	}
	return b.String()
}
