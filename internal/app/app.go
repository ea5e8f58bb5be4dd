package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/season-stats/external/fangraphs"
	"github.com/riskibarqy/season-stats/external/mlbstats"
	"github.com/riskibarqy/season-stats/internal/config"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/domain/team"
	"github.com/riskibarqy/season-stats/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/season-stats/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/season-stats/internal/infrastructure/sink"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/platform/metrics"
	"github.com/riskibarqy/season-stats/internal/platform/resilience"
	"github.com/riskibarqy/season-stats/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const (
	providerMLBStats  = "mlbstats"
	providerFangraphs = "fangraphs"
)

// Runtime holds the process-wide collaborators shared by every command.
type Runtime struct {
	cfg       config.Config
	logger    *logging.Logger
	metrics   *metrics.Collector
	teams     team.Repository
	mlbStats  *mlbstats.Client
	fangraphs *fangraphs.Client
	db        *sqlx.DB
}

// NewRuntime builds the team registry and both provider clients. teamsFile
// overrides TEAMS_FILE when set.
func NewRuntime(cfg config.Config, logger *logging.Logger, teamsFile string) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}

	teams, err := loadTeamRepository(firstNonEmpty(teamsFile, cfg.TeamsFile))
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	mlbClient := mlbstats.NewClient(mlbstats.ClientConfig{
		BaseURL:        cfg.MLBStatsBaseURL,
		Timeout:        cfg.MLBStatsTimeout,
		RatePerMinute:  cfg.MLBStatsRatePerMinute,
		Logger:         logger.With("provider", providerMLBStats),
		CircuitBreaker: cfg.ProviderCircuit,
	})
	watchCircuit(mlbClient.Guard(), providerMLBStats, collector, logger)

	ids, err := fangraphs.LoadIDMap(cfg.PlayerIDMapPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("player id map loaded", "path", cfg.PlayerIDMapPath, "entries", ids.Len())

	fangraphsClient := fangraphs.NewClient(fangraphs.ClientConfig{
		BaseURL:        cfg.FangraphsBaseURL,
		Timeout:        cfg.FangraphsTimeout,
		RatePerMinute:  cfg.FangraphsRatePerMinute,
		IDs:            ids,
		Logger:         logger.With("provider", providerFangraphs),
		CircuitBreaker: cfg.ProviderCircuit,
	})
	watchCircuit(fangraphsClient.Guard(), providerFangraphs, collector, logger)

	return &Runtime{
		cfg:       cfg,
		logger:    logger,
		metrics:   collector,
		teams:     teams,
		mlbStats:  mlbClient,
		fangraphs: fangraphsClient,
	}, nil
}

func (r *Runtime) Teams() team.Repository {
	return r.teams
}

// Download runs one season download end to end. The metrics endpoint, when
// configured, is served for the lifetime of the run only.
func (r *Runtime) Download(ctx context.Context, dl usecase.DownloadConfig) (usecase.DownloadResult, error) {
	target, err := r.buildSink(ctx, &dl)
	if err != nil {
		return usecase.DownloadResult{}, err
	}

	downloader, err := usecase.NewSeasonStatsDownloader(ctx, dl, usecase.SeasonStatsDownloaderDeps{
		Teams:      r.teams,
		Rosters:    r.mlbStats,
		Identities: r.mlbStats,
		Stats:      r.fangraphs,
		Sink:       target,
		Recorder:   r.metrics,
		Logger:     r.logger,
	})
	if err != nil {
		return usecase.DownloadResult{}, err
	}

	if r.cfg.MetricsAddr == "" {
		return downloader.Download(ctx)
	}

	serveCtx, stopServe := context.WithCancel(ctx)
	servers := pool.New().WithContext(serveCtx)
	servers.Go(func(ctx context.Context) error {
		return r.metrics.Serve(ctx, r.cfg.MetricsAddr, r.logger)
	})

	result, runErr := downloader.Download(ctx)
	stopServe()
	if err := servers.Wait(); err != nil {
		r.logger.WarnContext(ctx, "metrics server stopped with error", "addr", r.cfg.MetricsAddr, "error", err)
	}
	return result, runErr
}

// buildSink returns the CSV sink, mirrored into Postgres when DB_URL is set.
// The run id is fixed here so the mirror and the downloader agree on it.
func (r *Runtime) buildSink(ctx context.Context, dl *usecase.DownloadConfig) (seasonstats.Sink, error) {
	csvSink := sink.NewCSVSink(r.logger)
	if r.cfg.DBURL == "" {
		return csvSink, nil
	}

	if r.db == nil {
		db, err := openDB(ctx, r.cfg)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	if strings.TrimSpace(dl.RunID) == "" {
		dl.RunID = newRunID()
	}
	r.logger.InfoContext(ctx, "postgres mirror enabled", "db", dbNameFromURL(r.cfg.DBURL), "run_id", dl.RunID)

	return sink.NewMirroredSink(csvSink, postgres.NewSeasonStatsRepository(r.db, dl.RunID), r.logger), nil
}

func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func loadTeamRepository(path string) (*memory.TeamRepository, error) {
	if path == "" {
		return memory.NewTeamRepository(memory.SeedTeams()), nil
	}
	teams, err := memory.LoadTeamsFile(path)
	if err != nil {
		return nil, fmt.Errorf("load teams file %s: %w", path, err)
	}
	return memory.NewTeamRepository(teams), nil
}

func watchCircuit(guard *resilience.Guard, provider string, collector *metrics.Collector, logger *logging.Logger) {
	breaker := guard.Breaker()
	if breaker == nil {
		return
	}
	breaker.OnTransition(func(from, to resilience.CircuitState) {
		collector.SetCircuitOpen(provider, to == resilience.CircuitStateOpen)
		logger.Warn("provider circuit state changed", "provider", provider, "from", string(from), "to", string(to))
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
