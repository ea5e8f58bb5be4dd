package fangraphs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/platform/resilience"
	"github.com/riskibarqy/season-stats/internal/usecase"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://www.fangraphs.com"
	leadersPath          = "/api/leaders/major-league/data"
	defaultTimeout       = 20 * time.Second
	defaultRatePerMinute = 120
	maxResponseBytes     = 8 << 20

	statsPitching = "pit"
	statsBatting  = "bat"

	monthFullSeason    = "0"
	monthCurrentSeason = "33"
)

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Timeout        time.Duration
	RatePerMinute  int
	IDs            *IDMap
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// Now decides whether a season is still in progress.
	Now func() time.Time
}

// Client fetches one player's season line from the Fangraphs leaders API.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	timeout    time.Duration
	limiter    *rate.Limiter
	ids        *IDMap
	guard      *resilience.Guard
	logger     *logging.Logger
	now        func() time.Time
}

type leadersEnvelope struct {
	Data []map[string]any `json:"data"`
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "season-stats",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBytes,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = defaultRatePerMinute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ids := cfg.IDs
	if ids == nil {
		ids = NewIDMap(nil)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1),
		ids:        ids,
		guard:      resilience.NewGuard(cfg.CircuitBreaker),
		logger:     logger,
		now:        now,
	}
}

func (c *Client) Guard() *resilience.Guard {
	return c.guard
}

// FetchStats returns the player's leaders row for the season, restricted to
// one club when scope is set.
func (c *Client) FetchStats(
	ctx context.Context,
	playerID seasonstats.PlayerID,
	season int,
	role seasonstats.PlayerRole,
	scope *seasonstats.TeamScope,
) (seasonstats.StatRecord, seasonstats.Outcome) {
	if playerID <= 0 || season <= 0 {
		return nil, usecase.OutcomeFromError(fmt.Errorf("%w: player_id=%d season=%d", usecase.ErrInvalidInput, playerID, season))
	}

	fangraphsID, ok := c.ids.Lookup(playerID)
	if !ok {
		return nil, usecase.OutcomeFromError(fmt.Errorf("%w: mlbam_id=%d", usecase.ErrNoIdentityMapping, playerID))
	}

	fullURL := c.leadersURL(fangraphsID, season, role, scope)

	var envelope leadersEnvelope
	if err := c.getJSON(ctx, fullURL, &envelope); err != nil {
		return nil, usecase.OutcomeFromError(fmt.Errorf("fetch stats mlbam_id=%d fangraphs_id=%d: %w", playerID, fangraphsID, err))
	}
	if len(envelope.Data) == 0 {
		return nil, usecase.OutcomeFromError(fmt.Errorf("%w: mlbam_id=%d season=%d", usecase.ErrNoStats, playerID, season))
	}
	if len(envelope.Data) > 1 {
		c.logger.DebugContext(ctx, "fangraphs returned several rows, keeping the first", "player_id", playerID, "rows", len(envelope.Data))
	}

	return seasonstats.StatRecord(envelope.Data[0]), seasonstats.Success()
}

func (c *Client) leadersURL(fangraphsID int64, season int, role seasonstats.PlayerRole, scope *seasonstats.TeamScope) string {
	stats := statsBatting
	if role == seasonstats.RolePitcher {
		stats = statsPitching
	}
	month := monthFullSeason
	if season >= c.now().Year() {
		month = monthCurrentSeason
	}

	query := url.Values{}
	query.Set("pos", "all")
	query.Set("stats", stats)
	query.Set("lg", "all")
	query.Set("qual", "0")
	query.Set("season", strconv.Itoa(season))
	query.Set("startdate", fmt.Sprintf("%d-03-01", season))
	query.Set("enddate", fmt.Sprintf("%d-11-01", season))
	query.Set("month", month)
	if scope != nil && scope.ScopeID > 0 {
		query.Set("team", strconv.FormatInt(int64(scope.ScopeID), 10))
	}
	query.Set("players", strconv.FormatInt(fangraphsID, 10))

	return c.baseURL + leadersPath + "?" + query.Encode()
}

func (c *Client) getJSON(ctx context.Context, fullURL string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return usecase.MarkTransient(fmt.Errorf("wait for rate limiter: %w", err))
	}

	var raw []byte
	err := c.guard.Do(func() error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, fullURL)
		return reqErr
	}, func(err error) bool { return crerr.Is(err, usecase.ErrTransient) })
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "fangraphs circuit breaker rejected request", "state", c.guard.State())
		return usecase.MarkTransient(fmt.Errorf("%w: fangraphs is temporarily unavailable", usecase.ErrDependencyUnavailable))
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return usecase.MarkTransient(fmt.Errorf("decode fangraphs payload: %w", err))
	}
	return nil
}

// executeRequest bounds the call by the client timeout or the ctx deadline,
// whichever is sooner; fasthttp itself does not observe ctx.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, usecase.MarkTransient(err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")

	if err := c.httpClient.DoTimeout(req, resp, timeout); err != nil {
		return nil, usecase.MarkTransient(fmt.Errorf("send request: %w", err))
	}

	status := resp.StatusCode()
	body := resp.Body()
	switch {
	case status >= 200 && status < 300:
		return append([]byte(nil), body...), nil
	case status == fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: fangraphs status=%d", usecase.ErrNotFound, status)
	case status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError:
		c.logger.WarnContext(ctx, "fangraphs request failed", "status", status)
		return nil, usecase.MarkTransient(fmt.Errorf("fangraphs status=%d body=%s", status, abbreviateBody(body)))
	default:
		return nil, fmt.Errorf("%w: fangraphs status=%d body=%s", usecase.ErrInvalidInput, status, abbreviateBody(body))
	}
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
