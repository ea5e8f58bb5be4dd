package mlbstats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/platform/resilience"
	"github.com/riskibarqy/season-stats/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://statsapi.mlb.com/api/v1"
	defaultTimeout       = 15 * time.Second
	defaultRatePerMinute = 600
	maxResponseBytes     = 4 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	RatePerMinute  int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads rosters and player identities from the MLB Stats API. It makes
// one request per call; retries are left to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	guard      *resilience.Guard
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = defaultRatePerMinute
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1),
		guard:      resilience.NewGuard(cfg.CircuitBreaker),
		logger:     logger,
	}
}

// Guard exposes the breaker so callers can report its state.
func (c *Client) Guard() *resilience.Guard {
	return c.guard
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return usecase.MarkTransient(fmt.Errorf("wait for rate limiter: %w", err))
	}

	var raw []byte
	err := c.guard.Do(func() error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, fullURL)
		return reqErr
	}, isCircuitFailure)
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "mlb stats circuit breaker rejected request", "state", c.guard.State())
		return usecase.MarkTransient(fmt.Errorf("%w: mlb stats api is temporarily unavailable", usecase.ErrDependencyUnavailable))
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return usecase.MarkTransient(fmt.Errorf("decode mlb stats payload: %w", err))
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", usecase.ErrInvalidInput, err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, usecase.MarkTransient(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, usecase.MarkTransient(fmt.Errorf("read response body: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: mlb stats status=%d url=%s", usecase.ErrNotFound, resp.StatusCode, fullURL)
	case isRetryableStatus(resp.StatusCode):
		c.logger.WarnContext(ctx, "mlb stats request failed", "url", fullURL, "status", resp.StatusCode)
		return nil, usecase.MarkTransient(fmt.Errorf("mlb stats status=%d body=%s", resp.StatusCode, abbreviateBody(raw)))
	default:
		return nil, fmt.Errorf("%w: mlb stats status=%d body=%s", usecase.ErrInvalidInput, resp.StatusCode, abbreviateBody(raw))
	}
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, usecase.ErrTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
