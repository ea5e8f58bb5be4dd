package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
)

const namespace = "season_stats"

// Collector holds the downloader's Prometheus instruments.
type Collector struct {
	registry      *prometheus.Registry
	outcomes      *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	rowsFlushed   prometheus.Counter
	flushDuration prometheus.Histogram
	taskDuration  prometheus.Histogram
	circuitState  *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_outcomes_total",
			Help:      "Players recorded in each ledger bucket.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Stat fetch attempts by result kind.",
		}, []string{"result"}),
		rowsFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_flushed_total",
			Help:      "Rows handed to the sink.",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent flushing one batch.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of one player task including retries.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_circuit_open",
			Help:      "1 while the provider circuit breaker is not closed.",
		}, []string{"provider"}),
	}

	c.registry.MustRegister(
		c.outcomes,
		c.attempts,
		c.rowsFlushed,
		c.flushDuration,
		c.taskDuration,
		c.circuitState,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordOutcome(bucket string) {
	c.outcomes.WithLabelValues(bucket).Inc()
}

func (c *Collector) RecordAttempt(result string) {
	c.attempts.WithLabelValues(result).Inc()
}

func (c *Collector) RecordFlush(rows int, elapsed time.Duration) {
	c.rowsFlushed.Add(float64(rows))
	c.flushDuration.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveTask(elapsed time.Duration) {
	c.taskDuration.Observe(elapsed.Seconds())
}

func (c *Collector) SetCircuitOpen(provider string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	c.circuitState.WithLabelValues(provider).Set(value)
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
