package resilience

// Guard runs provider calls through a breaker that may be disabled by config.
type Guard struct {
	breaker *CircuitBreaker
	enabled bool
}

func NewGuard(cfg CircuitBreakerConfig) *Guard {
	cfg = NormalizeCircuitBreakerConfig(cfg)
	return &Guard{
		breaker: NewCircuitBreaker(cfg.FailureThreshold, cfg.OpenTimeout, cfg.HalfOpenMaxReq),
		enabled: cfg.Enabled,
	}
}

func (g *Guard) Breaker() *CircuitBreaker {
	return g.breaker
}

func (g *Guard) State() CircuitState {
	if !g.enabled {
		return CircuitStateClosed
	}
	return g.breaker.State()
}

// Do returns ErrCircuitOpen without calling fn when the breaker rejects the call.
// Errors for which countsAsFailure reports false are recorded as successes since
// the dependency answered.
func (g *Guard) Do(fn func() error, countsAsFailure func(error) bool) error {
	if !g.enabled {
		return fn()
	}
	if err := g.breaker.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil && (countsAsFailure == nil || countsAsFailure(err)) {
		g.breaker.RecordFailure()
	} else {
		g.breaker.RecordSuccess()
	}
	return err
}
