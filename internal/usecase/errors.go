package usecase

import (
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
)

var (
	ErrInvalidConfig         = crerr.New("invalid config")
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrNoIdentityMapping     = crerr.New("no identity mapping")
	ErrNoStats               = crerr.New("no stats")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrTransient             = crerr.New("transient failure")
)

// MarkTransient tags err so ClassifyError treats it as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(err, ErrTransient)
}

// ClassifyError maps an adapter error onto the outcome taxonomy. Unknown
// errors are transient so they get retried and end up in the error bucket.
func ClassifyError(err error) seasonstats.OutcomeKind {
	switch {
	case err == nil:
		return seasonstats.OutcomeSuccess
	case crerr.Is(err, ErrInvalidInput):
		return seasonstats.OutcomeInvalidInput
	case crerr.Is(err, ErrNotFound):
		return seasonstats.OutcomeNotFound
	case crerr.Is(err, ErrNoIdentityMapping):
		return seasonstats.OutcomeNoIdentityMapping
	case crerr.Is(err, ErrNoStats):
		return seasonstats.OutcomeNoStats
	default:
		return seasonstats.OutcomeTransientError
	}
}

// OutcomeFromError is the adapter-side shorthand for Fail(ClassifyError(err), err).
func OutcomeFromError(err error) seasonstats.Outcome {
	if err == nil {
		return seasonstats.Success()
	}
	return seasonstats.Fail(ClassifyError(err), err)
}
