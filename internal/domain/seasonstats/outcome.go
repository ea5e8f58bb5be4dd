package seasonstats

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSkipped
	OutcomePositionMismatch
	OutcomeNotFound
	OutcomeNoIdentityMapping
	OutcomeNoStats
	OutcomeInvalidInput
	OutcomeTransientError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomePositionMismatch:
		return "position_mismatch"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeNoIdentityMapping:
		return "no_identity_mapping"
	case OutcomeNoStats:
		return "no_stats"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeTransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

// Retryable is true only for transient failures.
func (k OutcomeKind) Retryable() bool {
	return k == OutcomeTransientError
}

// Bucket maps an outcome kind to its ledger bucket. Transient failures that
// reach the ledger have exhausted their retries and land in BucketError.
func (k OutcomeKind) Bucket() Bucket {
	switch k {
	case OutcomeSuccess:
		return BucketSuccess
	case OutcomeSkipped:
		return BucketSkipped
	case OutcomePositionMismatch:
		return BucketPositionMismatch
	case OutcomeNotFound:
		return BucketNotFound
	case OutcomeNoIdentityMapping:
		return BucketNoIdentityMapping
	case OutcomeNoStats:
		return BucketNoStats
	case OutcomeInvalidInput:
		return BucketInvalidInput
	default:
		return BucketError
	}
}

// Outcome is the tagged result of a fetch or resolve attempt. Err carries
// detail for logging only; Kind decides control flow.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

func Fail(kind OutcomeKind, err error) Outcome {
	return Outcome{Kind: kind, Err: err}
}

func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

func (o Outcome) String() string {
	if o.Err == nil {
		return o.Kind.String()
	}
	return o.Kind.String() + ": " + o.Err.Error()
}

type Bucket string

const (
	BucketSuccess           Bucket = "success"
	BucketSkipped           Bucket = "skipped"
	BucketPositionMismatch  Bucket = "position_mismatch"
	BucketNotFound          Bucket = "not_found"
	BucketNoIdentityMapping Bucket = "no_identity_mapping"
	BucketNoStats           Bucket = "no_stats"
	BucketInvalidInput      Bucket = "invalid_input"
	BucketError             Bucket = "error"
)

// Buckets lists every ledger bucket in summary order.
var Buckets = []Bucket{
	BucketSuccess,
	BucketSkipped,
	BucketPositionMismatch,
	BucketNotFound,
	BucketNoIdentityMapping,
	BucketNoStats,
	BucketInvalidInput,
	BucketError,
}
