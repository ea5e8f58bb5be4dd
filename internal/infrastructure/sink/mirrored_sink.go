package sink

import (
	"context"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
)

// MirroredSink writes to a primary sink and copies every successful batch to a
// secondary one. Only primary failures are returned; the file stays the source of truth.
type MirroredSink struct {
	primary seasonstats.Sink
	mirror  seasonstats.Sink
	logger  *logging.Logger
}

func NewMirroredSink(primary, mirror seasonstats.Sink, logger *logging.Logger) *MirroredSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &MirroredSink{primary: primary, mirror: mirror, logger: logger}
}

func (s *MirroredSink) Flush(ctx context.Context, rows []seasonstats.StatRecord, path string, writeHeader bool) error {
	if err := s.primary.Flush(ctx, rows, path, writeHeader); err != nil {
		return err
	}
	if s.mirror == nil || len(rows) == 0 {
		return nil
	}
	if err := s.mirror.Flush(ctx, rows, path, writeHeader); err != nil {
		s.logger.WarnContext(ctx, "mirror flush failed", "path", path, "rows", len(rows), "error", err)
	}
	return nil
}
