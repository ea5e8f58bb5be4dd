package usecase

import "time"

// Recorder receives download telemetry. metrics.Collector satisfies it.
type Recorder interface {
	RecordOutcome(bucket string)
	RecordAttempt(result string)
	RecordFlush(rows int, elapsed time.Duration)
	ObserveTask(elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string) {}
func (nopRecorder) RecordAttempt(string) {}
func (nopRecorder) RecordFlush(int, time.Duration) {}
func (nopRecorder) ObserveTask(time.Duration) {}
