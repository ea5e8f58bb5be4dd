package usecase

import (
	"strconv"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
)

// RunStatusLedger records which bucket each processed player ended in.
// It is owned by the draining goroutine and is not safe for concurrent use.
type RunStatusLedger struct {
	buckets map[seasonstats.Bucket][]string
	total   int
}

type BucketCount struct {
	Bucket seasonstats.Bucket `json:"bucket"`
	Count  int                `json:"count"`
}

func NewRunStatusLedger() *RunStatusLedger {
	buckets := make(map[seasonstats.Bucket][]string, len(seasonstats.Buckets))
	for _, bucket := range seasonstats.Buckets {
		buckets[bucket] = nil
	}
	return &RunStatusLedger{buckets: buckets}
}

func PlayerLabel(playerID seasonstats.PlayerID) string {
	return strconv.FormatInt(int64(playerID), 10)
}

func (l *RunStatusLedger) Record(bucket seasonstats.Bucket, label string) {
	l.buckets[bucket] = append(l.buckets[bucket], label)
	l.total++
}

// Labels returns a copy of one bucket in recording order.
func (l *RunStatusLedger) Labels(bucket seasonstats.Bucket) []string {
	return append([]string(nil), l.buckets[bucket]...)
}

func (l *RunStatusLedger) Count(bucket seasonstats.Bucket) int {
	return len(l.buckets[bucket])
}

func (l *RunStatusLedger) Total() int {
	return l.total
}

// Counts lists every bucket in summary order, including empty ones.
func (l *RunStatusLedger) Counts() []BucketCount {
	out := make([]BucketCount, 0, len(seasonstats.Buckets))
	for _, bucket := range seasonstats.Buckets {
		out = append(out, BucketCount{Bucket: bucket, Count: len(l.buckets[bucket])})
	}
	return out
}
