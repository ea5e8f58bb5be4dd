package sink

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func sampleRows() []seasonstats.StatRecord {
	return []seasonstats.StatRecord{
		{"Name": "Aaron Judge", "HR": float64(58), "WAR": 10.6, "mlbam_id": int64(592450), "season": 2024},
		{"Name": "<a href=\"/p\">Juan\nSoto</a>", "HR": float64(41), "WAR": 7.9, "SB": math.NaN(), "mlbam_id": int64(665742), "season": 2024},
		{"Name": "Gleyber, Torres", "HR": float64(15), "WAR": 1.7, "Note": nil, "mlbam_id": int64(650402), "season": 2024},
		{"Name": "Anthony Volpe", "HR": float64(12), "SB": float64(28), "WAR": 3.5, "mlbam_id": int64(683011), "season": 2024, "mlbam_team_id": int64(147)},
		{"Name": "Austin Wells", "HR": float64(13), "WAR": 2.9, "mlbam_id": int64(669224), "season": 2024},
	}
}

func TestCSVSink_SingleFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats_2024.csv")
	sink := NewCSVSink(logging.NewNop())

	require.NoError(t, sink.Flush(context.Background(), sampleRows()[:3], path, true))

	want := "HR,Name,WAR,mlbam_id,season\n" +
		"58,Aaron Judge,10.6,592450,2024\n" +
		"41,Juan Soto,7.9,665742,2024\n" +
		"15,\"Gleyber, Torres\",1.7,650402,2024\n"
	assert.Equal(t, want, readFile(t, path))
}

func TestCSVSink_HeaderWrittenOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(nil)
	rows := sampleRows()
	ctx := context.Background()

	require.NoError(t, sink.Flush(ctx, rows[:2], path, true))
	require.NoError(t, sink.Flush(ctx, rows[2:3], path, false))
	require.NoError(t, sink.Flush(ctx, rows[4:], path, false))

	content := readFile(t, path)
	assert.Equal(t, 1, strings.Count(content, "HR,Name,WAR"))
	assert.True(t, strings.HasPrefix(content, "HR,Name,WAR,mlbam_id,season\n"))
	assert.Len(t, strings.Split(strings.TrimSuffix(content, "\n"), "\n"), 5)
}

func TestCSVSink_ChunkedMatchesSingleFlush(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rows := sampleRows()
	ctx := context.Background()

	single := filepath.Join(dir, "single.csv")
	require.NoError(t, NewCSVSink(nil).Flush(ctx, rows, single, true))

	for _, size := range []int{1, 2, 3} {
		chunked := filepath.Join(dir, "chunked.csv")
		sink := NewCSVSink(nil)
		for start := 0; start < len(rows); start += size {
			end := min(start+size, len(rows))
			require.NoError(t, sink.Flush(ctx, rows[start:end], chunked, start == 0))
		}
		assert.Equal(t, readFile(t, single), readFile(t, chunked), "chunk size %d", size)
	}
}

func TestCSVSink_WidenedHeaderPadsEarlierRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(nil)
	ctx := context.Background()

	require.NoError(t, sink.Flush(ctx, []seasonstats.StatRecord{{"HR": 1, "mlbam_id": int64(1)}}, path, true))
	require.NoError(t, sink.Flush(ctx, []seasonstats.StatRecord{{"AVG": 0.3, "mlbam_id": int64(2), "mlbam_team_id": int64(147)}}, path, false))

	assert.Equal(t, "AVG,HR,mlbam_id,mlbam_team_id\n,1,1,\n0.3,,2,147\n", readFile(t, path))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCSVSink_EmptyFirstFlushCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	sink := NewCSVSink(nil)

	require.NoError(t, sink.Flush(context.Background(), nil, path, true))
	assert.FileExists(t, path)
	assert.Empty(t, readFile(t, path))

	require.NoError(t, sink.Flush(context.Background(), []seasonstats.StatRecord{{"HR": 3}}, path, false))
	assert.Equal(t, "HR\n3\n", readFile(t, path))
}

func TestCSVSink_AppendReadsHeaderFromExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("HR,mlbam_id\n5,1\n"), 0o644))

	require.NoError(t, NewCSVSink(nil).Flush(context.Background(), []seasonstats.StatRecord{{"HR": 7, "mlbam_id": int64(2)}}, path, false))
	assert.Equal(t, "HR,mlbam_id\n5,1\n7,2\n", readFile(t, path))
}

func TestCSVSink_RewritesOnHeaderFlush(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, NewCSVSink(nil).Flush(context.Background(), []seasonstats.StatRecord{{"HR": 7}}, path, true))
	assert.Equal(t, "HR\n7\n", readFile(t, path))
}

func TestCSVSink_EmptyPath(t *testing.T) {
	t.Parallel()

	err := NewCSVSink(nil).Flush(context.Background(), nil, "", true)
	require.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: ""},
		{in: math.NaN(), want: ""},
		{in: float64(58), want: "58"},
		{in: 0.2815, want: "0.2815"},
		{in: float32(1.5), want: "1.5"},
		{in: 42, want: "42"},
		{in: int64(-3), want: "-3"},
		{in: true, want: "true"},
		{in: "tab\there\r\nnext", want: "tab here next"},
		{in: `<a href="x">Shohei Ohtani</a>`, want: "Shohei Ohtani"},
		{in: "a < b", want: "a < b"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, formatValue(tc.in), "%#v", tc.in)
	}
}

type recordingSink struct {
	calls int
	err   error
}

func (s *recordingSink) Flush(context.Context, []seasonstats.StatRecord, string, bool) error {
	s.calls++
	return s.err
}

func TestMirroredSink(t *testing.T) {
	t.Parallel()

	rows := []seasonstats.StatRecord{{"HR": 1}}

	primary := &recordingSink{}
	mirror := &recordingSink{err: errors.New("db down")}
	sink := NewMirroredSink(primary, mirror, logging.NewNop())
	require.NoError(t, sink.Flush(context.Background(), rows, "p", true))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, mirror.calls)

	require.NoError(t, sink.Flush(context.Background(), nil, "p", false))
	assert.Equal(t, 1, mirror.calls, "empty batches are not mirrored")

	failing := &recordingSink{err: errors.New("disk full")}
	mirror = &recordingSink{}
	err := NewMirroredSink(failing, mirror, nil).Flush(context.Background(), rows, "p", true)
	require.Error(t, err)
	assert.Zero(t, mirror.calls)
}
