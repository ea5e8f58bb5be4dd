package sink

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

const filePerm = 0o644

// CSVSink writes stat rows to comma-separated files, one header per file.
//
// Columns that hold no value in any row of a batch are dropped. When a later
// batch brings columns the file has not seen, the file is rewritten under the
// widened header so chunked output matches a single flush of the same rows.
type CSVSink struct {
	mu      sync.Mutex
	headers map[string][]string
	logger  *logging.Logger
}

func NewCSVSink(logger *logging.Logger) *CSVSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &CSVSink{
		headers: make(map[string][]string),
		logger:  logger,
	}
}

func (s *CSVSink) Flush(ctx context.Context, rows []seasonstats.StatRecord, path string, writeHeader bool) error {
	if path == "" {
		return fmt.Errorf("csv sink: empty output path")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	columns := presentColumns(rows)
	if writeHeader {
		if err := writeFile(path, columns, nil, rows); err != nil {
			return err
		}
		s.headers[path] = columns
		return nil
	}

	header, err := s.headerFor(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	merged, widened := widenHeader(header, columns)
	if !widened {
		return appendRows(path, header, rows)
	}

	s.logger.DebugContext(ctx, "widening csv header", "path", path, "from", len(header), "to", len(merged))
	existing, err := readBody(path, len(header) > 0)
	if err != nil {
		return err
	}
	if err := rewriteFile(path, merged, header, existing, rows); err != nil {
		return err
	}
	s.headers[path] = merged
	return nil
}

// headerFor returns the cached header of path or reads it from the file.
func (s *CSVSink) headerFor(path string) ([]string, error) {
	if header, ok := s.headers[path]; ok {
		return header, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.headers[path] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		header = nil
	} else if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	s.headers[path] = header
	return header, nil
}

// presentColumns lists, in canonical order, the columns holding a value in at least one row.
func presentColumns(rows []seasonstats.StatRecord) []string {
	set := make(map[string]struct{})
	for _, row := range rows {
		for column := range row {
			if row.Present(column) {
				set[column] = struct{}{}
			}
		}
	}
	return seasonstats.OrderColumns(set)
}

func widenHeader(header, columns []string) ([]string, bool) {
	set := make(map[string]struct{}, len(header)+len(columns))
	for _, column := range header {
		set[column] = struct{}{}
	}
	widened := false
	for _, column := range columns {
		if _, ok := set[column]; !ok {
			set[column] = struct{}{}
			widened = true
		}
	}
	if !widened {
		return header, false
	}
	return seasonstats.OrderColumns(set), true
}

func appendRows(path string, header []string, rows []seasonstats.StatRecord) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeRows(buf, nil, header, nil, rows); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}
	if _, err := file.Write(buf.B); err != nil {
		_ = file.Close()
		return fmt.Errorf("append %d rows to %s: %w", len(rows), path, err)
	}
	return file.Close()
}

func writeFile(path string, header []string, existing [][]string, rows []seasonstats.StatRecord) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeRows(buf, header, header, existing, rows); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.B, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// rewriteFile writes the widened file next to path and renames it into place,
// so a reader never sees a half-written header.
func rewriteFile(path string, header, previous []string, existing [][]string, rows []seasonstats.StatRecord) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeRows(buf, header, header, remap(previous, header, existing), rows); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return crerr.Wrapf(err, "replace %s", path)
	}
	return nil
}

// readBody returns the data records of path, skipping the header line when present.
func readBody(path string, hasHeader bool) ([][]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if hasHeader && len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}

// remap moves already-formatted records from the previous header layout to the new one.
func remap(previous, header []string, records [][]string) [][]string {
	if len(records) == 0 {
		return nil
	}
	position := make(map[string]int, len(header))
	for idx, column := range header {
		position[column] = idx
	}

	out := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, len(header))
		for idx, value := range record {
			if idx >= len(previous) {
				break
			}
			row[position[previous[idx]]] = value
		}
		out = append(out, row)
	}
	return out
}

func encodeRows(w io.Writer, header, columns []string, existing [][]string, rows []seasonstats.StatRecord) error {
	writer := csv.NewWriter(w)
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}
	for _, record := range existing {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("encode existing row: %w", err)
		}
	}

	if len(columns) == 0 {
		rows = nil
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for idx, column := range columns {
			record[idx] = formatValue(row[column])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
