package fangraphs

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
)

// knownOverrides covers players the public register maps late or not at all.
var knownOverrides = map[int64]int64{
	690916: 30160,
	695578: 29518,
	702616: 31781,
}

var headerAliases = [][2]string{
	{"key_mlbam", "key_fangraphs"},
	{"mlbid", "idfangraphs"},
}

// IDMap translates MLBAM player ids into Fangraphs player ids.
type IDMap struct {
	ids map[int64]int64
}

// NewIDMap builds a map from entries plus the built-in overrides; overrides win.
func NewIDMap(entries map[int64]int64) *IDMap {
	ids := make(map[int64]int64, len(entries)+len(knownOverrides))
	for mlbam, fangraphs := range entries {
		if mlbam > 0 && fangraphs > 0 {
			ids[mlbam] = fangraphs
		}
	}
	for mlbam, fangraphs := range knownOverrides {
		ids[mlbam] = fangraphs
	}
	return &IDMap{ids: ids}
}

// LoadIDMap reads a player register CSV. An empty path yields the overrides only.
func LoadIDMap(path string) (*IDMap, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewIDMap(nil), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open player id map: %w", err)
	}
	defer file.Close()

	entries, err := parseIDMap(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("parse player id map %s: %w", path, err)
	}
	return NewIDMap(entries), nil
}

func parseIDMap(r io.Reader) (map[int64]int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}

	mlbamCol, fangraphsCol := -1, -1
	for _, alias := range headerAliases {
		mlbamCol, fangraphsCol = indexOf(header, alias[0]), indexOf(header, alias[1])
		if mlbamCol >= 0 && fangraphsCol >= 0 {
			break
		}
	}
	if mlbamCol < 0 || fangraphsCol < 0 {
		return nil, fmt.Errorf("missing key_mlbam/key_fangraphs or MLBID/IDFANGRAPHS columns")
	}

	entries := make(map[int64]int64, 4096)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if mlbamCol >= len(record) || fangraphsCol >= len(record) {
			continue
		}
		mlbam, errM := parseID(record[mlbamCol])
		fangraphs, errF := parseID(record[fangraphsCol])
		// minor-league Fangraphs keys like "sa3011918" are not queryable here
		if errM != nil || errF != nil {
			continue
		}
		entries[mlbam] = fangraphs
	}
	return entries, nil
}

func (m *IDMap) Lookup(playerID seasonstats.PlayerID) (int64, bool) {
	if m == nil {
		return 0, false
	}
	id, ok := m.ids[int64(playerID)]
	return id, ok
}

func (m *IDMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

func indexOf(header []string, name string) int {
	for idx, column := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")), name) {
			return idx
		}
	}
	return -1
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	// pandas exports integer columns with missing values as floats
	raw = strings.TrimSuffix(raw, ".0")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("non-positive id %d", id)
	}
	return id, nil
}
