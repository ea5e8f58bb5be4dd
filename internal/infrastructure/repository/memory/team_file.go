package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/season-stats/internal/domain/team"
	"gopkg.in/yaml.v3"
)

// LoadTeamsFile reads a team registry from a .json, .yaml or .yml file.
func LoadTeamsFile(path string) ([]team.Team, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read teams file: %w", err)
	}

	var teams []team.Team
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = sonic.Unmarshal(raw, &teams)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &teams)
	default:
		return nil, fmt.Errorf("unsupported teams file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode teams file %s: %w", path, err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("teams file %s is empty", path)
	}

	seen := make(map[int64]struct{}, len(teams))
	for _, item := range teams {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("teams file %s: %w", path, err)
		}
		if _, ok := seen[item.ID]; ok {
			return nil, fmt.Errorf("teams file %s: duplicate team id %d", path, item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	return teams, nil
}
