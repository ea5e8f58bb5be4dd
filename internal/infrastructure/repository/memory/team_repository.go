package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/season-stats/internal/domain/team"
)

type TeamRepository struct {
	mu            sync.RWMutex
	order         []int64
	teamsByID     map[int64]team.Team
	teamsByLeague map[string][]int64
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	repo := &TeamRepository{
		teamsByID:     make(map[int64]team.Team, len(teams)),
		teamsByLeague: make(map[string][]int64, 2),
	}
	_ = repo.UpsertTeams(context.Background(), teams)

	return repo
}

func (r *TeamRepository) ListAll(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.teamsByID[id])
	}

	return out, nil
}

func (r *TeamRepository) ListByLeague(_ context.Context, league string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.teamsByLeague[strings.ToUpper(strings.TrimSpace(league))]
	out := make([]team.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.teamsByID[id])
	}

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teamsByID[teamID]
	return item, ok, nil
}

func (r *TeamRepository) UpsertTeams(_ context.Context, items []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID <= 0 {
			continue
		}
		item.League = strings.ToUpper(strings.TrimSpace(item.League))
		item.Abbrev = strings.TrimSpace(item.Abbrev)

		previous, exists := r.teamsByID[item.ID]
		if !exists {
			r.order = append(r.order, item.ID)
		} else if previous.League != item.League {
			r.teamsByLeague[previous.League] = removeID(r.teamsByLeague[previous.League], item.ID)
		}
		if !exists || previous.League != item.League {
			r.teamsByLeague[item.League] = append(r.teamsByLeague[item.League], item.ID)
		}
		r.teamsByID[item.ID] = item
	}

	return nil
}

func removeID(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
