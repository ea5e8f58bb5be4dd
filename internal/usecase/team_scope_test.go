package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/domain/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTeams struct{ team.Repository }

func (failingTeams) GetByID(context.Context, int64) (team.Team, bool, error) {
	return team.Team{}, false, errors.New("registry offline")
}

func TestTeamMultiplicityResolver_Scopes(t *testing.T) {
	t.Parallel()

	resolver := NewTeamMultiplicityResolver(testTeams(), nil)

	scopes, err := resolver.Scopes(context.Background(), seasonstats.Identity{
		PlayerID: 9,
		Teams:    []seasonstats.TeamID{3, 0, 1, 3, 42},
	})
	require.NoError(t, err)
	assert.Equal(t, []seasonstats.TeamScope{
		{TeamID: 3, ScopeID: 13},
		{TeamID: 1, ScopeID: 11},
	}, scopes)
}

func TestTeamMultiplicityResolver_NoTeams(t *testing.T) {
	t.Parallel()

	scopes, err := NewTeamMultiplicityResolver(testTeams(), nil).Scopes(context.Background(), seasonstats.Identity{PlayerID: 9})
	require.NoError(t, err)
	assert.Empty(t, scopes)
}

func TestTeamMultiplicityResolver_RegistryFailure(t *testing.T) {
	t.Parallel()

	_, err := NewTeamMultiplicityResolver(failingTeams{}, nil).Scopes(context.Background(), seasonstats.Identity{
		PlayerID: 9,
		Teams:    []seasonstats.TeamID{1},
	})
	require.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.Equal(t, seasonstats.OutcomeTransientError, ClassifyError(err))
}
