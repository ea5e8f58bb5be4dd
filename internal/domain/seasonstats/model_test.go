package seasonstats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlayerType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    PlayerType
		wantErr bool
	}{
		{raw: "", want: PlayerTypeNone},
		{raw: "none", want: PlayerTypeNone},
		{raw: " Pitchers ", want: PlayerTypePitchers},
		{raw: "batters", want: PlayerTypeBatters},
		{raw: "catchers", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParsePlayerType(tc.raw)
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestPlayerTypeAdmits(t *testing.T) {
	t.Parallel()

	assert.True(t, PlayerTypeNone.Admits(RolePitcher))
	assert.True(t, PlayerTypeNone.Admits(RoleUnknown))
	assert.True(t, PlayerTypePitchers.Admits(RolePitcher))
	assert.False(t, PlayerTypePitchers.Admits(RoleBatter))
	assert.True(t, PlayerTypeBatters.Admits(RoleBatter))
	assert.False(t, PlayerTypeBatters.Admits(RoleUnknown))
	assert.True(t, PlayerTypePitchers.Admits(RoleTwoWay))
	assert.True(t, PlayerTypeBatters.Admits(RoleTwoWay))
}

func TestPlayerTypeFetchRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RolePitcher, PlayerTypeNone.FetchRole(RolePitcher))
	assert.Equal(t, RoleBatter, PlayerTypeNone.FetchRole(RoleTwoWay))
	assert.Equal(t, RolePitcher, PlayerTypePitchers.FetchRole(RoleTwoWay))
	assert.Equal(t, RoleBatter, PlayerTypeBatters.FetchRole(RoleTwoWay))
	assert.Equal(t, RoleBatter, PlayerTypeNone.FetchRole(RoleUnknown))
}

func TestStatRecordAnnotateOverwritesProviderValues(t *testing.T) {
	t.Parallel()

	provider := StatRecord{"Name": "A", FieldMLBAMID: "bogus", FieldSeason: 1999, FieldMLBAMTeamID: 1}

	global := provider.Annotate(42, 2024, nil)
	assert.Equal(t, int64(42), global[FieldMLBAMID])
	assert.Equal(t, 2024, global[FieldSeason])
	_, hasTeam := global[FieldMLBAMTeamID]
	assert.False(t, hasTeam)

	scoped := provider.Annotate(42, 2024, &TeamScope{TeamID: 147, ScopeID: 9})
	assert.Equal(t, int64(147), scoped[FieldMLBAMTeamID])

	// the provider record is untouched
	assert.Equal(t, "bogus", provider[FieldMLBAMID])
}

func TestStatRecordColumnsOrder(t *testing.T) {
	t.Parallel()

	row := StatRecord{"WAR": 1.2, "Name": "A"}.Annotate(1, 2024, &TeamScope{TeamID: 5})
	assert.Equal(t, []string{"Name", "WAR", FieldMLBAMID, FieldSeason, FieldMLBAMTeamID}, row.Columns())
}

func TestStatRecordPresent(t *testing.T) {
	t.Parallel()

	row := StatRecord{"a": 1, "b": nil, "c": math.NaN(), "d": ""}
	assert.True(t, row.Present("a"))
	assert.False(t, row.Present("b"))
	assert.False(t, row.Present("c"))
	assert.True(t, row.Present("d"))
	assert.False(t, row.Present("missing"))
}

func TestOutcomeBuckets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, BucketError, OutcomeTransientError.Bucket())
	assert.Equal(t, BucketNoStats, OutcomeNoStats.Bucket())
	assert.True(t, OutcomeTransientError.Retryable())
	for kind := OutcomeSuccess; kind < OutcomeTransientError; kind++ {
		assert.False(t, kind.Retryable(), kind.String())
	}
	assert.Len(t, Buckets, 8)
}
