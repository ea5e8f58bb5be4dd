package memory

import "github.com/riskibarqy/season-stats/internal/domain/team"

// SeedTeams returns the thirty major league clubs with their Fangraphs team keys.
func SeedTeams() []team.Team {
	return []team.Team{
		{ID: 108, Abbrev: "LAA", Name: "Los Angeles Angels", League: team.LeagueAL, FangraphsID: 1},
		{ID: 109, Abbrev: "ARI", Name: "Arizona Diamondbacks", League: team.LeagueNL, FangraphsID: 15},
		{ID: 110, Abbrev: "BAL", Name: "Baltimore Orioles", League: team.LeagueAL, FangraphsID: 2},
		{ID: 111, Abbrev: "BOS", Name: "Boston Red Sox", League: team.LeagueAL, FangraphsID: 3},
		{ID: 112, Abbrev: "CHC", Name: "Chicago Cubs", League: team.LeagueNL, FangraphsID: 17},
		{ID: 113, Abbrev: "CIN", Name: "Cincinnati Reds", League: team.LeagueNL, FangraphsID: 18},
		{ID: 114, Abbrev: "CLE", Name: "Cleveland Guardians", League: team.LeagueAL, FangraphsID: 5},
		{ID: 115, Abbrev: "COL", Name: "Colorado Rockies", League: team.LeagueNL, FangraphsID: 19},
		{ID: 116, Abbrev: "DET", Name: "Detroit Tigers", League: team.LeagueAL, FangraphsID: 6},
		{ID: 117, Abbrev: "HOU", Name: "Houston Astros", League: team.LeagueAL, FangraphsID: 21},
		{ID: 118, Abbrev: "KC", Name: "Kansas City Royals", League: team.LeagueAL, FangraphsID: 7},
		{ID: 119, Abbrev: "LAD", Name: "Los Angeles Dodgers", League: team.LeagueNL, FangraphsID: 22},
		{ID: 120, Abbrev: "WSH", Name: "Washington Nationals", League: team.LeagueNL, FangraphsID: 24},
		{ID: 121, Abbrev: "NYM", Name: "New York Mets", League: team.LeagueNL, FangraphsID: 25},
		{ID: 133, Abbrev: "OAK", Name: "Athletics", League: team.LeagueAL, FangraphsID: 10},
		{ID: 134, Abbrev: "PIT", Name: "Pittsburgh Pirates", League: team.LeagueNL, FangraphsID: 27},
		{ID: 135, Abbrev: "SD", Name: "San Diego Padres", League: team.LeagueNL, FangraphsID: 29},
		{ID: 136, Abbrev: "SEA", Name: "Seattle Mariners", League: team.LeagueAL, FangraphsID: 11},
		{ID: 137, Abbrev: "SF", Name: "San Francisco Giants", League: team.LeagueNL, FangraphsID: 30},
		{ID: 138, Abbrev: "STL", Name: "St. Louis Cardinals", League: team.LeagueNL, FangraphsID: 28},
		{ID: 139, Abbrev: "TB", Name: "Tampa Bay Rays", League: team.LeagueAL, FangraphsID: 12},
		{ID: 140, Abbrev: "TEX", Name: "Texas Rangers", League: team.LeagueAL, FangraphsID: 13},
		{ID: 141, Abbrev: "TOR", Name: "Toronto Blue Jays", League: team.LeagueAL, FangraphsID: 14},
		{ID: 142, Abbrev: "MIN", Name: "Minnesota Twins", League: team.LeagueAL, FangraphsID: 8},
		{ID: 143, Abbrev: "PHI", Name: "Philadelphia Phillies", League: team.LeagueNL, FangraphsID: 26},
		{ID: 144, Abbrev: "ATL", Name: "Atlanta Braves", League: team.LeagueNL, FangraphsID: 16},
		{ID: 145, Abbrev: "CWS", Name: "Chicago White Sox", League: team.LeagueAL, FangraphsID: 4},
		{ID: 146, Abbrev: "MIA", Name: "Miami Marlins", League: team.LeagueNL, FangraphsID: 20},
		{ID: 147, Abbrev: "NYY", Name: "New York Yankees", League: team.LeagueAL, FangraphsID: 9},
		{ID: 158, Abbrev: "MIL", Name: "Milwaukee Brewers", League: team.LeagueNL, FangraphsID: 23},
	}
}
