package seasonstats

import "context"

type RosterSource interface {
	GetRoster(ctx context.Context, teamID TeamID, season int) ([]PlayerID, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, playerID PlayerID, season int) (Identity, Outcome)
}

// StatRecordFetcher returns at most one record. A nil scope asks for the season aggregate.
type StatRecordFetcher interface {
	FetchStats(ctx context.Context, playerID PlayerID, season int, role PlayerRole, scope *TeamScope) (StatRecord, Outcome)
}

type Sink interface {
	Flush(ctx context.Context, rows []StatRecord, path string, writeHeader bool) error
}
