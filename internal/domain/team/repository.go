package team

import "context"

// Repository describes the team registry needs of the downloader.
type Repository interface {
	ListAll(ctx context.Context) ([]Team, error)
	ListByLeague(ctx context.Context, league string) ([]Team, error)
	GetByID(ctx context.Context, teamID int64) (Team, bool, error)
}
