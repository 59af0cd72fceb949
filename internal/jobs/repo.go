package jobs

import "context"

// JobsRepo defines persistence operations for job descriptions.
type JobsRepo interface {
	Create(ctx context.Context, job Job) (Job, error)
	GetByID(ctx context.Context, userID, jobID int64) (Job, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Job, error)
	Delete(ctx context.Context, userID, jobID int64) error
}

// MatchesRepo defines persistence operations for match records.
type MatchesRepo interface {
	Create(ctx context.Context, match Match) (Match, error)
	GetByID(ctx context.Context, userID, matchID int64) (Match, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Match, error)
	StatsByUser(ctx context.Context, userID int64) (Stats, error)
	Delete(ctx context.Context, userID, matchID int64) error
}
