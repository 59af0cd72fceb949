package resumes

import (
	"context"

	"resumematch-backend/internal/agent"
)

// Repo defines persistence operations for resumes.
type Repo interface {
	Create(ctx context.Context, resume Resume) (Resume, error)
	GetByID(ctx context.Context, userID, resumeID int64) (Resume, error)
	GetActiveByUser(ctx context.Context, userID int64) (Resume, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Resume, error)
	UpdateStatus(ctx context.Context, resumeID int64, status string) error
	UpdateExtraction(ctx context.Context, resumeID int64, text string) error
	UpdateAnalysis(ctx context.Context, resumeID int64, profile agent.ResumeProfile) error
	SetActive(ctx context.Context, userID, resumeID int64) error
	Delete(ctx context.Context, userID, resumeID int64) (Resume, error)
}
