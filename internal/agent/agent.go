package agent

import (
	"context"
	"errors"
)

// ResumeAnalyzer turns raw resume text into a structured profile.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, resumeText string) (ResumeProfile, error)
}

// JobMatcher scores a structured profile against a job description.
type JobMatcher interface {
	MatchJob(ctx context.Context, jobDescription string, profile ResumeProfile) (JobMatch, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("agent client not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// AnalyzeResume returns ErrNotConfigured.
func (PlaceholderClient) AnalyzeResume(ctx context.Context, resumeText string) (ResumeProfile, error) {
	_ = ctx
	_ = resumeText
	return ResumeProfile{}, ErrNotConfigured
}

// MatchJob returns ErrNotConfigured.
func (PlaceholderClient) MatchJob(ctx context.Context, jobDescription string, profile ResumeProfile) (JobMatch, error) {
	_ = ctx
	_ = jobDescription
	_ = profile
	return JobMatch{}, ErrNotConfigured
}

var (
	_ ResumeAnalyzer = PlaceholderClient{}
	_ JobMatcher     = PlaceholderClient{}
)
