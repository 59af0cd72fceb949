package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resumematch-backend/internal/agent"
	"resumematch-backend/internal/resumes"
	"resumematch-backend/internal/shared/metrics"
	"resumematch-backend/internal/shared/telemetry"
	"resumematch-backend/internal/tasks"
)

// Service owns job descriptions and the matching pipeline. Matching is a
// single agent call: it either persists one immutable match record or leaves
// no trace, so callers observe failure as the absence of a new record.
type Service struct {
	Jobs    JobsRepo
	Matches MatchesRepo
	Resumes resumes.Repo
	Matcher agent.JobMatcher
	Runner  *tasks.Runner
	Leases  *tasks.Leases
}

// CreateJob persists a job description for later matching.
func (s *Service) CreateJob(ctx context.Context, userID int64, title, description string) (Job, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Job{}, ErrEmptyDescription
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled position"
	}
	return s.Jobs.Create(ctx, Job{UserID: userID, Title: title, Description: description})
}

// SubmitMatch schedules the matching pipeline for an existing resume and job
// description. Both records must exist and the resume must already be
// analyzed.
func (s *Service) SubmitMatch(ctx context.Context, userID, resumeID, jobID int64) error {
	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if resume.Status != resumes.StatusAnalyzed {
		return ErrResumeNotReady
	}
	job, err := s.Jobs.GetByID(ctx, userID, jobID)
	if err != nil {
		return err
	}

	leaseKey := "match:" + strconv.FormatInt(resumeID, 10) + ":" + strconv.FormatInt(jobID, 10)
	if !s.Leases.Acquire(leaseKey) {
		return ErrMatchInProgress
	}

	if err := s.Runner.Submit("job-match", func(taskCtx context.Context) {
		defer s.Leases.Release(leaseKey)
		s.runMatch(taskCtx, userID, resumeID, jobID, job.Description)
	}); err != nil {
		s.Leases.Release(leaseKey)
		return err
	}
	return nil
}

// runMatch executes one matching run. A record vanishing between submission
// and execution terminates the run silently; any other failure aborts without
// creating a match record.
func (s *Service) runMatch(ctx context.Context, userID, resumeID, jobID int64, jobText string) {
	start := time.Now()
	metrics.IncMatchRunStarted()

	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			telemetry.Warn("jobs.match_resume_gone", map[string]any{
				"resumeId": resumeID,
				"jobId":    jobID,
			})
			return
		}
		s.failMatch(userID, resumeID, jobID, err)
		return
	}

	profile := agent.ResumeProfile{
		Skills:     resume.Skills,
		Experience: resume.Experience,
		Education:  resume.Education,
		Summary:    resume.Summary,
	}
	match, err := s.Matcher.MatchJob(ctx, jobText, agent.NormalizeProfile(profile))
	if err != nil {
		s.failMatch(userID, resumeID, jobID, err)
		return
	}
	if err := agent.ValidateMatch(match); err != nil {
		s.failMatch(userID, resumeID, jobID, fmt.Errorf("match output invalid: %w", err))
		return
	}

	score := match.FitScore
	record, err := s.Matches.Create(ctx, Match{
		UserID:          userID,
		ResumeID:        resumeID,
		JobID:           jobID,
		FitScore:        &score,
		Strengths:       match.Strengths,
		MissingSkills:   match.MissingSkills,
		Recommendations: strings.Join(match.Recommendations, "\n"),
	})
	if err != nil {
		s.failMatch(userID, resumeID, jobID, err)
		return
	}

	metrics.IncMatchRunCompleted()
	metrics.ObserveMatchRunDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("jobs.match_complete", map[string]any{
		"userId":     userID,
		"resumeId":   resumeID,
		"jobId":      jobID,
		"matchId":    record.ID,
		"fitScore":   match.FitScore,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (s *Service) failMatch(userID, resumeID, jobID int64, cause error) {
	metrics.IncMatchRunFailed()
	telemetry.Error("jobs.match_failed", map[string]any{
		"userId":   userID,
		"resumeId": resumeID,
		"jobId":    jobID,
		"error":    cause.Error(),
	})
}

// QuickMatch scores the resume against ad hoc job text synchronously and
// returns the result without persisting anything. The caller waits for the
// agent call, so this path skips the runner and leases entirely.
func (s *Service) QuickMatch(ctx context.Context, userID, resumeID int64, jobText string) (agent.JobMatch, error) {
	jobText = strings.TrimSpace(jobText)
	if jobText == "" {
		return agent.JobMatch{}, ErrEmptyDescription
	}

	resume, err := s.Resumes.GetByID(ctx, userID, resumeID)
	if err != nil {
		return agent.JobMatch{}, err
	}
	if resume.Status != resumes.StatusAnalyzed {
		return agent.JobMatch{}, ErrResumeNotReady
	}

	profile := agent.ResumeProfile{
		Skills:     resume.Skills,
		Experience: resume.Experience,
		Education:  resume.Education,
		Summary:    resume.Summary,
	}
	match, err := s.Matcher.MatchJob(ctx, jobText, agent.NormalizeProfile(profile))
	if err != nil {
		return agent.JobMatch{}, err
	}
	if err := agent.ValidateMatch(match); err != nil {
		return agent.JobMatch{}, fmt.Errorf("match output invalid: %w", err)
	}
	return match, nil
}

// DeleteMatch removes one of the user's match records.
func (s *Service) DeleteMatch(ctx context.Context, userID, matchID int64) error {
	return s.Matches.Delete(ctx, userID, matchID)
}

// GetJob returns one of the user's job descriptions.
func (s *Service) GetJob(ctx context.Context, userID, jobID int64) (Job, error) {
	return s.Jobs.GetByID(ctx, userID, jobID)
}

// ListJobs returns the user's job descriptions, newest first.
func (s *Service) ListJobs(ctx context.Context, userID int64, limit, offset int) ([]Job, error) {
	return s.Jobs.ListByUser(ctx, userID, limit, offset)
}

// DeleteJob removes a job description.
func (s *Service) DeleteJob(ctx context.Context, userID, jobID int64) error {
	return s.Jobs.Delete(ctx, userID, jobID)
}

// GetMatch returns one of the user's matches.
func (s *Service) GetMatch(ctx context.Context, userID, matchID int64) (Match, error) {
	return s.Matches.GetByID(ctx, userID, matchID)
}

// ListMatches returns the user's matches, newest first.
func (s *Service) ListMatches(ctx context.Context, userID int64, limit, offset int) ([]Match, error) {
	return s.Matches.ListByUser(ctx, userID, limit, offset)
}

// MatchStats aggregates the user's scored matches.
func (s *Service) MatchStats(ctx context.Context, userID int64) (Stats, error) {
	return s.Matches.StatsByUser(ctx, userID)
}
