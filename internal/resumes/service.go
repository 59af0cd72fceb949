package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"resumematch-backend/internal/agent"
	"resumematch-backend/internal/extract"
	"resumematch-backend/internal/notify"
	"resumematch-backend/internal/shared/metrics"
	"resumematch-backend/internal/shared/storage/object"
	"resumematch-backend/internal/shared/telemetry"
	"resumematch-backend/internal/tasks"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// Service owns the resume lifecycle: upload, the async analysis pipeline, and
// record management.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Extractor extract.Extractor
	Analyzer  agent.ResumeAnalyzer
	Notifier  *notify.Notifier
	Runner    *tasks.Runner
	Leases    *tasks.Leases
}

// Upload stores the file, creates the record as the user's active resume, and
// kicks off analysis.
func (s *Service) Upload(ctx context.Context, userID int64, fileName string, r io.Reader) (Resume, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return Resume{}, extract.ValidationError{Reason: fmt.Sprintf("unsupported file type %q, use PDF, DOCX or TXT", ext)}
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Resume{}, fmt.Errorf("store resume file: %w", err)
	}

	resume, err := s.Repo.Create(ctx, Resume{
		UserID:     userID,
		FileName:   fileName,
		StorageKey: storageKey,
		Status:     StatusUploaded,
	})
	if err != nil {
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("resumes.orphan_object", map[string]any{
				"storageKey": storageKey,
				"error":      delErr.Error(),
			})
		}
		return Resume{}, fmt.Errorf("create resume record: %w", err)
	}
	if err := s.Repo.SetActive(ctx, userID, resume.ID); err != nil {
		telemetry.Warn("resumes.set_active_failed", map[string]any{
			"resumeId": resume.ID,
			"error":    err.Error(),
		})
	} else {
		resume.IsActive = true
	}

	telemetry.Info("resumes.uploaded", map[string]any{
		"userId":   userID,
		"resumeId": resume.ID,
		"fileName": fileName,
		"size":     size,
		"mimeType": mimeType,
	})

	if err := s.StartAnalysis(ctx, userID, resume.ID); err != nil && !errors.Is(err, ErrRunInProgress) {
		return resume, err
	}
	return resume, nil
}

// StartAnalysis schedules the analysis pipeline for a resume the user owns.
// Only one run per resume may be in flight at a time.
func (s *Service) StartAnalysis(ctx context.Context, userID, resumeID int64) error {
	resume, err := s.Repo.GetByID(ctx, userID, resumeID)
	if err != nil {
		return err
	}

	leaseKey := "resume:" + strconv.FormatInt(resumeID, 10)
	if !s.Leases.Acquire(leaseKey) {
		return ErrRunInProgress
	}

	s.Notifier.ResumeStatus(ctx, userID, resumeID, StatusUploaded,
		"Resume uploaded, analysis starting...", 10, nil)

	if err := s.Runner.Submit("resume-analysis", func(taskCtx context.Context) {
		defer s.Leases.Release(leaseKey)
		s.runAnalysis(taskCtx, resume)
	}); err != nil {
		s.Leases.Release(leaseKey)
		return err
	}
	return nil
}

// runAnalysis drives one resume through extraction and analysis. Failures at
// any stage mark the record failed; text already extracted is kept.
func (s *Service) runAnalysis(ctx context.Context, resume Resume) {
	start := time.Now()
	metrics.IncResumeRunStarted()
	userID, resumeID := resume.UserID, resume.ID

	if err := s.transition(ctx, userID, resumeID, StatusExtracting,
		"Extracting text from document...", 25, nil); err != nil {
		s.failAnalysis(userID, resumeID, err)
		return
	}

	text, err := s.Extractor.ExtractText(ctx, resume.StorageKey, resume.FileName)
	if err != nil {
		s.failAnalysis(userID, resumeID, err)
		return
	}
	if err := s.Repo.UpdateExtraction(ctx, resumeID, text); err != nil {
		s.failAnalysis(userID, resumeID, err)
		return
	}
	s.Notifier.ResumeStatus(ctx, userID, resumeID, StatusExtracting,
		"Text extracted successfully", 50, map[string]any{"text_length": len(text)})

	if err := s.transition(ctx, userID, resumeID, StatusAnalyzing,
		"AI is analyzing your resume...", 60, nil); err != nil {
		s.failAnalysis(userID, resumeID, err)
		return
	}

	profile, err := s.Analyzer.AnalyzeResume(ctx, text)
	if err != nil {
		s.failAnalysis(userID, resumeID, err)
		return
	}
	s.Notifier.ResumeStatus(ctx, userID, resumeID, StatusAnalyzing,
		"Analysis complete, saving results...", 90, nil)

	if err := s.Repo.UpdateAnalysis(ctx, resumeID, profile); err != nil {
		s.failAnalysis(userID, resumeID, err)
		return
	}

	var years float64
	if profile.Experience.TotalYears != nil {
		years = *profile.Experience.TotalYears
	}
	s.Notifier.ResumeStatus(ctx, userID, resumeID, StatusAnalyzed,
		"Resume analyzed successfully", 100, map[string]any{
			"skills_count":     len(profile.Skills),
			"experience_years": years,
			"education_count":  len(profile.Education),
		})

	metrics.IncResumeRunCompleted()
	metrics.ObserveResumeRunDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("resumes.analysis_complete", map[string]any{
		"userId":     userID,
		"resumeId":   resumeID,
		"durationMs": time.Since(start).Milliseconds(),
		"skills":     len(profile.Skills),
	})
}

func (s *Service) transition(ctx context.Context, userID, resumeID int64, status, message string, progress int, data map[string]any) error {
	if err := s.Repo.UpdateStatus(ctx, resumeID, status); err != nil {
		return err
	}
	s.Notifier.ResumeStatus(ctx, userID, resumeID, status, message, progress, data)
	return nil
}

// failAnalysis persists the failed state and pushes the failure event. A
// record that vanished between scheduling and the failing write terminates
// silently: there is no row to mark and no user-visible run to report on. It
// uses a fresh context so a cancelled pipeline context cannot block the write.
func (s *Service) failAnalysis(userID, resumeID int64, cause error) {
	if errors.Is(cause, ErrNotFound) {
		telemetry.Warn("resumes.analysis_record_gone", map[string]any{
			"userId":   userID,
			"resumeId": resumeID,
		})
		return
	}
	metrics.IncResumeRunFailed()
	telemetry.Error("resumes.analysis_failed", map[string]any{
		"userId":   userID,
		"resumeId": resumeID,
		"class":    classifyFailure(cause),
		"error":    cause.Error(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Repo.UpdateStatus(ctx, resumeID, StatusFailed); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Record deleted while the run was in flight; nothing to persist
			// and nobody to notify about it.
			telemetry.Warn("resumes.analysis_record_gone", map[string]any{
				"userId":   userID,
				"resumeId": resumeID,
			})
			return
		}
		telemetry.Error("resumes.failed_update_error", map[string]any{
			"resumeId": resumeID,
			"error":    err.Error(),
		})
	}

	reason := sanitizeFailure(cause)
	s.Notifier.ResumeStatus(ctx, userID, resumeID, StatusFailed,
		"Analysis failed: "+reason, 0, map[string]any{"error": reason})
}

// classifyFailure buckets a pipeline error for telemetry.
func classifyFailure(err error) string {
	switch {
	case extract.IsValidationError(err):
		return "validation"
	case errors.Is(err, agent.ErrNotConfigured):
		return "agent"
	case errors.Is(err, ErrNotFound):
		return "storage"
	default:
		return "internal"
	}
}

// sanitizeFailure picks the user-facing failure text. Validation problems are
// reported verbatim; anything else collapses to a generic message so internal
// details never reach the client.
func sanitizeFailure(err error) string {
	var ve extract.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	if errors.Is(err, agent.ErrNotConfigured) {
		return "analysis service is not configured"
	}
	return "internal error during analysis"
}

// Get returns one of the user's resumes.
func (s *Service) Get(ctx context.Context, userID, resumeID int64) (Resume, error) {
	return s.Repo.GetByID(ctx, userID, resumeID)
}

// List returns the user's resumes, newest first.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Resume, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Activate marks the resume as the user's active one.
func (s *Service) Activate(ctx context.Context, userID, resumeID int64) error {
	return s.Repo.SetActive(ctx, userID, resumeID)
}

// Delete removes the record and its stored file.
func (s *Service) Delete(ctx context.Context, userID, resumeID int64) error {
	resume, err := s.Repo.Delete(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, resume.StorageKey); err != nil {
		telemetry.Warn("resumes.delete_object_failed", map[string]any{
			"resumeId":   resumeID,
			"storageKey": resume.StorageKey,
			"error":      err.Error(),
		})
	}
	return nil
}
