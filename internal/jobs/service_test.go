package jobs

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"resumematch-backend/internal/agent"
	"resumematch-backend/internal/resumes"
	"resumematch-backend/internal/tasks"
)

type stubMatcher struct {
	match agent.JobMatch
	err   error
	calls int
}

func (m *stubMatcher) MatchJob(context.Context, string, agent.ResumeProfile) (agent.JobMatch, error) {
	m.calls++
	return m.match, m.err
}

func validMatch() agent.JobMatch {
	return agent.JobMatch{
		FitScore:        82,
		Strengths:       []string{"Go", "SQL", "Cloud"},
		MissingSkills:   []string{"Kubernetes", "Terraform", "GraphQL"},
		Recommendations: []string{"Learn Kubernetes", "Add cloud certs"},
	}
}

func newTestService(matcher agent.JobMatcher) *Service {
	return &Service{
		Jobs:    NewMemoryJobsRepo(),
		Matches: NewMemoryMatchesRepo(),
		Resumes: resumes.NewMemoryRepo(),
		Matcher: matcher,
		Runner:  tasks.NewRunner(2),
		Leases:  tasks.NewLeases(),
	}
}

func seedAnalyzedResume(t *testing.T, svc *Service, userID int64) resumes.Resume {
	t.Helper()
	resume, err := svc.Resumes.Create(context.Background(), resumes.Resume{
		UserID:   userID,
		FileName: "cv.pdf",
		Status:   resumes.StatusAnalyzed,
		Skills:   []string{"Go", "Python"},
	})
	if err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return resume
}

func drain(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Runner.Shutdown(ctx); err != nil {
		t.Fatalf("drain runner: %v", err)
	}
}

func TestSubmitMatchPersistsBoundedRecord(t *testing.T) {
	svc := newTestService(&stubMatcher{match: validMatch()})
	resume := seedAnalyzedResume(t, svc, 7)
	job, err := svc.CreateJob(context.Background(), 7, "Backend Engineer", "Build APIs in Go")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := svc.SubmitMatch(context.Background(), 7, resume.ID, job.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drain(t, svc)

	matches, err := svc.ListMatches(context.Background(), 7, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one match record, got %d", len(matches))
	}
	m := matches[0]
	if m.FitScore == nil || *m.FitScore < 0 || *m.FitScore > 100 {
		t.Fatalf("fit score out of range: %v", m.FitScore)
	}
	if n := len(m.Strengths); n < 3 || n > 5 {
		t.Fatalf("strengths count out of range: %d", n)
	}
	if n := len(m.MissingSkills); n < 3 || n > 5 {
		t.Fatalf("missing skills count out of range: %d", n)
	}
	if m.Recommendations != "Learn Kubernetes\nAdd cloud certs" {
		t.Fatalf("expected newline-joined recommendations, got %q", m.Recommendations)
	}
}

func TestAgentFailureCreatesNoRecord(t *testing.T) {
	svc := newTestService(&stubMatcher{err: errors.New("model unavailable")})
	resume := seedAnalyzedResume(t, svc, 7)
	job, _ := svc.CreateJob(context.Background(), 7, "Role", "desc")

	if err := svc.SubmitMatch(context.Background(), 7, resume.ID, job.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drain(t, svc)

	matches, _ := svc.ListMatches(context.Background(), 7, 10, 0)
	if len(matches) != 0 {
		t.Fatalf("expected no record on failure, got %d", len(matches))
	}
}

func TestSchemaViolationCreatesNoRecord(t *testing.T) {
	bad := validMatch()
	bad.FitScore = 150
	svc := newTestService(&stubMatcher{match: bad})
	resume := seedAnalyzedResume(t, svc, 7)
	job, _ := svc.CreateJob(context.Background(), 7, "Role", "desc")

	if err := svc.SubmitMatch(context.Background(), 7, resume.ID, job.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drain(t, svc)

	matches, _ := svc.ListMatches(context.Background(), 7, 10, 0)
	if len(matches) != 0 {
		t.Fatalf("expected no record for out-of-schema output, got %d", len(matches))
	}
}

func TestResumeDeletedBeforeRunIsSilent(t *testing.T) {
	matcher := &stubMatcher{match: validMatch()}
	svc := newTestService(matcher)
	resume := seedAnalyzedResume(t, svc, 7)
	job, _ := svc.CreateJob(context.Background(), 7, "Role", "desc")

	// Delete between submission checks and task execution is racy to arrange
	// through the runner, so drive the run directly.
	if _, err := svc.Resumes.Delete(context.Background(), 7, resume.ID); err != nil {
		t.Fatalf("delete resume: %v", err)
	}
	svc.runMatch(context.Background(), 7, resume.ID, job.ID, job.Description)

	if matcher.calls != 0 {
		t.Fatal("matcher must not run for a vanished resume")
	}
	matches, _ := svc.ListMatches(context.Background(), 7, 10, 0)
	if len(matches) != 0 {
		t.Fatalf("expected no record, got %d", len(matches))
	}
}

func TestSubmitMatchRequiresAnalyzedResume(t *testing.T) {
	svc := newTestService(&stubMatcher{match: validMatch()})
	resume, err := svc.Resumes.Create(context.Background(), resumes.Resume{
		UserID: 7, FileName: "cv.pdf", Status: resumes.StatusExtracting,
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}
	job, _ := svc.CreateJob(context.Background(), 7, "Role", "desc")

	if err := svc.SubmitMatch(context.Background(), 7, resume.ID, job.ID); !errors.Is(err, ErrResumeNotReady) {
		t.Fatalf("expected ErrResumeNotReady, got %v", err)
	}
}

func TestSubmitMatchRejectsConcurrentRun(t *testing.T) {
	svc := newTestService(&stubMatcher{match: validMatch()})
	resume := seedAnalyzedResume(t, svc, 7)
	job, _ := svc.CreateJob(context.Background(), 7, "Role", "desc")

	leaseKey := "match:" + strconv.FormatInt(resume.ID, 10) + ":" + strconv.FormatInt(job.ID, 10)
	if !svc.Leases.Acquire(leaseKey) {
		t.Fatal("setup lease")
	}
	if err := svc.SubmitMatch(context.Background(), 7, resume.ID, job.ID); !errors.Is(err, ErrMatchInProgress) {
		t.Fatalf("expected ErrMatchInProgress, got %v", err)
	}
}

func TestQuickMatchReturnsResultWithoutPersisting(t *testing.T) {
	svc := newTestService(&stubMatcher{match: validMatch()})
	resume := seedAnalyzedResume(t, svc, 7)

	match, err := svc.QuickMatch(context.Background(), 7, resume.ID, "Build APIs in Go")
	if err != nil {
		t.Fatalf("quick match: %v", err)
	}
	if match.FitScore != 82 || len(match.Strengths) != 3 {
		t.Fatalf("unexpected match %+v", match)
	}

	matches, _ := svc.ListMatches(context.Background(), 7, 10, 0)
	if len(matches) != 0 {
		t.Fatalf("quick match must not persist a record, got %d", len(matches))
	}
}

func TestQuickMatchRequiresAnalyzedResume(t *testing.T) {
	svc := newTestService(&stubMatcher{match: validMatch()})
	resume, err := svc.Resumes.Create(context.Background(), resumes.Resume{
		UserID: 7, FileName: "cv.pdf", Status: resumes.StatusExtracting,
	})
	if err != nil {
		t.Fatalf("create resume: %v", err)
	}

	if _, err := svc.QuickMatch(context.Background(), 7, resume.ID, "desc"); !errors.Is(err, ErrResumeNotReady) {
		t.Fatalf("expected ErrResumeNotReady, got %v", err)
	}
	if _, err := svc.QuickMatch(context.Background(), 7, resume.ID, "   "); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
}

func TestDeleteMatch(t *testing.T) {
	svc := newTestService(&stubMatcher{})
	score := 70
	match, err := svc.Matches.Create(context.Background(), Match{
		UserID: 7, ResumeID: 1, JobID: 1, FitScore: &score,
		Strengths:     []string{"a", "b", "c"},
		MissingSkills: []string{"x", "y", "z"},
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	if err := svc.DeleteMatch(context.Background(), 7, match.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetMatch(context.Background(), 7, match.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteMatch(context.Background(), 7, match.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for repeat delete, got %v", err)
	}
}

func TestCreateJobRejectsEmptyDescription(t *testing.T) {
	svc := newTestService(&stubMatcher{})
	if _, err := svc.CreateJob(context.Background(), 7, "Role", "   "); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
}

func TestMatchStats(t *testing.T) {
	svc := newTestService(&stubMatcher{})
	for _, score := range []int{60, 80} {
		s := score
		if _, err := svc.Matches.Create(context.Background(), Match{
			UserID: 7, ResumeID: 1, JobID: 1, FitScore: &s,
			Strengths:     []string{"a", "b", "c"},
			MissingSkills: []string{"x", "y", "z"},
		}); err != nil {
			t.Fatalf("create match: %v", err)
		}
	}

	stats, err := svc.MatchStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMatches != 2 || stats.BestScore != 80 || stats.AverageScore != 70 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
