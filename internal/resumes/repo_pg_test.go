package resumes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"resumematch-backend/internal/agent"
)

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateReturnsAssignedID(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO resumes").
		WithArgs(
			int64(7),
			"cv.pdf",
			"objects/abc/cv.pdf",
			"",
			sqlmock.AnyArg(), // skills
			sqlmock.AnyArg(), // experience
			sqlmock.AnyArg(), // education
			"",
			StatusUploaded,
			false,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	resume, err := repo.Create(context.Background(), Resume{
		UserID:     7,
		FileName:   "cv.pdf",
		StorageKey: "objects/abc/cv.pdf",
		Status:     StatusUploaded,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resume.ID != 42 {
		t.Fatalf("expected id 42, got %d", resume.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesJSONColumns(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "file_name", "storage_key", "text_extracted", "skills", "experience", "education",
		"summary", "status", "is_active", "created_at", "updated_at",
	}).AddRow(
		int64(42), int64(7), "cv.pdf", "objects/abc/cv.pdf", "resume body",
		[]byte(`["Go","SQL"]`),
		[]byte(`{"total_years":3.5,"positions":[{"title":"Engineer","company":"Acme","years":"3.5"}]}`),
		[]byte(`["BSc"]`),
		"summary", StatusAnalyzed, true, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(rows)

	resume, err := repo.GetByID(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(resume.Skills) != 2 || resume.Skills[0] != "Go" {
		t.Fatalf("unexpected skills %v", resume.Skills)
	}
	if resume.Experience.TotalYears == nil || *resume.Experience.TotalYears != 3.5 {
		t.Fatalf("unexpected experience %+v", resume.Experience)
	}
	if !resume.IsActive || resume.Status != StatusAnalyzed {
		t.Fatalf("unexpected row %+v", resume)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 7, 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDToleratesMalformedExperience(t *testing.T) {
	repo, mock := newPGRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "file_name", "storage_key", "text_extracted", "skills", "experience", "education",
		"summary", "status", "is_active", "created_at", "updated_at",
	}).AddRow(
		int64(42), int64(7), "cv.pdf", "objects/abc/cv.pdf", "",
		[]byte(`[]`), []byte(`"legacy-string-shape"`), []byte(`[]`),
		"", StatusAnalyzed, false, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM resumes").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(rows)

	resume, err := repo.GetByID(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resume.Experience.TotalYears != nil || len(resume.Experience.Positions) != 0 {
		t.Fatalf("expected zero experience for malformed payload, got %+v", resume.Experience)
	}
}

func TestPGRepoUpdateStatusMissingRow(t *testing.T) {
	repo, mock := newPGRepo(t)

	mock.ExpectExec("UPDATE resumes SET status").
		WithArgs(int64(42), StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), 42, StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateAnalysisWritesProfile(t *testing.T) {
	repo, mock := newPGRepo(t)
	years := 2.0

	mock.ExpectExec("UPDATE resumes").
		WithArgs(
			int64(42),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"short summary",
			StatusAnalyzed,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAnalysis(context.Background(), 42, agent.ResumeProfile{
		Skills:     []string{"Go"},
		Experience: agent.Experience{TotalYears: &years},
		Education:  []string{"BSc"},
		Summary:    "short summary",
	})
	if err != nil {
		t.Fatalf("UpdateAnalysis: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
