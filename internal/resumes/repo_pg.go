package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"resumematch-backend/internal/agent"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `
id, user_id, file_name, storage_key, text_extracted, skills, experience, education,
summary, status, is_active, created_at, updated_at`

// Create inserts a new resume and returns it with its assigned id.
func (r *PGRepo) Create(ctx context.Context, resume Resume) (Resume, error) {
	const query = `
INSERT INTO resumes (user_id, file_name, storage_key, text_extracted, skills, experience, education, summary, status, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at, updated_at`
	skills, err := marshalJSONB(resume.Skills)
	if err != nil {
		return Resume{}, err
	}
	experience, err := marshalJSONB(resume.Experience)
	if err != nil {
		return Resume{}, err
	}
	education, err := marshalJSONB(resume.Education)
	if err != nil {
		return Resume{}, err
	}
	row := r.DB.QueryRowContext(ctx, query,
		resume.UserID,
		resume.FileName,
		resume.StorageKey,
		resume.TextExtracted,
		skills,
		experience,
		education,
		resume.Summary,
		resume.Status,
		resume.IsActive,
	)
	if err := row.Scan(&resume.ID, &resume.CreatedAt, &resume.UpdatedAt); err != nil {
		return Resume{}, err
	}
	return resume, nil
}

// GetByID returns the user's resume by id.
func (r *PGRepo) GetByID(ctx context.Context, userID, resumeID int64) (Resume, error) {
	const query = `
SELECT ` + resumeColumns + `
FROM resumes
WHERE id = $1 AND user_id = $2
LIMIT 1`
	return scanResume(r.DB.QueryRowContext(ctx, query, resumeID, userID))
}

// GetActiveByUser returns the user's active resume.
func (r *PGRepo) GetActiveByUser(ctx context.Context, userID int64) (Resume, error) {
	const query = `
SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1 AND is_active = TRUE
ORDER BY updated_at DESC
LIMIT 1`
	return scanResume(r.DB.QueryRowContext(ctx, query, userID))
}

// ListByUser returns the user's resumes, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Resume, error) {
	const query = `
SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

// UpdateStatus sets the pipeline status.
func (r *PGRepo) UpdateStatus(ctx context.Context, resumeID int64, status string) error {
	const query = `UPDATE resumes SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, resumeID, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateExtraction stores the extracted text.
func (r *PGRepo) UpdateExtraction(ctx context.Context, resumeID int64, text string) error {
	const query = `UPDATE resumes SET text_extracted = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, resumeID, text)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateAnalysis stores the structured profile and marks the resume analyzed.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, resumeID int64, profile agent.ResumeProfile) error {
	const query = `
UPDATE resumes
SET skills = $2, experience = $3, education = $4, summary = $5, status = $6, updated_at = NOW()
WHERE id = $1`
	skills, err := marshalJSONB(profile.Skills)
	if err != nil {
		return err
	}
	experience, err := marshalJSONB(profile.Experience)
	if err != nil {
		return err
	}
	education, err := marshalJSONB(profile.Education)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, resumeID, skills, experience, education, profile.Summary, StatusAnalyzed)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetActive marks one resume active and the user's others inactive.
func (r *PGRepo) SetActive(ctx context.Context, userID, resumeID int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE resumes SET is_active = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		resumeID, userID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE resumes SET is_active = FALSE, updated_at = NOW() WHERE user_id = $1 AND id <> $2 AND is_active = TRUE`,
		userID, resumeID); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the user's resume and returns the removed row.
func (r *PGRepo) Delete(ctx context.Context, userID, resumeID int64) (Resume, error) {
	const query = `
DELETE FROM resumes
WHERE id = $1 AND user_id = $2
RETURNING ` + resumeColumns
	return scanResume(r.DB.QueryRowContext(ctx, query, resumeID, userID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var resume Resume
	var text sql.NullString
	var skills, experience, education []byte
	var summary sql.NullString
	err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.FileName,
		&resume.StorageKey,
		&text,
		&skills,
		&experience,
		&education,
		&summary,
		&resume.Status,
		&resume.IsActive,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, ErrNotFound
	}
	if err != nil {
		return Resume{}, err
	}
	resume.TextExtracted = text.String
	resume.Summary = summary.String
	resume.Skills = DecodeStringList(skills)
	resume.Experience = DecodeExperience(experience)
	resume.Education = DecodeStringList(education)
	return resume, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSONB(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
