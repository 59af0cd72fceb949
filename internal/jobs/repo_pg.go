package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGJobsRepo implements JobsRepo using Postgres.
type PGJobsRepo struct {
	DB *sql.DB
}

// Create inserts a new job description and returns it with its assigned id.
func (r *PGJobsRepo) Create(ctx context.Context, job Job) (Job, error) {
	const query = `
INSERT INTO job_descriptions (user_id, title, description)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	row := r.DB.QueryRowContext(ctx, query, job.UserID, job.Title, job.Description)
	if err := row.Scan(&job.ID, &job.CreatedAt); err != nil {
		return Job{}, err
	}
	return job, nil
}

// GetByID returns the user's job description by id.
func (r *PGJobsRepo) GetByID(ctx context.Context, userID, jobID int64) (Job, error) {
	const query = `
SELECT id, user_id, title, description, created_at
FROM job_descriptions
WHERE id = $1 AND user_id = $2
LIMIT 1`
	var job Job
	err := r.DB.QueryRowContext(ctx, query, jobID, userID).
		Scan(&job.ID, &job.UserID, &job.Title, &job.Description, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	return job, nil
}

// ListByUser returns the user's job descriptions, newest first.
func (r *PGJobsRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Job, error) {
	const query = `
SELECT id, user_id, title, description, created_at
FROM job_descriptions
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

	var out []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.UserID, &job.Title, &job.Description, &job.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Delete removes the user's job description.
func (r *PGJobsRepo) Delete(ctx context.Context, userID, jobID int64) error {
	const query = `DELETE FROM job_descriptions WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, jobID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PGMatchesRepo implements MatchesRepo using Postgres.
type PGMatchesRepo struct {
	DB *sql.DB
}

const matchColumns = `
id, user_id, resume_id, job_id, fit_score, strengths, missing_skills, recommendations, created_at`

// Create inserts a new match record and returns it with its assigned id.
func (r *PGMatchesRepo) Create(ctx context.Context, match Match) (Match, error) {
	const query = `
INSERT INTO job_matches (user_id, resume_id, job_id, fit_score, strengths, missing_skills, recommendations)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`
	strengths, err := json.Marshal(match.Strengths)
	if err != nil {
		return Match{}, err
	}
	missing, err := json.Marshal(match.MissingSkills)
	if err != nil {
		return Match{}, err
	}
	row := r.DB.QueryRowContext(ctx, query,
		match.UserID,
		match.ResumeID,
		match.JobID,
		match.FitScore,
		strengths,
		missing,
		match.Recommendations,
	)
	if err := row.Scan(&match.ID, &match.CreatedAt); err != nil {
		return Match{}, err
	}
	return match, nil
}

// GetByID returns the user's match by id.
func (r *PGMatchesRepo) GetByID(ctx context.Context, userID, matchID int64) (Match, error) {
	const query = `
SELECT ` + matchColumns + `
FROM job_matches
WHERE id = $1 AND user_id = $2
LIMIT 1`
	return scanMatch(r.DB.QueryRowContext(ctx, query, matchID, userID))
}

// ListByUser returns the user's matches, newest first.
func (r *PGMatchesRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Match, error) {
	const query = `
SELECT ` + matchColumns + `
FROM job_matches
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

	var out []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, match)
	}
	return out, rows.Err()
}

// StatsByUser aggregates the user's scored matches.
func (r *PGMatchesRepo) StatsByUser(ctx context.Context, userID int64) (Stats, error) {
	const query = `
SELECT COUNT(*), COALESCE(AVG(fit_score), 0), COALESCE(MAX(fit_score), 0)
FROM job_matches
WHERE user_id = $1 AND fit_score IS NOT NULL`
	var stats Stats
	err := r.DB.QueryRowContext(ctx, query, userID).
		Scan(&stats.TotalMatches, &stats.AverageScore, &stats.BestScore)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Delete removes the user's match record.
func (r *PGMatchesRepo) Delete(ctx context.Context, userID, matchID int64) error {
	const query = `DELETE FROM job_matches WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, matchID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (Match, error) {
	var match Match
	var fitScore sql.NullInt64
	var strengths, missing []byte
	var recommendations sql.NullString
	err := row.Scan(
		&match.ID,
		&match.UserID,
		&match.ResumeID,
		&match.JobID,
		&fitScore,
		&strengths,
		&missing,
		&recommendations,
		&match.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, ErrNotFound
	}
	if err != nil {
		return Match{}, err
	}
	if fitScore.Valid {
		score := int(fitScore.Int64)
		match.FitScore = &score
	}
	match.Recommendations = recommendations.String
	if len(strengths) > 0 {
		_ = json.Unmarshal(strengths, &match.Strengths)
	}
	if len(missing) > 0 {
		_ = json.Unmarshal(missing, &match.MissingSkills)
	}
	return match, nil
}
