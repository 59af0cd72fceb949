package jobs

import (
	"strings"
	"time"
)

// Job is a stored job description a user wants scored against a resume.
type Job struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// Match is the stored outcome of one successful matching run. Rows are written
// once and never mutated.
type Match struct {
	ID              int64
	UserID          int64
	ResumeID        int64
	JobID           int64
	FitScore        *int
	Strengths       []string
	MissingSkills   []string
	Recommendations string
	CreatedAt       time.Time
}

// Stats aggregates a user's matching history.
type Stats struct {
	TotalMatches int     `json:"total_matches"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}

// JobResponse is the JSON shape handlers return for a job description.
type JobResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// MatchResponse is the JSON shape handlers return for a match.
type MatchResponse struct {
	ID              int64    `json:"id"`
	ResumeID        int64    `json:"resume_id"`
	JobID           int64    `json:"job_id"`
	FitScore        *int     `json:"fit_score"`
	Strengths       []string `json:"strengths"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations []string `json:"recommendations"`
	CreatedAt       string   `json:"created_at"`
}

// ToJobResponse converts a stored job into its API shape.
func ToJobResponse(j Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		CreatedAt:   j.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToMatchResponse converts a stored match into its API shape. Recommendations
// persist as one newline-joined block and come back as a list.
func ToMatchResponse(m Match) MatchResponse {
	strengths := m.Strengths
	if strengths == nil {
		strengths = []string{}
	}
	missing := m.MissingSkills
	if missing == nil {
		missing = []string{}
	}
	var recommendations []string
	if m.Recommendations != "" {
		recommendations = strings.Split(m.Recommendations, "\n")
	} else {
		recommendations = []string{}
	}
	return MatchResponse{
		ID:              m.ID,
		ResumeID:        m.ResumeID,
		JobID:           m.JobID,
		FitScore:        m.FitScore,
		Strengths:       strengths,
		MissingSkills:   missing,
		Recommendations: recommendations,
		CreatedAt:       m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
