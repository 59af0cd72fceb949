package resumes

import (
	"time"

	"resumematch-backend/internal/agent"
)

// Resume pipeline statuses. A resume moves uploaded -> extracting -> analyzing
// -> analyzed, or to failed from any in-flight stage.
const (
	StatusUploaded   = "uploaded"
	StatusExtracting = "extracting"
	StatusAnalyzing  = "analyzing"
	StatusAnalyzed   = "analyzed"
	StatusFailed     = "failed"
)

// Resume is the stored record for one uploaded resume.
type Resume struct {
	ID            int64
	UserID        int64
	FileName      string
	StorageKey    string
	TextExtracted string
	Skills        []string
	Experience    agent.Experience
	Education     []string
	Summary       string
	Status        string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Response is the JSON shape handlers return for a resume.
type Response struct {
	ID              int64    `json:"id"`
	FileName        string   `json:"file_name"`
	Status          string   `json:"status"`
	IsActive        bool     `json:"is_active"`
	Skills          []string `json:"skills"`
	ExperienceYears *float64 `json:"experience_years"`
	Education       []string `json:"education"`
	Summary         string   `json:"summary,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ToResponse converts a stored resume into its API shape.
func ToResponse(r Resume) Response {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	education := r.Education
	if education == nil {
		education = []string{}
	}
	return Response{
		ID:              r.ID,
		FileName:        r.FileName,
		Status:          r.Status,
		IsActive:        r.IsActive,
		Skills:          skills,
		ExperienceYears: r.Experience.TotalYears,
		Education:       education,
		Summary:         r.Summary,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
