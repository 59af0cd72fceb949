package agent

import "fmt"

// MaxSkills caps the number of skills the extraction agent may return.
const MaxSkills = 15

// Position is one held role inside a profile's work history.
type Position struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	Years   string `json:"years"`
}

// Experience is the structured work history of a profile.
type Experience struct {
	TotalYears *float64   `json:"total_years"`
	Positions  []Position `json:"positions"`
}

// ResumeProfile is the structured record extracted from resume text.
type ResumeProfile struct {
	Skills     []string   `json:"skills"`
	Experience Experience `json:"experience"`
	Education  []string   `json:"education"`
	Summary    string     `json:"summary"`
}

// JobMatch is the structured scoring record produced by the matching agent.
type JobMatch struct {
	FitScore        int      `json:"fit_score"`
	Strengths       []string `json:"strengths"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations []string `json:"recommendations"`
}

// NormalizeProfile coerces an agent profile into the shape the rest of the
// system relies on: non-nil slices and at most MaxSkills skills. Oversized
// skill lists are truncated rather than rejected.
func NormalizeProfile(p ResumeProfile) ResumeProfile {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if len(p.Skills) > MaxSkills {
		p.Skills = p.Skills[:MaxSkills]
	}
	if p.Education == nil {
		p.Education = []string{}
	}
	if p.Experience.Positions == nil {
		p.Experience.Positions = []Position{}
	}
	return p
}

// ValidateMatch enforces the matching agent's output schema: score in 0-100,
// 3-5 strengths, 3-5 missing skills, 2-3 recommendations.
func ValidateMatch(m JobMatch) error {
	if m.FitScore < 0 || m.FitScore > 100 {
		return fmt.Errorf("fit_score %d out of range 0-100", m.FitScore)
	}
	if n := len(m.Strengths); n < 3 || n > 5 {
		return fmt.Errorf("strengths count %d out of range 3-5", n)
	}
	if n := len(m.MissingSkills); n < 3 || n > 5 {
		return fmt.Errorf("missing_skills count %d out of range 3-5", n)
	}
	if n := len(m.Recommendations); n < 2 || n > 3 {
		return fmt.Errorf("recommendations count %d out of range 2-3", n)
	}
	return nil
}
