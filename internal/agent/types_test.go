package agent

import (
	"strings"
	"testing"
)

func TestNormalizeProfileTruncatesSkills(t *testing.T) {
	skills := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		skills = append(skills, "skill")
	}

	got := NormalizeProfile(ResumeProfile{Skills: skills})
	if len(got.Skills) != MaxSkills {
		t.Fatalf("skills length = %d, want %d", len(got.Skills), MaxSkills)
	}
	if got.Education == nil || got.Experience.Positions == nil {
		t.Fatal("nil slices should be replaced with empty slices")
	}
}

func TestValidateMatch(t *testing.T) {
	valid := JobMatch{
		FitScore:        85,
		Strengths:       []string{"a", "b", "c"},
		MissingSkills:   []string{"x", "y", "z"},
		Recommendations: []string{"r1", "r2"},
	}
	if err := ValidateMatch(valid); err != nil {
		t.Fatalf("valid match rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(m *JobMatch)
		wantSub string
	}{
		{"score too high", func(m *JobMatch) { m.FitScore = 101 }, "fit_score"},
		{"score negative", func(m *JobMatch) { m.FitScore = -1 }, "fit_score"},
		{"too few strengths", func(m *JobMatch) { m.Strengths = []string{"a"} }, "strengths"},
		{"too many strengths", func(m *JobMatch) { m.Strengths = []string{"a", "b", "c", "d", "e", "f"} }, "strengths"},
		{"too few missing skills", func(m *JobMatch) { m.MissingSkills = nil }, "missing_skills"},
		{"too many recommendations", func(m *JobMatch) { m.Recommendations = []string{"a", "b", "c", "d"} }, "recommendations"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := valid
			tc.mutate(&m)
			err := ValidateMatch(m)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}
