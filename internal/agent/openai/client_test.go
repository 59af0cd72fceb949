package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resumematch-backend/internal/agent"
)

func newTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		resp := map[string]any{
			"id":    "chatcmpl-1",
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestAnalyzeResumeParsesProfile(t *testing.T) {
	srv := newTestServer(t, `{"skills":["Python","Go"],"experience":{"total_years":5,"positions":[{"title":"Engineer","company":"Acme","years":"2018 - 2023"}]},"education":["BSc"],"summary":"An engineer."}`)
	defer srv.Close()

	client, err := NewClient("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	profile, err := client.AnalyzeResume(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("AnalyzeResume: %v", err)
	}
	if len(profile.Skills) != 2 || profile.Skills[0] != "Python" {
		t.Fatalf("skills = %v", profile.Skills)
	}
	if profile.Experience.TotalYears == nil || *profile.Experience.TotalYears != 5 {
		t.Fatalf("total_years = %v", profile.Experience.TotalYears)
	}
	if len(profile.Experience.Positions) != 1 || profile.Experience.Positions[0].Company != "Acme" {
		t.Fatalf("positions = %v", profile.Experience.Positions)
	}
}

func TestAnalyzeResumeStripsCodeFence(t *testing.T) {
	srv := newTestServer(t, "```json\n{\"skills\":[],\"experience\":{\"total_years\":null,\"positions\":[]},\"education\":[],\"summary\":\"s\"}\n```")
	defer srv.Close()

	client, err := NewClient("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	profile, err := client.AnalyzeResume(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("AnalyzeResume: %v", err)
	}
	if profile.Summary != "s" {
		t.Fatalf("summary = %q", profile.Summary)
	}
}

func TestMatchJobRejectsSchemaViolations(t *testing.T) {
	srv := newTestServer(t, `{"fit_score":150,"strengths":["a","b","c"],"missing_skills":["x","y","z"],"recommendations":["r1","r2"]}`)
	defer srv.Close()

	client, err := NewClient("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.MatchJob(context.Background(), "a job", agent.ResumeProfile{})
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if !strings.Contains(err.Error(), "fit_score") {
		t.Fatalf("error = %v", err)
	}
}

func TestMatchJobAcceptsValidResult(t *testing.T) {
	srv := newTestServer(t, `{"fit_score":72,"strengths":["a","b","c"],"missing_skills":["x","y","z"],"recommendations":["r1","r2","r3"]}`)
	defer srv.Close()

	client, err := NewClient("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	match, err := client.MatchJob(context.Background(), "a job", agent.ResumeProfile{})
	if err != nil {
		t.Fatalf("MatchJob: %v", err)
	}
	if match.FitScore != 72 || len(match.Recommendations) != 3 {
		t.Fatalf("match = %+v", match)
	}
}

func TestMatchJobEncodesJobTextSafely(t *testing.T) {
	var userContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		for _, msg := range req.Messages {
			if msg.Role == "user" {
				userContent = msg.Content
			}
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"fit_score":72,"strengths":["a","b","c"],"missing_skills":["x","y","z"],"recommendations":["r1","r2"]}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, err := NewClient("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	jobText := "Senior \"Go\" engineer\nRemote, must know SQL"
	if _, err := client.MatchJob(context.Background(), jobText, agent.ResumeProfile{}); err != nil {
		t.Fatalf("MatchJob: %v", err)
	}

	var payload struct {
		JobDescription string          `json:"job_description"`
		CandidateData  json.RawMessage `json:"candidate_data"`
	}
	if err := json.Unmarshal([]byte(userContent), &payload); err != nil {
		t.Fatalf("user message is not well-formed JSON: %v\n%s", err, userContent)
	}
	if payload.JobDescription != jobText {
		t.Fatalf("job text mangled: %q", payload.JobDescription)
	}
}

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient("key", "", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
	if _, err := NewClient("", "model", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
