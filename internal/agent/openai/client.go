package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"resumematch-backend/internal/agent"
	"resumematch-backend/internal/shared/telemetry"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client implements the analysis and matching agents using an
// OpenAI-compatible Chat Completions endpoint.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs a new client. baseURL may be empty for api.openai.com,
// or point at any OpenAI-compatible provider.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("AGENT_MODEL is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("AGENT_API_KEY is required")
	}
	apiURL := defaultAPIURL
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		apiURL = strings.TrimRight(trimmed, "/") + "/chat/completions"
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("AGENT_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AnalyzeResume extracts a structured profile from resume text.
func (c *Client) AnalyzeResume(ctx context.Context, resumeText string) (agent.ResumeProfile, error) {
	messages := []chatMessage{
		{Role: "system", Content: extractionPrompt},
		{Role: "user", Content: resumeText},
	}

	var profile agent.ResumeProfile
	if err := c.completeJSON(ctx, "analyze_resume", messages, &profile); err != nil {
		return agent.ResumeProfile{}, err
	}
	return agent.NormalizeProfile(profile), nil
}

// MatchJob scores a structured profile against a job description.
func (c *Client) MatchJob(ctx context.Context, jobDescription string, profile agent.ResumeProfile) (agent.JobMatch, error) {
	candidate, err := json.Marshal(profile)
	if err != nil {
		return agent.JobMatch{}, fmt.Errorf("encode candidate profile: %w", err)
	}
	// The job text is user input and may contain quotes or newlines, so it is
	// JSON-encoded like the profile to keep the message well-formed.
	jobText, err := json.Marshal(jobDescription)
	if err != nil {
		return agent.JobMatch{}, fmt.Errorf("encode job description: %w", err)
	}
	messages := []chatMessage{
		{Role: "system", Content: matchPrompt},
		{Role: "user", Content: fmt.Sprintf("{\"job_description\": %s,\n\"candidate_data\": %s}", jobText, candidate)},
	}

	var match agent.JobMatch
	if err := c.completeJSON(ctx, "match_job", messages, &match); err != nil {
		return agent.JobMatch{}, err
	}
	if err := agent.ValidateMatch(match); err != nil {
		return agent.JobMatch{}, fmt.Errorf("agent output invalid: %w", err)
	}
	return match, nil
}

// completeJSON performs one completion call and decodes the JSON output into
// out. Invalid JSON triggers a single repair round-trip before failing.
func (c *Client) completeJSON(ctx context.Context, op string, messages []chatMessage, out any) error {
	raw, err := c.completeOnce(ctx, op, messages)
	if err != nil {
		return err
	}
	if json.Valid(raw) {
		return json.Unmarshal(raw, out)
	}

	fixMessages := []chatMessage{
		{Role: "system", Content: fixJSONPrompt},
		{Role: "user", Content: string(raw)},
	}
	raw, err = c.completeOnce(ctx, op+"_fix_json", fixMessages)
	if err != nil {
		return err
	}
	if !json.Valid(raw) {
		return fmt.Errorf("invalid JSON from agent after repair")
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) completeOnce(ctx context.Context, op string, messages []chatMessage) (json.RawMessage, error) {
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode agent response status=%d: %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("agent error status=%d type=%s: %s", resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("agent returned no choices")
	}

	if parsed.Usage != nil {
		telemetry.Info("agent.usage", map[string]any{
			"op":                op,
			"model":             c.model,
			"prompt_tokens":     parsed.Usage.PromptTokens,
			"completion_tokens": parsed.Usage.CompletionTokens,
			"total_tokens":      parsed.Usage.TotalTokens,
		})
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	content = stripCodeFence(content)
	return json.RawMessage(content), nil
}

// stripCodeFence removes a surrounding ```json fence some providers add even
// in JSON mode.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var (
	_ agent.ResumeAnalyzer = (*Client)(nil)
	_ agent.JobMatcher     = (*Client)(nil)
)
