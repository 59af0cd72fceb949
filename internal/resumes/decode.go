package resumes

import (
	"encoding/json"

	"resumematch-backend/internal/agent"
	"resumematch-backend/internal/shared/telemetry"
)

// DecodeExperience parses a stored experience payload. Historical rows may
// hold malformed or legacy shapes; those decode to the zero value instead of
// failing the read.
func DecodeExperience(raw []byte) agent.Experience {
	if len(raw) == 0 {
		return agent.Experience{}
	}
	var exp agent.Experience
	if err := json.Unmarshal(raw, &exp); err != nil {
		telemetry.Warn("resumes.experience_decode_failed", map[string]any{
			"error": err.Error(),
		})
		return agent.Experience{}
	}
	return exp
}

// DecodeStringList parses a stored jsonb string array, tolerating nulls.
func DecodeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		telemetry.Warn("resumes.list_decode_failed", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	return out
}
