package notify

import (
	"context"
	"encoding/json"
	"time"

	"resumematch-backend/internal/shared/telemetry"
)

// Event types carried on push channels.
const (
	EventResumeUpdate   = "resume_update"
	EventJobMatchUpdate = "job_match_update"
)

// Event is the wire shape of a push update. Data is always present, defaulting
// to an empty object; JobID is only carried on job-match events.
type Event struct {
	Type      string         `json:"type"`
	ResumeID  int64          `json:"resume_id"`
	JobID     *int64         `json:"job_id,omitempty"`
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Progress  int            `json:"progress"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

// Notifier builds and delivers progress events through a registry.
type Notifier struct {
	registry *Registry
}

// NewNotifier wraps the registry with event construction.
func NewNotifier(registry *Registry) *Notifier {
	return &Notifier{registry: registry}
}

// ResumeStatus pushes a resume pipeline update to the user.
func (n *Notifier) ResumeStatus(ctx context.Context, userID, resumeID int64, status, message string, progress int, data map[string]any) {
	n.send(ctx, userID, Event{
		Type:     EventResumeUpdate,
		ResumeID: resumeID,
		Status:   status,
		Message:  message,
		Progress: progress,
		Data:     data,
	})
}

// JobMatchStatus pushes a job-match pipeline update to the user.
func (n *Notifier) JobMatchStatus(ctx context.Context, userID, resumeID, jobID int64, status, message string, progress int, data map[string]any) {
	n.send(ctx, userID, Event{
		Type:     EventJobMatchUpdate,
		ResumeID: resumeID,
		JobID:    &jobID,
		Status:   status,
		Message:  message,
		Progress: progress,
		Data:     data,
	})
}

func (n *Notifier) send(ctx context.Context, userID int64, ev Event) {
	if n == nil || n.registry == nil {
		return
	}
	if ev.Data == nil {
		ev.Data = map[string]any{}
	}
	ev.Timestamp = float64(time.Now().UnixMilli()) / 1000.0

	payload, err := json.Marshal(ev)
	if err != nil {
		telemetry.Error("notify.marshal_failed", map[string]any{
			"user_id": userID,
			"type":    ev.Type,
			"error":   err.Error(),
		})
		return
	}
	n.registry.Send(ctx, userID, payload)
}
