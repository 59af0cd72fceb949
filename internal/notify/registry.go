package notify

import (
	"context"
	"sync"

	"resumematch-backend/internal/shared/metrics"
	"resumematch-backend/internal/shared/telemetry"
)

// Channel is one live push connection belonging to a user.
type Channel interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Registry tracks live push channels keyed by user id. A user may hold any
// number of simultaneous channels (multiple tabs or devices). The registry is
// constructed once at process start and passed by handle; there is no global
// instance.
type Registry struct {
	mu       sync.Mutex
	channels map[int64][]Channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[int64][]Channel)}
}

// Connect registers a channel under the user.
func (r *Registry) Connect(userID int64, ch Channel) {
	if ch == nil {
		return
	}
	r.mu.Lock()
	r.channels[userID] = append(r.channels[userID], ch)
	count := len(r.channels[userID])
	r.mu.Unlock()

	metrics.IncWSConnect()
	telemetry.Info("registry.connect", map[string]any{
		"user_id":     userID,
		"connections": count,
	})
}

// Disconnect removes the specific channel. Absent channels are a no-op.
func (r *Registry) Disconnect(userID int64, ch Channel) {
	r.mu.Lock()
	removed := r.removeLocked(userID, ch)
	count := len(r.channels[userID])
	r.mu.Unlock()

	if !removed {
		return
	}
	metrics.IncWSDisconnect()
	telemetry.Info("registry.disconnect", map[string]any{
		"user_id":     userID,
		"connections": count,
	})
}

// Send delivers payload to every channel registered for the user, in
// registration order. A channel whose send fails is treated as dead and
// removed. Users with zero channels drop the message silently; the persisted
// record status is the durable fallback.
func (r *Registry) Send(ctx context.Context, userID int64, payload []byte) {
	r.mu.Lock()
	snapshot := make([]Channel, len(r.channels[userID]))
	copy(snapshot, r.channels[userID])
	r.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var dead []Channel
	for _, ch := range snapshot {
		if err := ch.Send(ctx, payload); err != nil {
			metrics.IncWSSendFailure()
			telemetry.Warn("registry.send_failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			dead = append(dead, ch)
			continue
		}
		metrics.IncWSSend()
	}

	for _, ch := range dead {
		r.Disconnect(userID, ch)
		_ = ch.Close()
	}
}

// Count returns the number of channels currently registered for the user.
func (r *Registry) Count(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[userID])
}

// Close disconnects and closes every channel. Used at process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.channels
	r.channels = make(map[int64][]Channel)
	r.mu.Unlock()

	for _, chans := range all {
		for _, ch := range chans {
			_ = ch.Close()
		}
	}
}

// removeLocked removes ch from the user's list. Caller holds r.mu.
func (r *Registry) removeLocked(userID int64, ch Channel) bool {
	chans := r.channels[userID]
	for i, existing := range chans {
		if existing == ch {
			r.channels[userID] = append(chans[:i], chans[i+1:]...)
			if len(r.channels[userID]) == 0 {
				delete(r.channels, userID)
			}
			return true
		}
	}
	return false
}
