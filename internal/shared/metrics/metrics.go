package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	resumeRunsStartedTotal   atomic.Uint64
	resumeRunsCompletedTotal atomic.Uint64
	resumeRunsFailedTotal    atomic.Uint64

	matchRunsStartedTotal   atomic.Uint64
	matchRunsCompletedTotal atomic.Uint64
	matchRunsFailedTotal    atomic.Uint64

	wsConnectsTotal     atomic.Uint64
	wsDisconnectsTotal  atomic.Uint64
	wsSendsTotal        atomic.Uint64
	wsSendFailuresTotal atomic.Uint64

	resumeRunDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	matchRunDuration  = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncResumeRunStarted increments the resume pipeline started counter.
func IncResumeRunStarted() { resumeRunsStartedTotal.Add(1) }

// IncResumeRunCompleted increments the resume pipeline completed counter.
func IncResumeRunCompleted() { resumeRunsCompletedTotal.Add(1) }

// IncResumeRunFailed increments the resume pipeline failed counter.
func IncResumeRunFailed() { resumeRunsFailedTotal.Add(1) }

// IncMatchRunStarted increments the matching pipeline started counter.
func IncMatchRunStarted() { matchRunsStartedTotal.Add(1) }

// IncMatchRunCompleted increments the matching pipeline completed counter.
func IncMatchRunCompleted() { matchRunsCompletedTotal.Add(1) }

// IncMatchRunFailed increments the matching pipeline failed counter.
func IncMatchRunFailed() { matchRunsFailedTotal.Add(1) }

// IncWSConnect increments the websocket connect counter.
func IncWSConnect() { wsConnectsTotal.Add(1) }

// IncWSDisconnect increments the websocket disconnect counter.
func IncWSDisconnect() { wsDisconnectsTotal.Add(1) }

// IncWSSend increments the websocket send counter.
func IncWSSend() { wsSendsTotal.Add(1) }

// IncWSSendFailure increments the websocket send failure counter.
func IncWSSendFailure() { wsSendFailuresTotal.Add(1) }

// ObserveResumeRunDurationMs records a resume pipeline duration in milliseconds.
func ObserveResumeRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	resumeRunDuration.Observe(value)
}

// ObserveMatchRunDurationMs records a matching pipeline duration in milliseconds.
func ObserveMatchRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	matchRunDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resume_runs_started_total", "Total resume pipeline runs started", resumeRunsStartedTotal.Load())
	writeCounter(&buf, "resume_runs_completed_total", "Total resume pipeline runs completed", resumeRunsCompletedTotal.Load())
	writeCounter(&buf, "resume_runs_failed_total", "Total resume pipeline runs failed", resumeRunsFailedTotal.Load())
	writeCounter(&buf, "match_runs_started_total", "Total matching pipeline runs started", matchRunsStartedTotal.Load())
	writeCounter(&buf, "match_runs_completed_total", "Total matching pipeline runs completed", matchRunsCompletedTotal.Load())
	writeCounter(&buf, "match_runs_failed_total", "Total matching pipeline runs failed", matchRunsFailedTotal.Load())
	writeCounter(&buf, "ws_connects_total", "Total websocket connections accepted", wsConnectsTotal.Load())
	writeCounter(&buf, "ws_disconnects_total", "Total websocket disconnections", wsDisconnectsTotal.Load())
	writeCounter(&buf, "ws_sends_total", "Total websocket messages sent", wsSendsTotal.Load())
	writeCounter(&buf, "ws_send_failures_total", "Total websocket send failures", wsSendFailuresTotal.Load())
	writeHistogram(&buf, "resume_run_duration_ms", "Resume pipeline duration in milliseconds", resumeRunDuration.Snapshot())
	writeHistogram(&buf, "match_run_duration_ms", "Matching pipeline duration in milliseconds", matchRunDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
