package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	interviewsStartedTotal   atomic.Uint64
	interviewsCompletedTotal atomic.Uint64
	interviewsGradedTotal    atomic.Uint64
	answersSubmittedTotal    atomic.Uint64
	answersTimedOutTotal     atomic.Uint64
	chatMessagesTotal        atomic.Uint64
	providerErrorsTotal      atomic.Uint64
	quotaDeniedTotal         atomic.Uint64

	gradingDuration  = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	providerDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncInterviewStarted increments the started counter.
func IncInterviewStarted() {
	interviewsStartedTotal.Add(1)
}

// IncInterviewCompleted increments the completed counter.
func IncInterviewCompleted() {
	interviewsCompletedTotal.Add(1)
}

// IncInterviewGraded increments the graded counter.
func IncInterviewGraded() {
	interviewsGradedTotal.Add(1)
}

// IncAnswerSubmitted increments the submitted-answer counter.
func IncAnswerSubmitted() {
	answersSubmittedTotal.Add(1)
}

// IncAnswerTimedOut increments the timed-out answer counter.
func IncAnswerTimedOut() {
	answersTimedOutTotal.Add(1)
}

// IncChatMessage increments the chat message counter.
func IncChatMessage() {
	chatMessagesTotal.Add(1)
}

// IncProviderError increments the provider failure counter.
func IncProviderError() {
	providerErrorsTotal.Add(1)
}

// IncQuotaDenied increments the quota denial counter.
func IncQuotaDenied() {
	quotaDeniedTotal.Add(1)
}

// ObserveGradingDurationMs records a full grading pass duration in milliseconds.
func ObserveGradingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	gradingDuration.Observe(value)
}

// ObserveProviderDurationMs records one provider call duration in milliseconds.
func ObserveProviderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	providerDuration.Observe(value)
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
	writeCounter(&buf, "interviews_started_total", "Total interview sessions started", interviewsStartedTotal.Load())
	writeCounter(&buf, "interviews_completed_total", "Total interview sessions completed", interviewsCompletedTotal.Load())
	writeCounter(&buf, "interviews_graded_total", "Total interview sessions graded", interviewsGradedTotal.Load())
	writeCounter(&buf, "answers_submitted_total", "Total answers submitted", answersSubmittedTotal.Load())
	writeCounter(&buf, "answers_timed_out_total", "Total answers marked timed out", answersTimedOutTotal.Load())
	writeCounter(&buf, "chat_messages_total", "Total chat messages sent", chatMessagesTotal.Load())
	writeCounter(&buf, "provider_errors_total", "Total AI provider failures", providerErrorsTotal.Load())
	writeCounter(&buf, "quota_denied_total", "Total requests denied by plan quota", quotaDeniedTotal.Load())
	writeHistogram(&buf, "grading_duration_ms", "Grading pass duration in milliseconds", gradingDuration.Snapshot())
	writeHistogram(&buf, "provider_call_duration_ms", "AI provider call duration in milliseconds", providerDuration.Snapshot())
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
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
