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
	generationStartedTotal     atomic.Uint64
	generationCompletedTotal   atomic.Uint64
	generationFailedTotal      atomic.Uint64
	extractionDegradedTotal    atomic.Uint64
	creditFinalizeFailedTotal  atomic.Uint64
	completionPublishFailTotal atomic.Uint64
	completionEventsReceived   atomic.Uint64
	completionEventsVerified   atomic.Uint64
	completionEventsRejected   atomic.Uint64

	generationDuration = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000})
)

// IncGenerationStarted increments the started counter.
func IncGenerationStarted() {
	generationStartedTotal.Add(1)
}

// IncGenerationCompleted increments the completed counter.
func IncGenerationCompleted() {
	generationCompletedTotal.Add(1)
}

// IncGenerationFailed increments the failed counter.
func IncGenerationFailed() {
	generationFailedTotal.Add(1)
}

// IncExtractionDegraded counts runs that continued with an empty keyword set.
func IncExtractionDegraded() {
	extractionDegradedTotal.Add(1)
}

// IncCreditFinalizationFailed counts completed runs whose credit was not consumed.
func IncCreditFinalizationFailed() {
	creditFinalizeFailedTotal.Add(1)
}

func IncCompletionPublishFailed() {
	completionPublishFailTotal.Add(1)
}

// IncCompletionEventsReceived counts completion events picked up by the worker.
func IncCompletionEventsReceived() {
	completionEventsReceived.Add(1)
}

func IncCompletionEventsVerified() {
	completionEventsVerified.Add(1)
}

// IncCompletionEventsRejected counts events dropped as unrecoverable.
func IncCompletionEventsRejected() {
	completionEventsRejected.Add(1)
}

// ObserveGenerationDurationMs records a run duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
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
	writeCounter(&buf, "generation_started_total", "Total generation runs started", generationStartedTotal.Load())
	writeCounter(&buf, "generation_completed_total", "Total generation runs completed", generationCompletedTotal.Load())
	writeCounter(&buf, "generation_failed_total", "Total generation runs failed", generationFailedTotal.Load())
	writeCounter(&buf, "keyword_extraction_degraded_total", "Runs that continued with no extracted keywords", extractionDegradedTotal.Load())
	writeCounter(&buf, "credit_finalization_failed_total", "Completed runs whose credit decrement failed", creditFinalizeFailedTotal.Load())
	writeCounter(&buf, "completion_publish_failed_total", "Completion events that could not be published", completionPublishFailTotal.Load())
	writeCounter(&buf, "completion_events_received_total", "Completion events received by the worker", completionEventsReceived.Load())
	writeCounter(&buf, "completion_events_verified_total", "Completion events matched to a stored resume", completionEventsVerified.Load())
	writeCounter(&buf, "completion_events_rejected_total", "Completion events dropped as unrecoverable", completionEventsRejected.Load())
	writeHistogram(&buf, "generation_duration_ms", "Generation run duration in milliseconds", generationDuration.Snapshot())
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

// Observe counts value in the first bucket whose bound covers it; cumulative
// totals are produced at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
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
