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
	fullAnalysisStartedTotal   atomic.Uint64
	fullAnalysisCompletedTotal atomic.Uint64
	fullAnalysisFailedTotal    atomic.Uint64
	instantAnalysisTotal       atomic.Uint64
	llmCallsTotal              atomic.Uint64
	reviewPagesFetchedTotal    atomic.Uint64

	fullAnalysisDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000, 600000})
)

// IncFullAnalysisStarted increments the started counter.
func IncFullAnalysisStarted() {
	fullAnalysisStartedTotal.Add(1)
}

// IncFullAnalysisCompleted increments the completed counter.
func IncFullAnalysisCompleted() {
	fullAnalysisCompletedTotal.Add(1)
}

// IncFullAnalysisFailed increments the failed counter.
func IncFullAnalysisFailed() {
	fullAnalysisFailedTotal.Add(1)
}

// IncInstantAnalysis increments the instant analysis counter.
func IncInstantAnalysis() {
	instantAnalysisTotal.Add(1)
}

// IncLLMCall increments the LLM call counter.
func IncLLMCall() {
	llmCallsTotal.Add(1)
}

// IncReviewPageFetched increments the upstream review page counter.
func IncReviewPageFetched() {
	reviewPagesFetchedTotal.Add(1)
}

// ObserveFullAnalysisDurationMs records a full-analysis duration in milliseconds.
func ObserveFullAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	fullAnalysisDuration.Observe(value)
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
	writeCounter(&buf, "full_analysis_started_total", "Total full analyses started", fullAnalysisStartedTotal.Load())
	writeCounter(&buf, "full_analysis_completed_total", "Total full analyses completed", fullAnalysisCompletedTotal.Load())
	writeCounter(&buf, "full_analysis_failed_total", "Total full analyses failed", fullAnalysisFailedTotal.Load())
	writeCounter(&buf, "instant_analysis_total", "Total instant analyses served", instantAnalysisTotal.Load())
	writeCounter(&buf, "llm_calls_total", "Total LLM completion calls issued", llmCallsTotal.Load())
	writeCounter(&buf, "review_pages_fetched_total", "Total upstream review pages fetched", reviewPagesFetchedTotal.Load())
	writeHistogram(&buf, "full_analysis_duration_ms", "Full analysis duration in milliseconds", fullAnalysisDuration.Snapshot())
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
