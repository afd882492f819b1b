// Package tasks coordinates the analysis workflows: instant analysis served
// inline, full analysis run in the background behind a polling token, and
// autocomplete suggestions.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
	"github.com/AswanthManoj/stay-insight/internal/resultstore"
	"github.com/AswanthManoj/stay-insight/internal/shared/metrics"
	"github.com/AswanthManoj/stay-insight/internal/shared/telemetry"
)

const (
	// maxConcurrentBatches bounds LLM fan-out within one full analysis.
	maxConcurrentBatches = 8

	cleanupInterval = time.Hour
	jobRetention    = 24 * time.Hour
)

// Job statuses reported to pollers.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	// ErrInvalidToken is returned when polling with an unknown or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNoReviews signals that a place has no reviews to analyze.
	ErrNoReviews = errors.New("no_reviews")
)

// ReviewSource collects reviews for a place.
type ReviewSource interface {
	Fetch(ctx context.Context, dataID string, full bool) (*analysis.AnalysisResult, error)
}

// SuggestionSource resolves place search queries.
type SuggestionSource interface {
	Suggestions(ctx context.Context, query string, latitude, longitude float64, typeFilter string) (*analysis.SuggestionResult, error)
}

// ReportGenerator produces and merges structured reports.
type ReportGenerator interface {
	Analyze(ctx context.Context, result *analysis.AnalysisResult) error
	Combine(ctx context.Context, results []*analysis.AnalysisResult) (*analysis.AnalysisResult, error)
}

type job struct {
	status    string
	createdAt time.Time
	result    *analysis.AnalysisResult
	errMsg    string
}

// JobView is a point-in-time snapshot of a background job.
type JobView struct {
	Status string
	Result *analysis.AnalysisResult
	Error  string
}

// Manager owns the in-memory job table and drives both analysis workflows.
type Manager struct {
	fetcher   ReviewSource
	suggester SuggestionSource
	analyzer  ReportGenerator
	store     resultstore.Store
	batchSize int

	mu   sync.Mutex
	jobs map[string]*job

	cleanupOnce sync.Once
	now         func() time.Time
}

// NewManager wires a Manager. batchSize controls how many reviews go into
// each LLM batch during full analysis.
func NewManager(fetcher ReviewSource, suggester SuggestionSource, analyzer ReportGenerator, store resultstore.Store, batchSize int) *Manager {
	if batchSize <= 0 {
		batchSize = 30
	}
	return &Manager{
		fetcher:   fetcher,
		suggester: suggester,
		analyzer:  analyzer,
		store:     store,
		batchSize: batchSize,
		jobs:      make(map[string]*job),
		now:       time.Now,
	}
}

// Autocomplete resolves a place search query.
func (m *Manager) Autocomplete(ctx context.Context, query string, latitude, longitude float64, typeFilter string) (*analysis.SuggestionResult, error) {
	return m.suggester.Suggestions(ctx, query, latitude, longitude, typeFilter)
}

// InstantAnalysis serves a bounded analysis inline. Results are cached per
// place; a cache hit skips both fetching and the LLM entirely.
func (m *Manager) InstantAnalysis(ctx context.Context, dataID string) (*analysis.AnalysisResult, error) {
	cached, err := m.store.Get(ctx, dataID, resultstore.KindInstant)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, resultstore.ErrNotFound) {
		telemetry.Warn("tasks.instant.cache_lookup", map[string]any{
			"data_id": dataID,
			"error":   err.Error(),
		})
	}

	result, err := m.fetcher.Fetch(ctx, dataID, false)
	if err != nil {
		return nil, err
	}
	if len(result.Reviews) == 0 {
		return nil, ErrNoReviews
	}

	if err := m.analyzer.Analyze(ctx, result); err != nil {
		return nil, err
	}
	result.Reviews = analysis.SortReviewsByDate(result.Reviews, true)
	metrics.IncInstantAnalysis()

	if err := m.store.Put(ctx, dataID, resultstore.KindInstant, result); err != nil {
		telemetry.Error("tasks.instant.cache_store", map[string]any{
			"data_id": dataID,
			"error":   err.Error(),
		})
	}
	return result, nil
}

// FullAnalysis schedules (or reuses) a background full analysis and returns
// the polling token. The token is the place's data_id, so repeated requests
// for the same place share one job.
func (m *Manager) FullAnalysis(ctx context.Context, dataID string) (string, error) {
	token := dataID

	cached, err := m.store.Get(ctx, dataID, resultstore.KindFull)
	if err == nil {
		m.mu.Lock()
		m.jobs[token] = &job{status: StatusCompleted, createdAt: m.now(), result: cached}
		m.mu.Unlock()
		return token, nil
	}
	if !errors.Is(err, resultstore.ErrNotFound) {
		telemetry.Warn("tasks.full.cache_lookup", map[string]any{
			"data_id": dataID,
			"error":   err.Error(),
		})
	}

	m.mu.Lock()
	if existing, ok := m.jobs[token]; ok && existing.status == StatusInProgress {
		m.mu.Unlock()
		return token, nil
	}
	m.jobs[token] = &job{status: StatusInProgress, createdAt: m.now()}
	m.mu.Unlock()

	go m.processFullAnalysis(backgroundWithRequestID(ctx), dataID, token)
	return token, nil
}

// GetResult returns the current state of a job.
func (m *Manager) GetResult(token string) (JobView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.jobs[token]
	if !ok {
		return JobView{}, fmt.Errorf("%w: %s", ErrInvalidToken, token)
	}
	return JobView{Status: entry.status, Result: entry.result, Error: entry.errMsg}, nil
}

func (m *Manager) processFullAnalysis(ctx context.Context, dataID, token string) {
	defer func() {
		if r := recover(); r != nil {
			m.failJob(ctx, token, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := m.now()
	metrics.IncFullAnalysisStarted()

	result, err := m.fetcher.Fetch(ctx, dataID, true)
	if err != nil {
		m.failJob(ctx, token, err, &startedAt)
		return
	}
	if len(result.Reviews) == 0 {
		m.failJob(ctx, token, ErrNoReviews, &startedAt)
		return
	}

	batches := partitionReviews(result.Reviews, m.batchSize)
	batchResults := make([]*analysis.AnalysisResult, len(batches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			batchResult := result.Clone()
			batchResult.Reviews = batch
			if err := m.analyzer.Analyze(gCtx, batchResult); err != nil {
				return err
			}
			batchResults[i] = batchResult
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.failJob(ctx, token, err, &startedAt)
		return
	}

	chunkSize := m.batchSize / 2
	if chunkSize < 1 {
		chunkSize = 1
	}
	combined, err := m.combineLevel(ctx, batchResults, chunkSize)
	if err != nil {
		m.failJob(ctx, token, err, &startedAt)
		return
	}

	final := combined[0]
	final.Reviews = analysis.SortReviewsByDate(result.Reviews, true)

	if err := m.store.Put(ctx, dataID, resultstore.KindFull, final); err != nil {
		telemetry.Error("tasks.full.cache_store", map[string]any{
			"data_id": dataID,
			"error":   err.Error(),
		})
	}

	completedAt := m.now()
	m.mu.Lock()
	m.jobs[token] = &job{status: StatusCompleted, createdAt: completedAt, result: final}
	m.mu.Unlock()

	metrics.IncFullAnalysisCompleted()
	metrics.ObserveFullAnalysisDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"data_id":           dataID,
		"token":             token,
		"status":            StatusCompleted,
		"status_transition": "in_progress->completed",
		"batches":           len(batches),
		"reviews":           len(result.Reviews),
		"duration_ms":       durationMs(startedAt, completedAt),
	})
}

// combineLevel merges batch reports hierarchically: each level combines
// chunkSize reports into one until a single report remains.
func (m *Manager) combineLevel(ctx context.Context, results []*analysis.AnalysisResult, chunkSize int) ([]*analysis.AnalysisResult, error) {
	if len(results) <= 1 {
		return results, nil
	}

	chunks := partitionResults(results, chunkSize)
	combined := make([]*analysis.AnalysisResult, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			merged, err := m.analyzer.Combine(gCtx, chunk)
			if err != nil {
				return err
			}
			combined[i] = merged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(combined) > 1 {
		return m.combineLevel(ctx, combined, chunkSize)
	}
	return combined, nil
}

func (m *Manager) failJob(ctx context.Context, token string, err error, startedAt *time.Time) {
	completedAt := m.now()
	m.mu.Lock()
	m.jobs[token] = &job{status: StatusFailed, createdAt: completedAt, errMsg: err.Error()}
	m.mu.Unlock()

	metrics.IncFullAnalysisFailed()
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"token":             token,
		"status":            StatusFailed,
		"status_transition": "in_progress->failed",
		"error":             err.Error(),
	}
	if startedAt != nil {
		fields["duration_ms"] = durationMs(*startedAt, completedAt)
	}
	telemetry.Error("analysis.status", fields)
}

// StartCleanup launches the hourly sweep that drops jobs older than the
// retention window. Safe to call more than once; only the first call starts
// the sweeper.
func (m *Manager) StartCleanup(ctx context.Context) {
	m.cleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					removed := m.removeExpired(m.now())
					if removed > 0 {
						telemetry.Info("tasks.cleanup", map[string]any{"removed": removed})
					}
				}
			}
		}()
	})
}

func (m *Manager) removeExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, entry := range m.jobs {
		if now.Sub(entry.createdAt) > jobRetention {
			delete(m.jobs, token)
			removed++
		}
	}
	return removed
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

func partitionReviews(reviews []analysis.Review, size int) [][]analysis.Review {
	if size <= 0 {
		size = 1
	}
	batches := make([][]analysis.Review, 0, (len(reviews)+size-1)/size)
	for start := 0; start < len(reviews); start += size {
		end := start + size
		if end > len(reviews) {
			end = len(reviews)
		}
		batches = append(batches, reviews[start:end])
	}
	return batches
}

func partitionResults(results []*analysis.AnalysisResult, size int) [][]*analysis.AnalysisResult {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]*analysis.AnalysisResult, 0, (len(results)+size-1)/size)
	for start := 0; start < len(results); start += size {
		end := start + size
		if end > len(results) {
			end = len(results)
		}
		chunks = append(chunks, results[start:end])
	}
	return chunks
}
