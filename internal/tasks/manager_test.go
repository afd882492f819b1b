package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
	"github.com/AswanthManoj/stay-insight/internal/resultstore"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	reviews int
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, dataID string, full bool) (*analysis.AnalysisResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.AnalysisResult{
		Type:         "Hotel",
		Title:        "Sea View",
		Status:       "Success",
		Rating:       4.3,
		DataID:       dataID,
		Address:      "Kochi",
		TotalReviews: 812,
		Reviews:      makeReviews(f.reviews),
	}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func makeReviews(n int) []analysis.Review {
	reviews := make([]analysis.Review, n)
	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i := range reviews {
		reviews[i] = analysis.Review{
			User:       fmt.Sprintf("user-%d", i),
			Date:       base.Add(time.Duration(i) * 24 * time.Hour).Format("January 02, 2006 at 03:04 PM UTC"),
			Rating:     4,
			ReviewText: "nice",
		}
	}
	return reviews
}

type fakeSuggester struct {
	result *analysis.SuggestionResult
	err    error
}

func (f *fakeSuggester) Suggestions(ctx context.Context, query string, latitude, longitude float64, typeFilter string) (*analysis.SuggestionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	mu           sync.Mutex
	analyzeCalls int
	combineCalls int
	batchSizes   []int
	chunkSizes   []int
	gate         chan struct{}
	analyzeErr   error
}

func (f *fakeGenerator) Analyze(ctx context.Context, result *analysis.AnalysisResult) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.analyzeCalls++
	f.batchSizes = append(f.batchSizes, len(result.Reviews))
	f.mu.Unlock()
	if f.analyzeErr != nil {
		return f.analyzeErr
	}
	result.StayAnalysis = &analysis.StayAnalysis{Summary: fmt.Sprintf("batch of %d", len(result.Reviews))}
	return nil
}

func (f *fakeGenerator) Combine(ctx context.Context, results []*analysis.AnalysisResult) (*analysis.AnalysisResult, error) {
	if len(results) == 1 {
		return results[0], nil
	}
	f.mu.Lock()
	f.combineCalls++
	f.chunkSizes = append(f.chunkSizes, len(results))
	f.mu.Unlock()
	combined := results[0].Clone()
	combined.StayAnalysis = &analysis.StayAnalysis{Summary: fmt.Sprintf("combined %d", len(results))}
	return combined, nil
}

func (f *fakeGenerator) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls, f.combineCalls
}

func waitForStatus(t *testing.T, m *Manager, token, status string) JobView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		view, err := m.GetResult(token)
		if err == nil && view.Status == status {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	view, err := m.GetResult(token)
	t.Fatalf("job %s never reached %s (last: %+v err=%v)", token, status, view, err)
	return JobView{}
}

func TestInstantAnalysisServesCachedResult(t *testing.T) {
	store := resultstore.NewMemoryStore()
	cached := &analysis.AnalysisResult{DataID: "0x1:0x2", Title: "Cached"}
	if err := store.Put(context.Background(), "0x1:0x2", resultstore.KindInstant, cached); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fetcher := &fakeFetcher{reviews: 10}
	m := NewManager(fetcher, &fakeSuggester{}, &fakeGenerator{}, store, 30)

	result, err := m.InstantAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("InstantAnalysis: %v", err)
	}
	if result.Title != "Cached" {
		t.Fatalf("expected cached result, got %+v", result)
	}
	if fetcher.callCount() != 0 {
		t.Fatalf("cache hit should not fetch, got %d calls", fetcher.callCount())
	}
}

func TestInstantAnalysisNoReviews(t *testing.T) {
	m := NewManager(&fakeFetcher{reviews: 0}, &fakeSuggester{}, &fakeGenerator{}, resultstore.NewMemoryStore(), 30)

	_, err := m.InstantAnalysis(context.Background(), "0x1:0x2")
	if !errors.Is(err, ErrNoReviews) {
		t.Fatalf("expected ErrNoReviews, got %v", err)
	}
}

func TestInstantAnalysisSortsDescendingAndCaches(t *testing.T) {
	store := resultstore.NewMemoryStore()
	generator := &fakeGenerator{}
	m := NewManager(&fakeFetcher{reviews: 5}, &fakeSuggester{}, generator, store, 30)

	result, err := m.InstantAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("InstantAnalysis: %v", err)
	}
	if result.StayAnalysis == nil {
		t.Fatalf("report missing")
	}
	if result.Reviews[0].User != "user-4" || result.Reviews[4].User != "user-0" {
		t.Fatalf("reviews not newest-first: %+v", result.Reviews)
	}

	cached, err := store.Get(context.Background(), "0x1:0x2", resultstore.KindInstant)
	if err != nil {
		t.Fatalf("result not cached: %v", err)
	}
	if cached.StayAnalysis == nil {
		t.Fatalf("cached result missing report")
	}
}

func TestFullAnalysisPartitionsByBatchSize(t *testing.T) {
	generator := &fakeGenerator{}
	m := NewManager(&fakeFetcher{reviews: 95}, &fakeSuggester{}, generator, resultstore.NewMemoryStore(), 30)

	token, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	if token != "0x1:0x2" {
		t.Fatalf("token should equal data_id, got %q", token)
	}

	view := waitForStatus(t, m, token, StatusCompleted)
	analyzeCalls, combineCalls := generator.counts()
	if analyzeCalls != 4 {
		t.Fatalf("95 reviews at batch size 30 should yield 4 batches, got %d", analyzeCalls)
	}
	wantSizes := map[int]int{30: 3, 5: 1}
	gotSizes := map[int]int{}
	for _, size := range generator.batchSizes {
		gotSizes[size]++
	}
	for size, count := range wantSizes {
		if gotSizes[size] != count {
			t.Fatalf("batch sizes wrong: %v", generator.batchSizes)
		}
	}
	// 4 batches fit one combine chunk of 15
	if combineCalls != 1 {
		t.Fatalf("expected 1 combine call, got %d", combineCalls)
	}
	if view.Result == nil || view.Result.StayAnalysis == nil {
		t.Fatalf("completed job missing report: %+v", view)
	}
	if len(view.Result.Reviews) != 95 {
		t.Fatalf("final result should carry all reviews, got %d", len(view.Result.Reviews))
	}
	if view.Result.Reviews[0].User != "user-94" {
		t.Fatalf("final reviews not newest-first: %+v", view.Result.Reviews[0])
	}
}

func TestFullAnalysisCombinesHierarchically(t *testing.T) {
	generator := &fakeGenerator{}
	// batch size 4 gives 4 batches of 4 and combine chunks of 2: 4 -> 2 -> 1
	m := NewManager(&fakeFetcher{reviews: 16}, &fakeSuggester{}, generator, resultstore.NewMemoryStore(), 4)

	token, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	waitForStatus(t, m, token, StatusCompleted)

	analyzeCalls, combineCalls := generator.counts()
	if analyzeCalls != 4 {
		t.Fatalf("expected 4 batches, got %d", analyzeCalls)
	}
	if combineCalls != 3 {
		t.Fatalf("expected 3 combine calls (4->2->1), got %d", combineCalls)
	}
}

func TestFullAnalysisResultIsCached(t *testing.T) {
	store := resultstore.NewMemoryStore()
	m := NewManager(&fakeFetcher{reviews: 10}, &fakeSuggester{}, &fakeGenerator{}, store, 30)

	token, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	waitForStatus(t, m, token, StatusCompleted)

	if _, err := store.Get(context.Background(), "0x1:0x2", resultstore.KindFull); err != nil {
		t.Fatalf("full result not cached: %v", err)
	}
}

func TestFullAnalysisCachedShortCircuit(t *testing.T) {
	store := resultstore.NewMemoryStore()
	cached := &analysis.AnalysisResult{DataID: "0x1:0x2", Title: "Cached Full"}
	if err := store.Put(context.Background(), "0x1:0x2", resultstore.KindFull, cached); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fetcher := &fakeFetcher{reviews: 10}
	m := NewManager(fetcher, &fakeSuggester{}, &fakeGenerator{}, store, 30)

	token, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	view, err := m.GetResult(token)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if view.Status != StatusCompleted || view.Result.Title != "Cached Full" {
		t.Fatalf("expected immediate completion from cache, got %+v", view)
	}
	if fetcher.callCount() != 0 {
		t.Fatalf("cache hit should not fetch, got %d calls", fetcher.callCount())
	}
}

func TestFullAnalysisDeduplicatesInProgressJobs(t *testing.T) {
	generator := &fakeGenerator{gate: make(chan struct{})}
	fetcher := &fakeFetcher{reviews: 10}
	m := NewManager(fetcher, &fakeSuggester{}, generator, resultstore.NewMemoryStore(), 30)

	token1, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	view, err := m.GetResult(token1)
	if err != nil || view.Status != StatusInProgress {
		t.Fatalf("expected in_progress poll, got %+v err=%v", view, err)
	}

	token2, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("second FullAnalysis: %v", err)
	}
	if token2 != token1 {
		t.Fatalf("expected shared token, got %q and %q", token1, token2)
	}

	close(generator.gate)
	waitForStatus(t, m, token1, StatusCompleted)

	if fetcher.callCount() != 1 {
		t.Fatalf("expected a single fetch for deduplicated jobs, got %d", fetcher.callCount())
	}
}

func TestFullAnalysisFailsWithoutReviews(t *testing.T) {
	m := NewManager(&fakeFetcher{reviews: 0}, &fakeSuggester{}, &fakeGenerator{}, resultstore.NewMemoryStore(), 30)

	token, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	view := waitForStatus(t, m, token, StatusFailed)
	if !strings.Contains(view.Error, "no_reviews") {
		t.Fatalf("expected no_reviews error, got %q", view.Error)
	}
}

func TestFullAnalysisFailsOnAnalyzerError(t *testing.T) {
	generator := &fakeGenerator{analyzeErr: errors.New("llm unavailable")}
	m := NewManager(&fakeFetcher{reviews: 10}, &fakeSuggester{}, generator, resultstore.NewMemoryStore(), 30)

	token, err := m.FullAnalysis(context.Background(), "0x1:0x2")
	if err != nil {
		t.Fatalf("FullAnalysis: %v", err)
	}
	view := waitForStatus(t, m, token, StatusFailed)
	if !strings.Contains(view.Error, "llm unavailable") {
		t.Fatalf("unexpected error %q", view.Error)
	}
}

func TestGetResultInvalidToken(t *testing.T) {
	m := NewManager(&fakeFetcher{}, &fakeSuggester{}, &fakeGenerator{}, resultstore.NewMemoryStore(), 30)
	if _, err := m.GetResult("unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRemoveExpiredSweepsOldJobs(t *testing.T) {
	m := NewManager(&fakeFetcher{}, &fakeSuggester{}, &fakeGenerator{}, resultstore.NewMemoryStore(), 30)
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.mu.Lock()
	m.jobs["old"] = &job{status: StatusCompleted, createdAt: now.Add(-25 * time.Hour)}
	m.jobs["fresh"] = &job{status: StatusCompleted, createdAt: now.Add(-23 * time.Hour)}
	m.mu.Unlock()

	if removed := m.removeExpired(now); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := m.GetResult("old"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired job still present")
	}
	if _, err := m.GetResult("fresh"); err != nil {
		t.Fatalf("fresh job removed: %v", err)
	}
}

func TestPartitionReviews(t *testing.T) {
	batches := partitionReviews(makeReviews(95), 30)
	if len(batches) != 4 {
		t.Fatalf("expected 4 batches, got %d", len(batches))
	}
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	if total != 95 {
		t.Fatalf("partition lost reviews: %d", total)
	}
	if len(batches[3]) != 5 {
		t.Fatalf("last batch should hold the remainder, got %d", len(batches[3]))
	}
}
