package resultstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
)

// MemoryStore implements Store in process memory. Used when no database is
// configured and in tests. Entries are stored serialized so callers can't
// mutate cached state through returned pointers.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Kind]map[string][]byte
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[Kind]map[string][]byte{
			KindInstant: {},
			KindFull:    {},
		},
	}
}

func (s *MemoryStore) Get(ctx context.Context, dataID string, kind Kind) (*analysis.AnalysisResult, error) {
	_ = ctx
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	payload, ok := s.entries[kind][dataID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var result analysis.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *MemoryStore) Put(ctx context.Context, dataID string, kind Kind, result *analysis.AnalysisResult) error {
	_ = ctx
	if _, err := tableFor(kind); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[kind][dataID] = payload
	s.mu.Unlock()
	return nil
}
