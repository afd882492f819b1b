package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
)

// PGStore implements Store using Postgres. Results are kept as JSONB rows,
// one table per analysis kind.
type PGStore struct {
	DB *sql.DB
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindInstant:
		return "review_analysis_instant", nil
	case KindFull:
		return "review_analysis_full", nil
	default:
		return "", fmt.Errorf("invalid analysis kind %q", kind)
	}
}

// Get returns the cached result for a place, or ErrNotFound.
func (s *PGStore) Get(ctx context.Context, dataID string, kind Kind) (*analysis.AnalysisResult, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var payload []byte
	query := fmt.Sprintf(`SELECT analysis FROM %s WHERE data_id = $1`, table)
	if err := s.DB.QueryRowContext(ctx, query, dataID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var result analysis.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode stored analysis for %s: %w", dataID, err)
	}
	return &result, nil
}

// Put upserts the result for a place.
func (s *PGStore) Put(ctx context.Context, dataID string, kind Kind, result *analysis.AnalysisResult) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (data_id, analysis, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (data_id) DO UPDATE SET analysis = EXCLUDED.analysis, updated_at = now()`, table)
	_, err = s.DB.ExecContext(ctx, query, dataID, payload)
	return err
}
