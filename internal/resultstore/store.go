// Package resultstore persists finished analysis results keyed by place and
// analysis kind, so repeat requests are served without refetching or
// re-analyzing.
package resultstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
)

// Kind selects which analysis variant a stored result belongs to.
type Kind string

const (
	KindInstant Kind = "instant"
	KindFull    Kind = "full"
)

// ErrNotFound is returned when no result is cached for a place.
var ErrNotFound = errors.New("analysis result not found")

// ParseKind validates a raw kind value.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindInstant:
		return KindInstant, nil
	case KindFull:
		return KindFull, nil
	default:
		return "", fmt.Errorf("invalid analysis kind %q", raw)
	}
}

// Store is the persistence boundary for analysis results.
type Store interface {
	Get(ctx context.Context, dataID string, kind Kind) (*analysis.AnalysisResult, error)
	Put(ctx context.Context, dataID string, kind Kind, result *analysis.AnalysisResult) error
}
