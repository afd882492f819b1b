package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
	"github.com/AswanthManoj/stay-insight/internal/serpapi"
)

// ErrNoResults signals that autocomplete returned no usable suggestions.
var ErrNoResults = errors.New("no matching suggestions found")

// SuggestionFetcher resolves free-text queries to place suggestions.
type SuggestionFetcher struct {
	client serpapi.Client
	limit  int
}

// NewSuggestionFetcher constructs a SuggestionFetcher returning at most limit
// suggestions per query.
func NewSuggestionFetcher(client serpapi.Client, limit int) *SuggestionFetcher {
	return &SuggestionFetcher{client: client, limit: limit}
}

// Suggestions looks up autocomplete matches for query biased towards the
// given point. Suggestions without a data_id are dropped; typeFilter, when
// non-empty, keeps only suggestions of that type.
func (f *SuggestionFetcher) Suggestions(ctx context.Context, query string, latitude, longitude float64, typeFilter string) (*analysis.SuggestionResult, error) {
	resp, err := f.client.Autocomplete(ctx, serpapi.AutocompleteRequest{
		Query:     query,
		Latitude:  latitude,
		Longitude: longitude,
	})
	if err != nil {
		return nil, fmt.Errorf("autocomplete %q: %w", query, err)
	}

	suggestions := make([]analysis.Suggestion, 0, len(resp.Suggestions))
	for _, row := range resp.Suggestions {
		if strings.TrimSpace(row.DataID) == "" {
			continue
		}
		if typeFilter != "" && row.Type != typeFilter {
			continue
		}
		suggestions = append(suggestions, analysis.Suggestion{
			Type:      row.Type,
			Value:     row.Value,
			DataID:    row.DataID,
			Subtext:   row.Subtext,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		})
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w for query %q", ErrNoResults, query)
	}
	if len(suggestions) > f.limit && f.limit > 0 {
		suggestions = suggestions[:f.limit]
	}

	return &analysis.SuggestionResult{
		Status:      resp.SearchMetadata.Status,
		CreatedAt:   resp.SearchMetadata.CreatedAt,
		Suggestions: suggestions,
	}, nil
}
