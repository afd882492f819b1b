// Package places collects Google Maps reviews and place suggestions through
// SerpApi.
package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
	"github.com/AswanthManoj/stay-insight/internal/serpapi"
	"github.com/AswanthManoj/stay-insight/internal/shared/metrics"
	"github.com/AswanthManoj/stay-insight/internal/shared/telemetry"
)

const defaultSortBy = "qualityScore"

// ReviewFetcher paginates through a place's reviews with a delay between
// pages to stay inside upstream rate limits.
type ReviewFetcher struct {
	client     serpapi.Client
	wait       func(ctx context.Context) error
	numReviews int
	maxReviews int
}

// NewReviewFetcher constructs a ReviewFetcher. delay is the minimum spacing
// between page fetches; numReviews bounds instant collection and maxReviews
// bounds full collection.
func NewReviewFetcher(client serpapi.Client, delay time.Duration, numReviews, maxReviews int) *ReviewFetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &ReviewFetcher{
		client:     client,
		wait:       rate.NewLimiter(limit, 1).Wait,
		numReviews: numReviews,
		maxReviews: maxReviews,
	}
}

// Fetch collects reviews for dataID. With full false it stops once numReviews
// are gathered and truncates to exactly that many; with full true it stops
// once maxReviews are gathered without truncating. Reviews are returned
// sorted oldest first.
//
// If the upstream API fails after at least one page succeeded, the reviews
// gathered so far are returned with status "Partial" instead of an error.
func (f *ReviewFetcher) Fetch(ctx context.Context, dataID string, full bool) (*analysis.AnalysisResult, error) {
	var (
		rows      []serpapi.ReviewRow
		placeInfo *serpapi.PlaceInfo
		metadata  serpapi.SearchMetadata
		params    serpapi.SearchParameters
	)

	req := serpapi.ReviewsRequest{DataID: dataID, SortBy: defaultSortBy}
	for {
		page, err := f.client.Reviews(ctx, req)
		if err != nil {
			var apiErr *serpapi.APIError
			if errors.As(err, &apiErr) && len(rows) > 0 {
				telemetry.Warn("places.reviews.partial", map[string]any{
					"data_id":   dataID,
					"fetched":   len(rows),
					"api_error": apiErr.Message,
				})
				return partialResult(rows, dataID), nil
			}
			return nil, fmt.Errorf("fetch reviews for %s: %w", dataID, err)
		}
		metrics.IncReviewPageFetched()

		if placeInfo == nil {
			placeInfo = page.PlaceInfo
		}
		if metadata == (serpapi.SearchMetadata{}) {
			metadata = page.SearchMetadata
		}
		if params == (serpapi.SearchParameters{}) {
			params = page.SearchParameters
		}
		rows = append(rows, page.Reviews...)

		if full {
			if len(rows) >= f.maxReviews {
				break
			}
		} else if len(rows) >= f.numReviews {
			break
		}

		if page.Pagination == nil || page.Pagination.Next == "" {
			break
		}
		req.NextPageToken = page.Pagination.NextPageToken

		if err := f.wait(ctx); err != nil {
			return nil, err
		}
	}

	if !full && len(rows) > f.numReviews {
		rows = rows[:f.numReviews]
	}

	reviews, err := convertRows(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews for %s: %w", dataID, err)
	}
	result := &analysis.AnalysisResult{
		Reviews: analysis.SortReviewsByDate(reviews, false),
		DataID:  params.DataID,
	}
	result.Status = metadata.Status
	result.CreatedAt = metadata.CreatedAt
	if placeInfo != nil {
		result.Type = placeInfo.Type
		result.Title = placeInfo.Title
		result.Rating = placeInfo.Rating
		result.Address = placeInfo.Address
		result.TotalReviews = placeInfo.Reviews
	}
	return result, nil
}

// partialResult wraps already-fetched reviews when pagination failed midway.
// Place metadata is left blank, dates stay in their raw upstream form and
// total_reviews reflects only what was gathered.
func partialResult(rows []serpapi.ReviewRow, dataID string) *analysis.AnalysisResult {
	reviews := make([]analysis.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, analysis.Review{
			User:       row.User.Name,
			Date:       row.ISODate,
			Rating:     row.Rating,
			ReviewText: row.ExtractedSnippet.Original,
		})
	}
	return &analysis.AnalysisResult{
		Status:       "Partial",
		DataID:       dataID,
		Reviews:      reviews,
		TotalReviews: len(reviews),
	}
}

// convertRows normalizes upstream rows. A timestamp that does not parse fails
// the whole conversion; downstream ordering depends on every date being in
// the display layout.
func convertRows(rows []serpapi.ReviewRow) ([]analysis.Review, error) {
	reviews := make([]analysis.Review, 0, len(rows))
	for _, row := range rows {
		date, err := analysis.ConvertISODate(row.ISODate)
		if err != nil {
			return nil, fmt.Errorf("review date %q: %w", row.ISODate, err)
		}
		reviews = append(reviews, analysis.Review{
			User:       row.User.Name,
			Date:       date,
			Rating:     row.Rating,
			ReviewText: row.ExtractedSnippet.Original,
		})
	}
	return reviews, nil
}
