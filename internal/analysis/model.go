// Package analysis holds the domain model for place review analysis: the
// review and result types exchanged over the API, the structured report
// schema produced by the LLM, and the analyzer that generates reports.
package analysis

import (
	"fmt"
	"sort"
	"time"
)

const (
	// isoLayout is the timestamp format reviews arrive in.
	isoLayout = "2006-01-02T15:04:05Z"
	// displayLayout is the human-readable format reviews are presented in.
	displayLayout = "January 02, 2006 at 03:04 PM UTC"
)

// Review is a single guest review in presentation form.
type Review struct {
	User       string  `json:"user"`
	Date       string  `json:"date"`
	Rating     float64 `json:"rating"`
	ReviewText string  `json:"review_text"`
}

// AnalysisResult is the full outcome of a review collection and analysis run
// for one place.
type AnalysisResult struct {
	Type         string        `json:"type"`
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	Rating       float64       `json:"rating"`
	DataID       string        `json:"data_id"`
	Address      string        `json:"address"`
	Reviews      []Review      `json:"reviews"`
	CreatedAt    string        `json:"created_at"`
	TotalReviews int           `json:"total_reviews"`
	StayAnalysis *StayAnalysis `json:"stay_analysis"`
}

// Clone returns a shallow copy with its own review slice.
func (r *AnalysisResult) Clone() *AnalysisResult {
	out := *r
	out.Reviews = append([]Review(nil), r.Reviews...)
	return &out
}

// Suggestion is one autocomplete match for a place search.
type Suggestion struct {
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	DataID    string  `json:"data_id"`
	Subtext   string  `json:"subtext"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SuggestionResult is the outcome of an autocomplete lookup.
type SuggestionResult struct {
	Status      string       `json:"status"`
	CreatedAt   string       `json:"created_at"`
	Suggestions []Suggestion `json:"suggestions"`
}

// ConvertISODate converts an ISO-8601 UTC timestamp to the display format
// used throughout results and prompts.
func ConvertISODate(iso string) (string, error) {
	parsed, err := time.Parse(isoLayout, iso)
	if err != nil {
		return "", fmt.Errorf("parse review date %q: %w", iso, err)
	}
	return parsed.Format(displayLayout), nil
}

// SortReviewsByDate sorts reviews chronologically. Reviews whose dates cannot
// be parsed sort before all dated reviews. The sort is stable.
func SortReviewsByDate(reviews []Review, descending bool) []Review {
	sorted := append([]Review(nil), reviews...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := parseDisplayDate(sorted[i].Date)
		tj := parseDisplayDate(sorted[j].Date)
		if descending {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
	return sorted
}

func parseDisplayDate(date string) time.Time {
	parsed, err := time.Parse(displayLayout, date)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
