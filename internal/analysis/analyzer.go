package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AswanthManoj/stay-insight/internal/llm"
)

const schemaName = "stay_analysis"

// Analyzer turns collected reviews into structured reports via an LLM.
type Analyzer struct {
	client llm.Client
	now    func() time.Time
}

// NewAnalyzer constructs an Analyzer backed by the given LLM client.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client, now: time.Now}
}

// Analyze generates a report for the reviews carried by result and attaches
// it in place.
func (a *Analyzer) Analyze(ctx context.Context, result *AnalysisResult) error {
	system := llm.RenderAnalysisSystemPrompt(placeVars(result, a.now()))
	user := llm.RenderReviewsUserPrompt(ReviewsToString(result.Reviews))

	raw, err := a.client.Complete(ctx, llm.CompletionRequest{
		System:     system,
		User:       user,
		SchemaName: schemaName,
		Schema:     SchemaJSON,
	})
	if err != nil {
		return fmt.Errorf("generate analysis: %w", err)
	}
	parsed, err := ParseStayAnalysis(raw)
	if err != nil {
		return err
	}
	result.StayAnalysis = parsed
	return nil
}

// Combine synthesizes several batch reports into one. A single-element input
// is returned unchanged without an LLM call.
func (a *Analyzer) Combine(ctx context.Context, results []*AnalysisResult) (*AnalysisResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to combine")
	}
	if len(results) == 1 {
		return results[0], nil
	}

	sections := make([]string, 0, len(results))
	for _, result := range results {
		section, err := batchSection(result)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	system := llm.RenderCombineSystemPrompt(placeVars(results[0], a.now()))
	raw, err := a.client.Complete(ctx, llm.CompletionRequest{
		System:     system,
		User:       strings.Join(sections, "\n---\n\n"),
		SchemaName: schemaName,
		Schema:     SchemaJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("combine analysis: %w", err)
	}
	parsed, err := ParseStayAnalysis(raw)
	if err != nil {
		return nil, err
	}

	combined := results[0].Clone()
	combined.StayAnalysis = parsed
	return combined, nil
}

// ReviewsToString serializes reviews as one list item per review for prompt
// consumption.
func ReviewsToString(reviews []Review) string {
	lines := make([]string, 0, len(reviews))
	for _, review := range reviews {
		lines = append(lines, fmt.Sprintf("- %s gave a rating of '%s/5' on '%s' with comment %s",
			review.User, formatRating(review.Rating), review.Date, review.ReviewText))
	}
	return strings.Join(lines, "\n")
}

// batchSection renders one batch as a date-range header plus the report in
// YAML, matching the layout the combine prompt describes.
func batchSection(result *AnalysisResult) (string, error) {
	if result.StayAnalysis == nil {
		return "", fmt.Errorf("batch result for %s has no analysis", result.DataID)
	}

	encoded, err := json.Marshal(result.StayAnalysis)
	if err != nil {
		return "", err
	}
	var asMap map[string]any
	if err := json.Unmarshal(encoded, &asMap); err != nil {
		return "", err
	}
	rendered, err := yaml.Marshal(asMap)
	if err != nil {
		return "", fmt.Errorf("encode batch analytics: %w", err)
	}

	start, end := "", ""
	if len(result.Reviews) > 0 {
		start = result.Reviews[0].Date
		end = result.Reviews[len(result.Reviews)-1].Date
	}
	return fmt.Sprintf("[%s to %s]\n%s", start, end, rendered), nil
}

func placeVars(result *AnalysisResult, now time.Time) llm.PlaceVars {
	return llm.PlaceVars{
		Name:         result.Title,
		Address:      result.Address,
		Rating:       result.Rating,
		TotalReviews: result.TotalReviews,
		TodaysDate:   now.Format("2006-01-02"),
	}
}

func formatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'g', -1, 64)
}
