package llm

import (
	_ "embed"
	"strconv"
	"strings"
)

var (
	//go:embed prompts/analysis_system.txt
	analysisSystemPrompt string
	//go:embed prompts/reviews_user.txt
	reviewsUserPrompt string
	//go:embed prompts/combine_system.txt
	combineSystemPrompt string
)

// PlaceVars are the placeholders shared by the analysis and combine system
// prompts.
type PlaceVars struct {
	Name         string
	Address      string
	Rating       float64
	TotalReviews int
	TodaysDate   string
}

// RenderAnalysisSystemPrompt fills the single-batch analysis system prompt.
func RenderAnalysisSystemPrompt(v PlaceVars) string {
	return renderPlaceVars(analysisSystemPrompt, v)
}

// RenderCombineSystemPrompt fills the batch-synthesis system prompt.
func RenderCombineSystemPrompt(v PlaceVars) string {
	return renderPlaceVars(combineSystemPrompt, v)
}

// RenderReviewsUserPrompt fills the user prompt with serialized reviews.
func RenderReviewsUserPrompt(reviews string) string {
	return strings.NewReplacer("{{REVIEWS}}", reviews).Replace(reviewsUserPrompt)
}

func renderPlaceVars(template string, v PlaceVars) string {
	replacer := strings.NewReplacer(
		"{{NAME}}", v.Name,
		"{{ADDRESS}}", v.Address,
		"{{RATING}}", strconv.FormatFloat(v.Rating, 'g', -1, 64),
		"{{TOTAL_REVIEWS}}", strconv.Itoa(v.TotalReviews),
		"{{TODAYS_DATE}}", v.TodaysDate,
	)
	return replacer.Replace(template)
}
