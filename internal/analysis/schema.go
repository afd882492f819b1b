package analysis

import (
	_ "embed"
	"encoding/json"
)

//go:embed schema.json
var schemaBytes []byte

// SchemaJSON is the JSON schema the LLM output must conform to. It is passed
// verbatim as the structured-output response format.
var SchemaJSON = json.RawMessage(schemaBytes)

// StayAnalysis is the structured report generated from guest reviews.
type StayAnalysis struct {
	StayName                 string                   `json:"stay_name"`
	Summary                  string                   `json:"summary"`
	OverallSentiment         OverallSentiment         `json:"overall_sentiment"`
	Accommodation            Accommodation            `json:"accommodation"`
	Service                  Service                  `json:"service"`
	Amenities                Amenities                `json:"amenities"`
	FoodAndDining            FoodAndDining            `json:"food_and_dining"`
	LocationAndAccessibility LocationAndAccessibility `json:"location_and_accessibility"`
	ValueForMoney            ValueForMoney            `json:"value_for_money"`
	OnlinePresence           OnlinePresence           `json:"online_presence"`
	TopImprovementPriorities []ImprovementPriority    `json:"top_improvement_priorities"`
}

// OverallSentiment aggregates guest satisfaction across all reviews.
type OverallSentiment struct {
	AverageScore       float64 `json:"average_score"`
	PositivePercentage float64 `json:"positive_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
}

type Accommodation struct {
	RoomQuality      []string `json:"room_quality"`
	CommonPraises    []string `json:"common_praises"`
	CommonCriticisms []string `json:"common_criticisms"`
	Suggestions      []string `json:"suggestions"`
}

type Service struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

type Amenities struct {
	PraisedFeatures    []string `json:"praised_features"`
	CriticizedFeatures []string `json:"criticized_features"`
	Suggestions        []string `json:"suggestions"`
}

type FoodAndDining struct {
	RestaurantQuality string   `json:"restaurant_quality"`
	BreakfastFeedback string   `json:"breakfast_feedback"`
	PraisedItems      []string `json:"praised_items"`
	CriticizedItems   []string `json:"criticized_items"`
	Suggestions       []string `json:"suggestions"`
}

type LocationAndAccessibility struct {
	PositiveAspects []string `json:"positive_aspects"`
	NegativeAspects []string `json:"negative_aspects"`
	Suggestions     []string `json:"suggestions"`
}

type ValueForMoney struct {
	PerceivedValue  string   `json:"perceived_value"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
	Suggestions     []string `json:"suggestions"`
}

type OnlinePresence struct {
	WebsiteFeedback     []string `json:"website_feedback"`
	SocialMediaFeedback []string `json:"social_media_feedback"`
	Suggestions         []string `json:"suggestions"`
}

// ImprovementPriority is one entry in the prioritized improvement list.
type ImprovementPriority struct {
	Category        string `json:"category"`
	Issue           string `json:"issue"`
	Suggestion      string `json:"suggestion"`
	PotentialImpact string `json:"potential_impact"`
}
