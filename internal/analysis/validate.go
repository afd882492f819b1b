package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseStayAnalysis decodes and sanity-checks an LLM-produced report.
func ParseStayAnalysis(raw json.RawMessage) (*StayAnalysis, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty analysis payload")
	}
	var parsed StayAnalysis
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("analysis missing summary")
	}
	if len(parsed.TopImprovementPriorities) > 5 {
		parsed.TopImprovementPriorities = parsed.TopImprovementPriorities[:5]
	}
	return &parsed, nil
}
