// Package export renders completed analysis results as downloadable
// attachments.
package export

import (
	"encoding/json"
	"fmt"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
)

// Attachment is a rendered download.
type Attachment struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter renders a result into an attachment.
type Exporter interface {
	Export(result *analysis.AnalysisResult) (Attachment, error)
}

// JSONExporter renders results as pretty-printed JSON.
type JSONExporter struct{}

func (JSONExporter) Export(result *analysis.AnalysisResult) (Attachment, error) {
	if result == nil {
		return Attachment{}, fmt.Errorf("nothing to export")
	}
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Filename:    "analysis.json",
		ContentType: "application/json",
		Body:        body,
	}, nil
}
