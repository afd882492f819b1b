package export

import (
	"encoding/json"
	"testing"

	"github.com/AswanthManoj/stay-insight/internal/analysis"
)

func TestJSONExporter(t *testing.T) {
	attachment, err := JSONExporter{}.Export(&analysis.AnalysisResult{
		DataID: "0x1:0x2",
		Title:  "Sea View",
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if attachment.Filename != "analysis.json" {
		t.Fatalf("unexpected filename %q", attachment.Filename)
	}
	if attachment.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", attachment.ContentType)
	}

	var decoded analysis.AnalysisResult
	if err := json.Unmarshal(attachment.Body, &decoded); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if decoded.Title != "Sea View" {
		t.Fatalf("unexpected body %+v", decoded)
	}
}

func TestJSONExporterNilResult(t *testing.T) {
	if _, err := (JSONExporter{}).Export(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}
