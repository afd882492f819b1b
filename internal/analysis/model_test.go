package analysis

import (
	"testing"
)

func TestConvertISODate(t *testing.T) {
	got, err := ConvertISODate("2025-12-20T10:30:00Z")
	if err != nil {
		t.Fatalf("ConvertISODate: %v", err)
	}
	want := "December 20, 2025 at 10:30 AM UTC"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConvertISODatePadsDayAndHour(t *testing.T) {
	got, err := ConvertISODate("2026-03-05T21:07:00Z")
	if err != nil {
		t.Fatalf("ConvertISODate: %v", err)
	}
	want := "March 05, 2026 at 09:07 PM UTC"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConvertISODateRejectsGarbage(t *testing.T) {
	if _, err := ConvertISODate("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSortReviewsByDate(t *testing.T) {
	reviews := []Review{
		{User: "b", Date: "March 05, 2026 at 09:07 PM UTC"},
		{User: "a", Date: "December 20, 2025 at 10:30 AM UTC"},
		{User: "c", Date: "June 01, 2026 at 08:00 AM UTC"},
	}

	asc := SortReviewsByDate(reviews, false)
	if asc[0].User != "a" || asc[1].User != "b" || asc[2].User != "c" {
		t.Fatalf("ascending order wrong: %+v", asc)
	}

	desc := SortReviewsByDate(reviews, true)
	if desc[0].User != "c" || desc[1].User != "b" || desc[2].User != "a" {
		t.Fatalf("descending order wrong: %+v", desc)
	}

	// input untouched
	if reviews[0].User != "b" {
		t.Fatalf("input mutated: %+v", reviews)
	}
}

func TestSortReviewsByDateUnparseableFirst(t *testing.T) {
	reviews := []Review{
		{User: "dated", Date: "December 20, 2025 at 10:30 AM UTC"},
		{User: "raw", Date: "2025-12-21T00:00:00Z"},
	}
	asc := SortReviewsByDate(reviews, false)
	if asc[0].User != "raw" {
		t.Fatalf("expected unparseable date first, got %+v", asc)
	}
}

func TestCloneCopiesReviews(t *testing.T) {
	original := &AnalysisResult{
		DataID:  "0x1:0x2",
		Reviews: []Review{{User: "a"}},
	}
	clone := original.Clone()
	clone.Reviews[0].User = "b"
	if original.Reviews[0].User != "a" {
		t.Fatalf("clone shares review slice")
	}
}
