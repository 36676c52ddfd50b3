package jobs

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func mustCondense(t *testing.T, raw map[string]any) Job {
	t.Helper()
	job, err := Condense(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return job
}

func TestCondenseTruncatesLongDescriptions(t *testing.T) {
	raw := map[string]any{
		"id":              "42",
		"title":           "Go Developer",
		"descriptionText": strings.Repeat("a", 800),
	}

	job := mustCondense(t, raw)

	if len(job.JobDescription) != DescriptionMaxLength+len("...") {
		t.Fatalf("expected truncated length %d, got %d", DescriptionMaxLength+3, len(job.JobDescription))
	}

	if !strings.HasSuffix(job.JobDescription, "...") {
		t.Fatalf("expected ellipsis marker on truncated description")
	}
}

func TestCondenseKeepsShortDescriptionsUnmarked(t *testing.T) {
	raw := map[string]any{
		"id":              "42",
		"descriptionText": "short description",
	}

	job := mustCondense(t, raw)

	if job.JobDescription != "short description" {
		t.Fatalf("unexpected description: %q", job.JobDescription)
	}
}

func TestCondenseDefaultsMissingFields(t *testing.T) {
	job := mustCondense(t, map[string]any{"id": "7"})

	if job.ID != "7" {
		t.Fatalf("expected id 7, got %q", job.ID)
	}

	if job.Rating != nil {
		t.Fatalf("expected nil rating for unscored job")
	}

	if job.Explanation != "" {
		t.Fatalf("expected empty explanation, got %q", job.Explanation)
	}

	if job.Company != "" || job.Location != "" {
		t.Fatalf("expected empty strings for absent fields")
	}

	if job.CompanyEmployeesCount != 0 {
		t.Fatalf("expected zero employee count, got %d", job.CompanyEmployeesCount)
	}
}

func TestCondenseWeaklyTypedFields(t *testing.T) {
	raw := map[string]any{
		"id":                    float64(12345),
		"companyEmployeesCount": "250",
		"applicantsCount":       float64(37),
	}

	job := mustCondense(t, raw)

	if job.ID != "12345" {
		t.Fatalf("expected id 12345, got %q", job.ID)
	}
	if job.CompanyEmployeesCount != 250 {
		t.Fatalf("expected employee count 250, got %d", job.CompanyEmployeesCount)
	}
	if job.ApplicantsCount != "37" {
		t.Fatalf("expected applicants count 37, got %q", job.ApplicantsCount)
	}
}

func TestCondenseFlattensCompositeValues(t *testing.T) {
	raw := map[string]any{
		"id":         "42",
		"industries": []any{"Software", "Fintech"},
	}

	job := mustCondense(t, raw)

	if job.Industries != `["Software","Fintech"]` {
		t.Fatalf("unexpected industries: %q", job.Industries)
	}
}

func TestCondenseTrimsStringFields(t *testing.T) {
	job := mustCondense(t, map[string]any{"id": "  42  ", "title": "  Go Developer "})

	if job.ID != "42" || job.Title != "Go Developer" {
		t.Fatalf("expected trimmed fields, got %q / %q", job.ID, job.Title)
	}
}

func TestCondenseAllSkipsMalformedRecords(t *testing.T) {
	records := []any{
		map[string]any{"id": "1", "title": "One"},
		"not a record",
		map[string]any{"id": "2", "title": "Two"},
		nil,
		map[string]any{"id": "3", "companyEmployeesCount": map[string]any{"min": 10}},
	}

	condensed := CondenseAll(records, zap.NewNop())

	if len(condensed) != 2 {
		t.Fatalf("expected 2 condensed jobs, got %d", len(condensed))
	}

	if condensed[0].ID != "1" || condensed[1].ID != "2" {
		t.Fatalf("unexpected job ids: %q, %q", condensed[0].ID, condensed[1].ID)
	}
}
