package filtering

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
)

var testNow = func() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func testConfig() *Config {
	return &Config{
		BadCompanies:       []string{"Spamly Inc"},
		AggregatorKeywords: []string{"job board", "hiring marketplace"},
		ExcludedKeywords:   []string{"clearance required"},
		ExcludedSeniority:  []string{"senior", "staff", "principal"},
		AllowedLocations:   []string{"berlin", "amsterdam"},
		UseLocationFilter:  true,
		DaysLimit:          180,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testConfig(), zap.NewNop(), testNow)
}

func TestClassifyAlreadyExistsWinsOverBadCompany(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{ID: "dup-1", Company: "Spamly Inc"}
	known := map[string]struct{}{"dup-1": {}}

	decision := engine.Classify(job, known)

	if decision.Passed {
		t.Fatalf("expected rejection")
	}

	if decision.Reason != ReasonAlreadyExists {
		t.Fatalf("expected already_exists, got %s", decision.Reason)
	}
}

func TestClassifySeniorRoleBeforeLocation(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:             "42",
		Title:          "Senior Software Engineer",
		Company:        "Acme",
		Location:       "Somewhere Else",
		JobDescription: "remote role",
	}

	decision := engine.Classify(job, nil)

	if decision.Reason != ReasonSeniorRole {
		t.Fatalf("expected senior_role, got %s", decision.Reason)
	}
}

func TestClassifyTooOld(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:       "old-1",
		Title:    "Engineer",
		Location: "Berlin",
		PostedAt: testNow().AddDate(0, 0, -400).Format("2006-01-02T15:04:05") + "Z",
	}

	decision := engine.Classify(job, nil)

	if decision.Reason != ReasonTooOld {
		t.Fatalf("expected too_old, got %s", decision.Reason)
	}
}

func TestClassifyTooOldCountsWholeDays(t *testing.T) {
	engine := newTestEngine(t)

	// 180 days and 12 hours old: the fractional day does not push the
	// record over a 180-day limit.
	onBoundary := &jobs.Job{
		ID:       "1",
		Title:    "Engineer",
		Location: "Berlin",
		PostedAt: testNow().Add(-(180*24 + 12) * time.Hour).Format("2006-01-02T15:04:05") + "Z",
	}

	if decision := engine.Classify(onBoundary, nil); !decision.Passed {
		t.Fatalf("expected pass at 180.5 days, got %s", decision.Reason)
	}

	overBoundary := &jobs.Job{
		ID:       "2",
		Title:    "Engineer",
		Location: "Berlin",
		PostedAt: testNow().Add(-181 * 24 * time.Hour).Format("2006-01-02T15:04:05") + "Z",
	}

	if decision := engine.Classify(overBoundary, nil); decision.Reason != ReasonTooOld {
		t.Fatalf("expected too_old at 181 days, got %s", decision.Reason)
	}
}

func TestClassifyAlreadyExistsWinsOverTooOld(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:       "old-dup",
		Title:    "Engineer",
		Location: "Berlin",
		PostedAt: "2024-01-01",
	}
	known := map[string]struct{}{"old-dup": {}}

	decision := engine.Classify(job, known)

	if decision.Reason != ReasonAlreadyExists {
		t.Fatalf("expected already_exists, got %s", decision.Reason)
	}
}

func TestClassifyUnparseablePostedAtNeverTooOld(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:       "1",
		Title:    "Engineer",
		Location: "Berlin",
		PostedAt: "three weeks ago",
	}

	decision := engine.Classify(job, nil)

	if !decision.Passed {
		t.Fatalf("expected pass, got %s", decision.Reason)
	}
}

func TestClassifyLocationMismatch(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:             "1",
		Title:          "Engineer",
		Location:       "Austin, TX",
		JobDescription: "on-site only position",
	}

	decision := engine.Classify(job, nil)

	if decision.Reason != ReasonLocationMismatch {
		t.Fatalf("expected location_mismatch, got %s", decision.Reason)
	}
}

func TestClassifyRemoteIndicatorOverridesLocation(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:             "1",
		Title:          "Engineer",
		Location:       "Austin, TX",
		JobDescription: "This is a 100% remote position.",
	}

	decision := engine.Classify(job, nil)

	if !decision.Passed {
		t.Fatalf("expected pass via remote indicator, got %s", decision.Reason)
	}
}

func TestClassifyEmptyLocationNeverMismatches(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:             "1",
		Title:          "Engineer",
		JobDescription: "on-site only position",
	}

	decision := engine.Classify(job, nil)

	if !decision.Passed {
		t.Fatalf("expected pass for empty location, got %s", decision.Reason)
	}
}

func TestClassifyLocationFilterDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.UseLocationFilter = false
	engine := NewEngine(cfg, zap.NewNop(), testNow)

	job := &jobs.Job{
		ID:             "1",
		Title:          "Engineer",
		Location:       "Austin, TX",
		JobDescription: "on-site only position",
	}

	if decision := engine.Classify(job, nil); !decision.Passed {
		t.Fatalf("expected pass with disabled location filter, got %s", decision.Reason)
	}
}

func TestClassifyAggregatorMatchesCompanyName(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:      "1",
		Title:   "Engineer",
		Company: "The Hiring Marketplace",
	}

	if decision := engine.Classify(job, nil); decision.Reason != ReasonAggregator {
		t.Fatalf("expected aggregator, got %s", decision.Reason)
	}
}

func TestClassifyExcludedKeyword(t *testing.T) {
	engine := newTestEngine(t)

	job := &jobs.Job{
		ID:             "1",
		Title:          "Engineer",
		Location:       "Berlin",
		JobDescription: "Active security Clearance Required for this role",
	}

	if decision := engine.Classify(job, nil); decision.Reason != ReasonExcludedKeyword {
		t.Fatalf("expected excluded_keyword, got %s", decision.Reason)
	}
}

func TestRunCollectsStatsAndPassesSurvivors(t *testing.T) {
	engine := newTestEngine(t)

	batch := []jobs.Job{
		{ID: "dup", Title: "Engineer", Location: "Berlin"},
		{ID: "ok", Title: "Backend Engineer", Location: "Berlin"},
		{ID: "sen", Title: "Staff Engineer", Location: "Berlin"},
	}
	known := map[string]struct{}{"dup": {}}

	passed, stats := engine.Run(batch, known)

	if len(passed) != 1 || passed[0].ID != "ok" {
		t.Fatalf("expected only job ok to pass, got %d", len(passed))
	}

	if stats.Total != 3 {
		t.Fatalf("expected total 3, got %d", stats.Total)
	}

	if stats.ByReason[ReasonAlreadyExists] != 1 {
		t.Fatalf("expected one already_exists, got %d", stats.ByReason[ReasonAlreadyExists])
	}

	if stats.ByReason[ReasonSeniorRole] != 1 {
		t.Fatalf("expected one senior_role, got %d", stats.ByReason[ReasonSeniorRole])
	}

	if stats.ByReason[ReasonPassed] != 1 {
		t.Fatalf("expected one passed, got %d", stats.ByReason[ReasonPassed])
	}
}
