// Package filtering applies the ordered exclusion rules to condensed job
// records. Rules are declarative, configuration-driven string checks; the
// first matching rule decides the record's fate.
package filtering

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
)

// Reason identifies which rule rejected a record, or that it passed.
type Reason string

const (
	ReasonAlreadyExists    Reason = "already_exists"
	ReasonBadCompany       Reason = "bad_company"
	ReasonAggregator       Reason = "aggregator"
	ReasonExcludedKeyword  Reason = "excluded_keyword"
	ReasonSeniorRole       Reason = "senior_role"
	ReasonLocationMismatch Reason = "location_mismatch"
	ReasonTooOld           Reason = "too_old"
	ReasonPassed           Reason = "passed"
)

// Reasons lists every reason in rule order, ReasonPassed last. Used for
// stable stats reporting.
var Reasons = []Reason{
	ReasonAlreadyExists,
	ReasonBadCompany,
	ReasonAggregator,
	ReasonExcludedKeyword,
	ReasonSeniorRole,
	ReasonLocationMismatch,
	ReasonTooOld,
	ReasonPassed,
}

// Decision is the outcome of classifying a single record.
type Decision struct {
	Passed bool
	Reason Reason
}

// Config carries the keyword tables and switches consumed by the rules.
type Config struct {
	BadCompanies       []string
	AggregatorKeywords []string
	ExcludedKeywords   []string
	ExcludedSeniority  []string
	AllowedLocations   []string
	UseLocationFilter  bool
	DaysLimit          int
}

// Rule is a single exclusion check. Matches reports whether the record
// should be rejected with the rule's reason.
type Rule interface {
	Reason() Reason
	Matches(job *jobs.Job, knownIDs map[string]struct{}) bool
}

// Stats counts classifications per reason across a batch. Errored records
// are logged and skipped without being attributed to any reason.
type Stats struct {
	Total    int
	Errored  int
	ByReason map[Reason]int
}

// Engine classifies records against the fixed-priority rule set.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewEngine builds the engine with the fixed rule order. The now function
// is injectable for the age rule; pass nil to use time.Now.
func NewEngine(cfg *Config, logger *zap.Logger, now func() time.Time) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	if now == nil {
		now = time.Now
	}

	rules := []Rule{
		&alreadyExistsRule{},
		&badCompanyRule{companies: cfg.BadCompanies},
		&aggregatorRule{keywords: normalizeAll(cfg.AggregatorKeywords)},
		&excludedKeywordRule{keywords: normalizeAll(cfg.ExcludedKeywords)},
		&seniorRoleRule{terms: normalizeAll(cfg.ExcludedSeniority)},
		&locationRule{
			enabled: cfg.UseLocationFilter,
			allowed: normalizeAll(cfg.AllowedLocations),
		},
		&tooOldRule{daysLimit: cfg.DaysLimit, now: now},
	}

	return &Engine{rules: rules, logger: logger}
}

// Classify applies the rules in order; the first match wins.
func (e *Engine) Classify(job *jobs.Job, knownIDs map[string]struct{}) Decision {
	for _, rule := range e.rules {
		if rule.Matches(job, knownIDs) {
			return Decision{Passed: false, Reason: rule.Reason()}
		}
	}
	return Decision{Passed: true, Reason: ReasonPassed}
}

// Run classifies the whole batch, returning the surviving records and the
// per-reason stats. A record that errors is logged and skipped; the batch
// never aborts.
func (e *Engine) Run(batch []jobs.Job, knownIDs map[string]struct{}) ([]jobs.Job, Stats) {
	stats := Stats{
		Total:    len(batch),
		ByReason: make(map[Reason]int, len(Reasons)),
	}

	passed := make([]jobs.Job, 0, len(batch))
	var duplicateIDs []string

	for i := range batch {
		decision, ok := e.classifySafe(&batch[i], knownIDs)
		if !ok {
			stats.Errored++
			continue
		}
		stats.ByReason[decision.Reason]++

		if decision.Reason == ReasonAlreadyExists {
			duplicateIDs = append(duplicateIDs, batch[i].ID)
		}

		if decision.Passed {
			passed = append(passed, batch[i])
		}
	}

	if e.logger != nil {
		fields := []zap.Field{
			zap.Int("total", stats.Total),
			zap.Int("errored", stats.Errored),
		}
		for _, reason := range Reasons {
			fields = append(fields, zap.Int(string(reason), stats.ByReason[reason]))
		}
		e.logger.Info("filtering results", fields...)

		if len(duplicateIDs) > 0 {
			e.logger.Info("duplicate job ids", zap.Strings("ids", duplicateIDs))
		}
	}

	return passed, stats
}

// classifySafe guards Classify against a panicking rule so that one bad
// record cannot take down the batch.
func (e *Engine) classifySafe(job *jobs.Job, knownIDs map[string]struct{}) (decision Decision, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Warn("error classifying job",
					zap.String("job_id", job.ID),
					zap.Any("error", r),
				)
			}
			ok = false
		}
	}()

	return e.Classify(job, knownIDs), true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		if v = normalize(v); v != "" {
			normalized = append(normalized, v)
		}
	}
	return normalized
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
