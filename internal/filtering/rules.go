package filtering

import (
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/jobs"
)

// remoteIndicators are the fixed phrases that mark a description as a
// remote role for the location rule.
var remoteIndicators = []string{
	"remote",
	"work from home",
	"wfh",
	"telecommute",
	"distributed team",
	"remote-friendly",
	"100% remote",
}

type alreadyExistsRule struct{}

func (r *alreadyExistsRule) Reason() Reason { return ReasonAlreadyExists }

func (r *alreadyExistsRule) Matches(job *jobs.Job, knownIDs map[string]struct{}) bool {
	_, known := knownIDs[job.ID]
	return known
}

// badCompanyRule rejects exact company-name matches. The blocklist is
// matched case-sensitively as configured.
type badCompanyRule struct {
	companies []string
}

func (r *badCompanyRule) Reason() Reason { return ReasonBadCompany }

func (r *badCompanyRule) Matches(job *jobs.Job, _ map[string]struct{}) bool {
	company := strings.TrimSpace(job.Company)
	for _, blocked := range r.companies {
		if company == blocked {
			return true
		}
	}
	return false
}

type aggregatorRule struct {
	keywords []string
}

func (r *aggregatorRule) Reason() Reason { return ReasonAggregator }

func (r *aggregatorRule) Matches(job *jobs.Job, _ map[string]struct{}) bool {
	description := normalize(job.JobDescription)
	company := normalize(job.Company)
	for _, keyword := range r.keywords {
		if strings.Contains(description, keyword) || strings.Contains(company, keyword) {
			return true
		}
	}
	return false
}

type excludedKeywordRule struct {
	keywords []string
}

func (r *excludedKeywordRule) Reason() Reason { return ReasonExcludedKeyword }

func (r *excludedKeywordRule) Matches(job *jobs.Job, _ map[string]struct{}) bool {
	return containsAny(normalize(job.JobDescription), r.keywords)
}

type seniorRoleRule struct {
	terms []string
}

func (r *seniorRoleRule) Reason() Reason { return ReasonSeniorRole }

func (r *seniorRoleRule) Matches(job *jobs.Job, _ map[string]struct{}) bool {
	return containsAny(normalize(job.Title), r.terms)
}

// locationRule rejects records whose location matches none of the allowed
// locations when the description carries no remote indicator. Records with
// an empty location are never rejected.
type locationRule struct {
	enabled bool
	allowed []string
}

func (r *locationRule) Reason() Reason { return ReasonLocationMismatch }

func (r *locationRule) Matches(job *jobs.Job, _ map[string]struct{}) bool {
	if !r.enabled {
		return false
	}

	location := normalize(job.Location)
	if location == "" {
		return false
	}

	for _, allowed := range r.allowed {
		if strings.Contains(location, allowed) {
			return false
		}
	}

	return !containsAny(normalize(job.JobDescription), remoteIndicators)
}

// tooOldRule rejects records older than the configured day limit. A missing
// or unparseable posted date never triggers the rule.
type tooOldRule struct {
	daysLimit int
	now       func() time.Time
}

func (r *tooOldRule) Reason() Reason { return ReasonTooOld }

func (r *tooOldRule) Matches(job *jobs.Job, _ map[string]struct{}) bool {
	if r.daysLimit <= 0 {
		return false
	}

	posted := strings.TrimSpace(job.PostedAt)
	if posted == "" {
		return false
	}

	postedTime, err := parsePostedAt(posted)
	if err != nil {
		return false
	}

	// Age counts whole elapsed days; a fractional remainder does not
	// push a record over the limit.
	age := r.now().UTC().Sub(postedTime)
	return int(age.Hours()/24) > r.daysLimit
}

func parsePostedAt(value string) (time.Time, error) {
	value = strings.TrimSuffix(value, "Z")

	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
