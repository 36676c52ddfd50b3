package jobs

import "strings"

// vendorPattern maps an ATS vendor to the URL substrings identifying it.
// Order matters: the first vendor with a matching substring wins.
type vendorPattern struct {
	name     string
	patterns []string
}

var vendorPatterns = []vendorPattern{
	{"Greenhouse", []string{"greenhouse.io", "boards.greenhouse.io", "app.greenhouse.io"}},
	{"Workday", []string{"workday.com", "myworkdayjobs.com", "wd1.myworkdayjobs.com", "wd5.myworkdayjobs.com", "workdayrecruiting.com"}},
	{"Lever", []string{"lever.co", "jobs.lever.co"}},
	{"BambooHR", []string{"bamboohr.com", "careers.bamboohr.com"}},
	{"SmartRecruiters", []string{"smartrecruiters.com", "jobs.smartrecruiters.com"}},
	{"Jobvite", []string{"jobvite.com", "app.jobvite.com"}},
	{"Ashby", []string{"ashbyhq.com", "jobs.ashbyhq.com"}},
	{"iCIMS", []string{"icims.com", "jobs.icims.com"}},
	{"Taleo", []string{"taleo.net", "chk.tbe.taleo.net"}},
	{"JazzHR", []string{"jazzhr.com", "recruiting.jazzhr.com"}},
	{"LinkedIn", []string{"linkedin.com/jobs", "www.linkedin.com/jobs"}},
	{"Indeed", []string{"indeed.com", "www.indeed.com"}},
	{"AngelList", []string{"angel.co", "www.angel.co", "angellist.com"}},
	{"ZipRecruiter", []string{"ziprecruiter.com", "www.ziprecruiter.com"}},
	{"Glassdoor", []string{"glassdoor.com", "www.glassdoor.com"}},
}

var careerPathIndicators = []string{"/careers", "/jobs", "/career", "/job", "/apply", "/hiring"}

var atsGenericIndicators = []string{"recruiting", "applicant", "candidate", "talent", "hr"}

// DetectApplicationType classifies the apply URL by ATS vendor. Unknown
// vendors fall back to careers-path and generic ATS heuristics; an empty
// URL classifies as Unknown.
func DetectApplicationType(applyURL string) string {
	applyURL = strings.ToLower(strings.TrimSpace(applyURL))
	if applyURL == "" {
		return "Unknown"
	}

	for _, vendor := range vendorPatterns {
		for _, pattern := range vendor.patterns {
			if strings.Contains(applyURL, pattern) {
				return vendor.name
			}
		}
	}

	for _, indicator := range careerPathIndicators {
		if strings.Contains(applyURL, indicator) {
			return "Company Site"
		}
	}

	for _, indicator := range atsGenericIndicators {
		if strings.Contains(applyURL, indicator) {
			return "ATS (Other)"
		}
	}

	return "Company Site"
}
