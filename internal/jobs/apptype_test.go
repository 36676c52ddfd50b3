package jobs

import "testing"

func TestDetectApplicationType(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		expected string
	}{
		{"greenhouse", "https://boards.greenhouse.io/acme/jobs/123", "Greenhouse"},
		{"workday", "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", "Workday"},
		{"lever", "https://jobs.lever.co/acme/123", "Lever"},
		{"ashby", "https://jobs.ashbyhq.com/acme/123", "Ashby"},
		{"linkedin", "https://www.linkedin.com/jobs/view/123", "LinkedIn"},
		{"careers path", "https://acme.example.com/careers/open-roles", "Company Site"},
		{"ats generic", "https://hire.example.com/recruiting/position/123", "ATS (Other)"},
		{"plain company url", "https://acme.example.com/positions", "Company Site"},
		{"uppercase vendor", "HTTPS://BOARDS.GREENHOUSE.IO/ACME", "Greenhouse"},
		{"empty", "", "Unknown"},
		{"whitespace", "   ", "Unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectApplicationType(tc.url); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestDetectApplicationTypeVendorBeatsCareersPath(t *testing.T) {
	// A vendor domain with a careers-looking path must still classify by
	// vendor: the vendor table is checked first.
	got := DetectApplicationType("https://boards.greenhouse.io/acme/careers")
	if got != "Greenhouse" {
		t.Fatalf("expected Greenhouse, got %q", got)
	}
}
