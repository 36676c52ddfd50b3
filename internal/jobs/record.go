package jobs

import (
	"encoding/json"
	"os"
)

// Job is the canonical condensed job record flowing through the pipeline.
// The id field is the stable join key between filtering, the evaluation
// cache, and the external workspace.
type Job struct {
	ID                    string   `json:"id"`
	PostedAt              string   `json:"postedAt,omitempty"`
	Title                 string   `json:"title"`
	Company               string   `json:"company"`
	Location              string   `json:"location"`
	CompanyEmployeesCount int      `json:"companyEmployeesCount"`
	Link                  string   `json:"link"`
	ApplyURL              string   `json:"applyUrl"`
	Rating                *float64 `json:"rating"`
	Explanation           string   `json:"explanation"`
	JobDescription        string   `json:"jobDescription"`
	CompanyDescription    string   `json:"companyDescription"`
	SeniorityLevel        string   `json:"seniorityLevel"`
	EmploymentType        string   `json:"employmentType"`
	JobFunction           string   `json:"jobFunction"`
	Industries            string   `json:"industries"`
	ApplicantsCount       string   `json:"applicantsCount"`
	ApplicationType       string   `json:"type"`
}

// Rated reports whether the job has been scored.
func (j *Job) Rated() bool {
	return j.Rating != nil
}

// SetEvaluation attaches the scoring result to the job.
func (j *Job) SetEvaluation(rating float64, explanation string) {
	j.Rating = &rating
	j.Explanation = explanation
}

// LoadRecords reads a JSON array of raw scraper records. Elements are kept
// as generic values so that individually malformed entries can be skipped
// during condensation instead of failing the whole file.
func LoadRecords(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	return records, nil
}
