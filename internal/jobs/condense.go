package jobs

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	// DescriptionMaxLength is the fixed cap applied to free-text fields.
	DescriptionMaxLength = 500

	ellipsis = "..."
)

// rawRecord mirrors the scraper's field names. Weak typing lets numeric
// ids and counts arrive as either numbers or strings.
type rawRecord struct {
	ID                    string `mapstructure:"id"`
	PostedAt              string `mapstructure:"postedAt"`
	Title                 string `mapstructure:"title"`
	CompanyName           string `mapstructure:"companyName"`
	Location              string `mapstructure:"location"`
	CompanyEmployeesCount int    `mapstructure:"companyEmployeesCount"`
	Link                  string `mapstructure:"link"`
	ApplyURL              string `mapstructure:"applyUrl"`
	DescriptionText       string `mapstructure:"descriptionText"`
	CompanyDescription    string `mapstructure:"companyDescription"`
	SeniorityLevel        string `mapstructure:"seniorityLevel"`
	EmploymentType        string `mapstructure:"employmentType"`
	JobFunction           string `mapstructure:"jobFunction"`
	Industries            string `mapstructure:"industries"`
	ApplicantsCount       string `mapstructure:"applicantsCount"`
}

// Condense transforms a raw scraper record into the canonical shape.
// Absent fields map to zero values; only a structurally undecodable
// record is an error.
func Condense(raw map[string]any) (Job, error) {
	var record rawRecord

	cfg := &mapstructure.DecoderConfig{
		Result:           &record,
		WeaklyTypedInput: true,
		DecodeHook:       rawStringHook,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return Job{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Job{}, fmt.Errorf("decoding raw record: %w", err)
	}

	return Job{
		ID:                    record.ID,
		PostedAt:              record.PostedAt,
		Title:                 record.Title,
		Company:               record.CompanyName,
		Location:              record.Location,
		CompanyEmployeesCount: record.CompanyEmployeesCount,
		Link:                  record.Link,
		ApplyURL:              record.ApplyURL,
		JobDescription:        truncate(record.DescriptionText, DescriptionMaxLength),
		CompanyDescription:    truncate(record.CompanyDescription, DescriptionMaxLength),
		SeniorityLevel:        record.SeniorityLevel,
		EmploymentType:        record.EmploymentType,
		JobFunction:           record.JobFunction,
		Industries:            record.Industries,
		ApplicantsCount:       record.ApplicantsCount,
		ApplicationType:       DetectApplicationType(record.ApplyURL),
	}, nil
}

// CondenseAll condenses every record in the batch. Elements that are not
// JSON objects or fail to decode are skipped with a warning; the batch
// always continues.
func CondenseAll(records []any, logger *zap.Logger) []Job {
	condensed := make([]Job, 0, len(records))
	for i, record := range records {
		raw, ok := record.(map[string]any)
		if !ok {
			if logger != nil {
				logger.Warn("skipping malformed record",
					zap.Int("index", i),
					zap.String("reason", "not a JSON object"),
				)
			}
			continue
		}

		job, err := Condense(raw)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping malformed record",
					zap.Int("index", i),
					zap.Error(err),
				)
			}
			continue
		}

		condensed = append(condensed, job)
	}
	return condensed
}

// rawStringHook trims string values and flattens composite values
// (arrays, objects) into their JSON form so they survive as text.
func rawStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		return strings.TrimSpace(data.(string)), nil
	case reflect.Slice, reflect.Map:
		encoded, err := json.Marshal(data)
		if err != nil {
			return data, nil
		}
		return string(encoded), nil
	}

	return data, nil
}

// truncate caps s at limit runes, appending the ellipsis marker only when
// truncation actually occurred.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}
