package workspace

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
)

const (
	// textLimit is the workspace's hard cap on text property length.
	textLimit = 2000

	// fallbackURL replaces missing or invalid URL properties; the
	// workspace rejects pages with empty url fields.
	fallbackURL = "https://www.linkedin.com"

	fallbackDate = "2025-01-01"
)

// Publish creates a page for the scored job. Failures are retried with
// backoff; a final failure is logged and reported as false, never raised.
func (c *Client) Publish(ctx context.Context, job *jobs.Job) bool {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": buildProperties(job),
	}

	url := fmt.Sprintf("%s/pages", c.APIURL)
	err := c.retry.Do(ctx, c.logger, "workspace publish", func(ctx context.Context) error {
		return c.postJSON(ctx, url, payload, nil)
	})
	if err != nil {
		c.logger.Error("failed to publish job",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return false
	}

	c.logger.Info("published job to workspace",
		zap.String("job_id", job.ID),
		zap.String("title", job.Title),
	)

	return true
}

// buildProperties maps the job onto the workspace schema. Every field is
// defensively coerced so a sparse record still produces a valid page.
func buildProperties(job *jobs.Job) map[string]any {
	rating := 0.0
	if job.Rating != nil {
		rating = *job.Rating
	}

	postedAt := strings.TrimSpace(job.PostedAt)
	if postedAt == "" {
		postedAt = fallbackDate
	}

	return map[string]any{
		"Job Title":           titleProperty(safeText(job.Title, "Untitled")),
		"Company":             richTextProperty(safeText(job.Company, "")),
		"Location":            richTextProperty(safeText(job.Location, "")),
		"Rating":              map[string]any{"number": rating},
		"Explanation":         richTextProperty(safeText(job.Explanation, "")),
		"Link":                urlProperty(job.Link),
		"Apply URL":           urlProperty(job.ApplyURL),
		"Type":                richTextProperty(safeText(job.ApplicationType, "")),
		"Date Posted":         map[string]any{"date": map[string]any{"start": postedAt}},
		"Job ID":              richTextProperty(safeText(job.ID, "0")),
		"Seniority Level":     selectProperty(safeText(job.SeniorityLevel, "N/A")),
		"Employment Type":     selectProperty(safeText(job.EmploymentType, "N/A")),
		"Job Function":        richTextProperty(safeText(job.JobFunction, "")),
		"Industries":          richTextProperty(safeText(job.Industries, "")),
		"Company Size":        map[string]any{"number": job.CompanyEmployeesCount},
		"Company Description": richTextProperty(safeText(job.CompanyDescription, "")),
	}
}

func titleProperty(text string) map[string]any {
	return map[string]any{
		"title": []any{
			map[string]any{"text": map[string]any{"content": text}},
		},
	}
}

func richTextProperty(text string) map[string]any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{"text": map[string]any{"content": text}},
		},
	}
}

func selectProperty(name string) map[string]any {
	return map[string]any{
		"select": map[string]any{"name": name},
	}
}

func urlProperty(value string) map[string]any {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		value = fallbackURL
	}
	return map[string]any{"url": value}
}

// safeText truncates to the workspace field limit, substituting a default
// for empty values. Truncation counts runes so a multi-byte character is
// never split.
func safeText(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if runes := []rune(value); len(runes) > textLimit {
		value = string(runes[:textLimit])
	}
	return value
}
