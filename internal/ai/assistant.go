// Package ai scores condensed job records against a candidate profile
// using a two-tier model strategy with strict structural validation.
package ai

import (
	"context"
	"fmt"
)

// Message is a single chat-completion message.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Request describes one chat-completion call.
type Request struct {
	Model           string
	Messages        []Message
	Temperature     float64
	MaxOutputTokens int
}

// Response carries the model output and its token usage.
type Response struct {
	Content     string
	TotalTokens int
}

// Completer is implemented by model inference backends.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider() string
}

// EvaluationResult is the validated outcome of scoring a single job.
type EvaluationResult struct {
	Rating      float64
	Explanation string
}

// ScoringError is the single typed error surfaced for an unrecoverable
// per-job scoring failure. Callers count it and continue with the batch.
type ScoringError struct {
	JobID string
	Err   error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring job %s: %v", e.JobID, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }
