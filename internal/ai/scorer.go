package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/retry"
	"github.com/jobsift/jobsift/internal/utils"
)

//go:embed prompt_system.md
var systemPrompt string

//go:embed prompt_user.md
var userPromptTemplate string

const (
	defaultTemperature      = 0.7
	defaultMaxOutputTokens  = 400
	defaultUnknownModelCost = 0.01
	defaultMaxLogLength     = 200
)

// genericPhrases mark a low-effort explanation that warrants escalation to
// the backup model.
var genericPhrases = []string{
	"good fit",
	"aligns well",
	"strong background",
	"relevant experience",
	"would be suitable",
	"meets requirements",
	"has experience",
}

// Ledger accumulates token and cost usage across all scoring calls in a
// run. It is passed by reference into the scorer and read once at run end.
type Ledger struct {
	mu          sync.Mutex
	tokens      int
	cost        float64
	escalations int
}

// UsageSnapshot is an immutable view of the ledger for reporting.
type UsageSnapshot struct {
	TotalTokens int
	TotalCost   float64
	Escalations int
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) add(tokens int, cost float64, escalated bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens += tokens
	l.cost += cost
	if escalated {
		l.escalations++
	}
}

func (l *Ledger) Snapshot() UsageSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return UsageSnapshot{
		TotalTokens: l.tokens,
		TotalCost:   l.cost,
		Escalations: l.escalations,
	}
}

// ScorerConfig carries the two-tier model strategy settings.
type ScorerConfig struct {
	PrimaryModel        string
	BackupModel         string
	ModelCosts          map[string]float64 // per 1000 tokens
	VagueRatingMin      float64
	VagueRatingMax      float64
	MinExplanationWords int
	Retry               retry.Policy
	MaxLogLength        int
}

// Scorer produces evaluation results via the primary model, escalating to
// the backup model when the primary result is low-confidence.
type Scorer struct {
	completer Completer
	cfg       ScorerConfig
	ledger    *Ledger
	logger    *zap.Logger
}

func NewScorer(completer Completer, cfg ScorerConfig, ledger *Ledger, logger *zap.Logger) *Scorer {
	if cfg.VagueRatingMax <= 0 {
		cfg.VagueRatingMin = 4
		cfg.VagueRatingMax = 6
	}
	if cfg.MinExplanationWords <= 0 {
		cfg.MinExplanationWords = 30
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if ledger == nil {
		ledger = NewLedger()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{completer: completer, cfg: cfg, ledger: ledger, logger: logger}
}

// Score evaluates the job against the resume. Any unrecoverable failure is
// returned as a *ScoringError; the caller treats it as a per-job failure.
func (s *Scorer) Score(ctx context.Context, job *jobs.Job, resume string) (*EvaluationResult, error) {
	messages := buildMessages(job, resume)

	result, tokens, cost, err := s.callModel(ctx, s.cfg.PrimaryModel, messages, job.ID)

	// escalated counts only the quality heuristic; a fallback after a
	// structurally invalid primary result reaches the backup tier too but
	// stays out of the escalation tally.
	escalated := false
	fallback := false

	switch {
	case err == nil:
		escalated = s.needsEscalation(result)
	default:
		var scoringErr *ScoringError
		if errors.As(err, &scoringErr) {
			// Transport failure with retries already exhausted.
			s.ledger.add(tokens, cost, false)
			return nil, err
		}

		// A structurally invalid primary result gets one shot at the
		// backup tier, never another try against the same model.
		s.logger.Warn("primary model result rejected",
			zap.String("job_id", job.ID),
			zap.String("model", s.cfg.PrimaryModel),
			zap.Error(err),
		)
		fallback = true
	}

	if escalated || fallback {
		s.logger.Info("escalating to backup model",
			zap.String("job_id", job.ID),
			zap.String("model", s.cfg.BackupModel),
			zap.Bool("fallback", fallback),
		)

		backupResult, backupTokens, backupCost, backupErr := s.callModel(ctx, s.cfg.BackupModel, messages, job.ID)
		tokens += backupTokens
		cost += backupCost
		if backupErr != nil {
			s.ledger.add(tokens, cost, escalated)
			var scoringErr *ScoringError
			if errors.As(backupErr, &scoringErr) {
				return nil, backupErr
			}
			return nil, &ScoringError{JobID: job.ID, Err: backupErr}
		}
		// The backup result replaces the primary result entirely.
		result = backupResult
	}

	s.ledger.add(tokens, cost, escalated)

	snapshot := s.ledger.Snapshot()
	s.logger.Info("job evaluated",
		zap.String("job_id", job.ID),
		zap.String("title", job.Title),
		zap.String("company", job.Company),
		zap.Float64("rating", result.Rating),
		zap.Int("tokens", tokens),
		zap.Float64("cost", cost),
		zap.Float64("cumulative_cost", snapshot.TotalCost),
		zap.Bool("escalated", escalated),
	)

	return result, nil
}

// Usage returns an immutable snapshot of the accumulated usage.
func (s *Scorer) Usage() UsageSnapshot {
	return s.ledger.Snapshot()
}

// callModel performs one tier's call: transient failures are retried with
// backoff, then the response is parsed and validated. Validation failures
// are call failures, never silently coerced.
func (s *Scorer) callModel(ctx context.Context, model string, messages []Message, jobID string) (*EvaluationResult, int, float64, error) {
	req := Request{
		Model:           model,
		Messages:        messages,
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxOutputTokens,
	}

	var resp *Response
	err := s.cfg.Retry.Do(ctx, s.logger, fmt.Sprintf("%s completion", model), func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.completer.Complete(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, 0, 0, &ScoringError{JobID: jobID, Err: err}
	}

	cost := s.modelCost(resp.TotalTokens, model)

	s.logger.Debug("model response",
		zap.String("model", model),
		zap.Int("tokens", resp.TotalTokens),
		zap.String("preview", utils.TruncateForLog(resp.Content, s.cfg.MaxLogLength)),
	)

	result, err := parseResult(resp.Content)
	if err != nil {
		return nil, resp.TotalTokens, cost, err
	}

	return result, resp.TotalTokens, cost, nil
}

func (s *Scorer) modelCost(tokens int, model string) float64 {
	rate, ok := s.cfg.ModelCosts[model]
	if !ok {
		rate = defaultUnknownModelCost
	}
	return float64(tokens) / 1000 * rate
}

// needsEscalation reports whether the primary result is low-confidence:
// a vague rating (range boundaries inclusive), a short explanation, or
// generic filler language.
func (s *Scorer) needsEscalation(result *EvaluationResult) bool {
	if result.Rating >= s.cfg.VagueRatingMin && result.Rating <= s.cfg.VagueRatingMax {
		return true
	}

	if len(strings.Fields(result.Explanation)) < s.cfg.MinExplanationWords {
		return true
	}

	explanation := strings.ToLower(result.Explanation)
	for _, phrase := range genericPhrases {
		if strings.Contains(explanation, phrase) {
			return true
		}
	}

	return false
}

func buildMessages(job *jobs.Job, resume string) []Message {
	replacer := strings.NewReplacer(
		"{{RESUME}}", resume,
		"{{TITLE}}", orNA(job.Title),
		"{{COMPANY}}", orNA(job.Company),
		"{{LOCATION}}", orNA(job.Location),
		"{{SENIORITY}}", orNA(job.SeniorityLevel),
		"{{DESCRIPTION}}", orNA(job.JobDescription),
	)

	return []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: replacer.Replace(userPromptTemplate)},
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// parseResult parses the model output as JSON after stripping any
// surrounding code fences, then validates the structure.
func parseResult(raw string) (*EvaluationResult, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	ratingValue, ok := data["rating"]
	if !ok {
		return nil, fmt.Errorf("evaluation result missing rating field")
	}

	rating, ok := ratingValue.(float64)
	if !ok {
		return nil, fmt.Errorf("rating must be a number, got %T", ratingValue)
	}

	if rating < 1 || rating > 10 {
		return nil, fmt.Errorf("rating must be between 1 and 10, got %v", rating)
	}

	explanationValue, ok := data["explanation"]
	if !ok {
		return nil, fmt.Errorf("evaluation result missing explanation field")
	}

	explanation, ok := explanationValue.(string)
	if !ok || strings.TrimSpace(explanation) == "" {
		return nil, fmt.Errorf("explanation must be a non-empty string")
	}

	return &EvaluationResult{Rating: rating, Explanation: strings.TrimSpace(explanation)}, nil
}

// extractJSON strips ```json and bare ``` fences the model may wrap
// around its output despite the JSON-only instruction.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
