// Package pipeline drives the single-threaded evaluation pass: condense,
// filter, score, cache, publish. One job completes each stage before the
// next job starts; ordering of log output and cache writes reflects batch
// order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/ai"
	"github.com/jobsift/jobsift/internal/evalcache"
	"github.com/jobsift/jobsift/internal/filtering"
	"github.com/jobsift/jobsift/internal/jobs"
)

// DuplicateIndex supplies identifiers already present in the workspace.
type DuplicateIndex interface {
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
}

// Publisher pushes a qualifying job to the workspace.
type Publisher interface {
	Publish(ctx context.Context, job *jobs.Job) bool
}

// Scorer evaluates a job against the candidate profile.
type Scorer interface {
	Score(ctx context.Context, job *jobs.Job, resume string) (*ai.EvaluationResult, error)
	Usage() ai.UsageSnapshot
}

// Config carries the pipeline's file and gating settings.
type Config struct {
	InputDir        string
	InputPattern    string
	ResumeFile      string
	LockFile        string
	RatingThreshold float64
	DryRun          bool
}

// Counters is the end-of-run outcome tally.
type Counters struct {
	Total          int
	FilteredOut    int
	Published      int
	BelowThreshold int
	Skipped        int
	Failed         int
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg       Config
	logger    *zap.Logger
	engine    *filtering.Engine
	index     DuplicateIndex
	scorer    Scorer
	publisher Publisher
	cache     *evalcache.Cache
	lock      *flock.Flock

	// Confirm is consulted between filtering and scoring. A nil Confirm
	// proceeds unconditionally.
	Confirm func(count int) (bool, error)
}

func New(cfg Config, engine *filtering.Engine, index DuplicateIndex, scorer Scorer, publisher Publisher, cache *evalcache.Cache, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	lockPath := strings.TrimSpace(cfg.LockFile)
	if lockPath == "" {
		lockPath = "jobsift.lock"
	}

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		index:     index,
		scorer:    scorer,
		publisher: publisher,
		cache:     cache,
		lock:      flock.New(lockPath),
	}
}

// Run executes one full pass. Setup failures (missing resume or input
// file, held lock) are returned; per-job failures are counted and never
// abort the batch.
func (p *Pipeline) Run(ctx context.Context) (*Counters, error) {
	ok, err := p.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another pipeline run is already in progress")
	}
	defer func() {
		if err := p.lock.Unlock(); err != nil {
			p.logger.Warn("failed to release run lock", zap.Error(err))
		}
	}()

	resume, err := p.loadResume()
	if err != nil {
		return nil, err
	}

	batch, err := p.loadBatch()
	if err != nil {
		return nil, err
	}

	counters := &Counters{Total: len(batch)}

	passed := p.filter(ctx, batch)
	counters.FilteredOut = len(batch) - len(passed)

	if len(passed) == 0 {
		p.logger.Info("no jobs left after filtering")
		return counters, nil
	}

	if p.cfg.DryRun {
		p.logger.Info("dry run, skipping evaluation",
			zap.Int("jobs_passed", len(passed)),
		)
		return counters, nil
	}

	if p.Confirm != nil {
		approved, err := p.Confirm(len(passed))
		if err != nil {
			return nil, fmt.Errorf("confirmation: %w", err)
		}
		if !approved {
			p.logger.Info("evaluation declined")
			return counters, nil
		}
	}

	p.evaluate(ctx, passed, resume, counters)

	if err := p.cache.Save(); err != nil {
		p.logger.Error("final cache save failed", zap.Error(err))
	}

	return counters, nil
}

func (p *Pipeline) loadResume() (string, error) {
	data, err := os.ReadFile(p.cfg.ResumeFile)
	if err != nil {
		return "", fmt.Errorf("loading resume: %w", err)
	}

	resume := strings.TrimSpace(string(data))
	if resume == "" {
		return "", fmt.Errorf("resume file %s is empty", p.cfg.ResumeFile)
	}

	p.logger.Info("resume loaded", zap.Int("characters", len(resume)))

	return resume, nil
}

func (p *Pipeline) loadBatch() ([]jobs.Job, error) {
	path, err := jobs.LatestInputFile(p.cfg.InputDir, p.cfg.InputPattern)
	if err != nil {
		return nil, err
	}

	records, err := jobs.LoadRecords(path)
	if err != nil {
		return nil, fmt.Errorf("loading records from %s: %w", path, err)
	}

	batch := jobs.CondenseAll(records, p.logger)

	p.logger.Info("loaded input batch",
		zap.String("file", path),
		zap.Int("records", len(records)),
		zap.Int("condensed", len(batch)),
	)

	return batch, nil
}

// filter fetches the duplicate index fail-open and runs the rule engine.
// An unreachable workspace costs duplicate protection, not the run; the
// evaluation cache still prevents re-scoring.
func (p *Pipeline) filter(ctx context.Context, batch []jobs.Job) []jobs.Job {
	knownIDs := map[string]struct{}{}

	if p.cfg.DryRun {
		p.logger.Info("dry run, skipping workspace duplicate check")
	} else if p.index != nil {
		ids, err := p.index.KnownIDs(ctx)
		if err != nil {
			p.logger.Error("fetching known job ids failed, proceeding without duplicate protection", zap.Error(err))
		} else {
			knownIDs = ids
			p.logger.Info("fetched known job ids", zap.Int("count", len(knownIDs)))
		}
	}

	passed, _ := p.engine.Run(batch, knownIDs)
	return passed
}

func (p *Pipeline) evaluate(ctx context.Context, batch []jobs.Job, resume string, counters *Counters) {
	for i := range batch {
		job := &batch[i]

		if p.cache.Has(job.ID) {
			p.logger.Info("skipping cached job", zap.String("job_id", job.ID))
			counters.Skipped++
			continue
		}

		result, err := p.scorer.Score(ctx, job, resume)
		if err != nil {
			p.logger.Error("job evaluation failed",
				zap.String("job_id", job.ID),
				zap.String("title", job.Title),
				zap.Error(err),
			)
			counters.Failed++
			continue
		}

		job.SetEvaluation(result.Rating, result.Explanation)

		// The cache is updated regardless of the publish outcome:
		// evaluated and promoted are separate states.
		p.cache.Put(job.ID, result.Rating, result.Explanation)

		if result.Rating < p.cfg.RatingThreshold {
			p.logger.Info("job below publish threshold",
				zap.String("job_id", job.ID),
				zap.Float64("rating", result.Rating),
				zap.Float64("threshold", p.cfg.RatingThreshold),
			)
			counters.BelowThreshold++
			continue
		}

		if p.publisher.Publish(ctx, job) {
			counters.Published++
		} else {
			counters.Failed++
		}
	}
}

// Usage exposes the scorer's usage snapshot for the run summary.
func (p *Pipeline) Usage() ai.UsageSnapshot {
	if p.scorer == nil {
		return ai.UsageSnapshot{}
	}
	return p.scorer.Usage()
}
