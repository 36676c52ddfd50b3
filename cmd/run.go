package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/ai"
	"github.com/jobsift/jobsift/internal/ai/gemini"
	"github.com/jobsift/jobsift/internal/ai/openai"
	"github.com/jobsift/jobsift/internal/evalcache"
	"github.com/jobsift/jobsift/internal/filtering"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/pipeline"
	"github.com/jobsift/jobsift/internal/retry"
	"github.com/jobsift/jobsift/internal/secrets"
	"github.com/jobsift/jobsift/internal/workspace"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	defaultInputPattern    = "condensed_jobs_*.json"
	defaultResumeFile      = "resume.txt"
	defaultCacheFile       = "rated_jobs.json"
	defaultRatingThreshold = 7
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation pipeline over the latest scraped batch",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before scoring and publishing")
	runCmd.Flags().Bool("dry-run", false, "filter only; skip the workspace check, scoring and publishing")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobsift", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	dryRun := cmd.Flag("dry-run").Value.String() == "true"
	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"

	pipelineCfg := pipelineConfig(config, dryRun)

	engine := filtering.NewEngine(filterConfig(config.Filters), logger, nil)
	cache := evalcache.Load(cachePath(config), cacheSaveInterval(config), logger)
	logger.Info("evaluation cache loaded", zap.Int("entries", cache.Len()))

	var (
		index     pipeline.DuplicateIndex
		scorer    pipeline.Scorer
		publisher pipeline.Publisher
	)

	if !dryRun {
		client, err := newWorkspaceClient(config, logger)
		if err != nil {
			logger.Fatal("building workspace client", zap.Error(err))
		}
		index = client
		publisher = client

		scorer, err = newScorer(ctx, config.AI, logger)
		if err != nil {
			logger.Fatal("building scorer", zap.Error(err))
		}
	}

	p := pipeline.New(pipelineCfg, engine, index, scorer, publisher, cache, logger)

	if !autoApprove && !dryRun {
		p.Confirm = confirmEvaluation
	}

	counters, err := p.Run(ctx)
	if err != nil {
		logger.Fatal("pipeline run failed", zap.Error(err))
	}

	threshold := config.MinimumRatingThreshold
	if threshold <= 0 {
		threshold = defaultRatingThreshold
	}

	fmt.Println(pipeline.RenderSummary(counters, p.Usage(), threshold))
}

func confirmEvaluation(count int) (bool, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("%d jobs passed filtering. Score and publish?", count),
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return false, err
	}

	return action == PromptYes, nil
}

func pipelineConfig(config *Config, dryRun bool) pipeline.Config {
	cfg := pipeline.Config{
		InputPattern:    defaultInputPattern,
		ResumeFile:      defaultResumeFile,
		RatingThreshold: defaultRatingThreshold,
		DryRun:          dryRun,
	}

	if config.Input != nil {
		cfg.InputDir = config.Input.Dir
		if config.Input.Pattern != "" {
			cfg.InputPattern = config.Input.Pattern
		}
	}

	if config.ResumeFile != "" {
		cfg.ResumeFile = config.ResumeFile
	}

	if config.MinimumRatingThreshold > 0 {
		cfg.RatingThreshold = config.MinimumRatingThreshold
	}

	cfg.LockFile = cachePath(config) + ".lock"

	return cfg
}

func cachePath(config *Config) string {
	if config.CacheFile != "" {
		return config.CacheFile
	}
	return defaultCacheFile
}

func filterConfig(cfg *FiltersConfig) *filtering.Config {
	if cfg == nil {
		return &filtering.Config{}
	}

	return &filtering.Config{
		BadCompanies:       cfg.BadCompanies,
		AggregatorKeywords: cfg.AggregatorKeywords,
		ExcludedKeywords:   cfg.ExcludedKeywords,
		ExcludedSeniority:  cfg.ExcludedSeniority,
		AllowedLocations:   cfg.AllowedLocations,
		UseLocationFilter:  cfg.UseLocationFilter,
		DaysLimit:          cfg.DaysLimit,
	}
}

func cacheSaveInterval(config *Config) int {
	if config.CacheSaveInterval > 0 {
		return config.CacheSaveInterval
	}
	return 10
}

func newWorkspaceClient(config *Config, logger *zap.Logger) (*workspace.Client, error) {
	if config.Workspace == nil || strings.TrimSpace(config.Workspace.DatabaseID) == "" {
		return nil, fmt.Errorf("workspace database id is required")
	}

	token, err := secrets.Load(secrets.Source{
		Name: "workspace token",
		File: config.Workspace.TokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set workspace.token-file or JOBSIFT_WORKSPACE_TOKEN_FILE)", err)
	}

	policy := retry.Default()
	if config.Workspace.MaxRetries > 0 {
		policy.MaxAttempts = config.Workspace.MaxRetries
	}

	return workspace.New(token, config.Workspace.DatabaseID, policy, logger), nil
}

func newScorer(ctx context.Context, cfg *AIConfig, zapLogger *zap.Logger) (*ai.Scorer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai configuration is required")
	}
	if strings.TrimSpace(cfg.PrimaryModel) == "" || strings.TrimSpace(cfg.BackupModel) == "" {
		return nil, fmt.Errorf("ai primary and backup models are required")
	}

	completer, err := newCompleter(ctx, cfg, zapLogger)
	if err != nil {
		return nil, err
	}

	policy := retry.Default()
	if cfg.MaxRetries > 0 {
		policy.MaxAttempts = cfg.MaxRetries
	}
	policy.BaseDelay = time.Second

	scorerCfg := ai.ScorerConfig{
		PrimaryModel:        cfg.PrimaryModel,
		BackupModel:         cfg.BackupModel,
		ModelCosts:          cfg.ModelCosts,
		VagueRatingMin:      cfg.VagueRatingMin,
		VagueRatingMax:      cfg.VagueRatingMax,
		MinExplanationWords: cfg.MinExplanationWords,
		Retry:               policy,
		MaxLogLength:        cfg.MaxLogLength,
	}

	scorerLogger := logger.WithCommonFields(zapLogger, completer.Provider(), cfg.PrimaryModel)

	return ai.NewScorer(completer, scorerCfg, ai.NewLedger(), scorerLogger), nil
}

func newCompleter(ctx context.Context, cfg *AIConfig, zapLogger *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", "openai":
		var keyFile, baseURL string
		if cfg.OpenAI != nil {
			keyFile = cfg.OpenAI.APIKeyFile
			baseURL = cfg.OpenAI.BaseURL
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "openai api key",
			File: keyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}

		return openai.New(apiKey, baseURL, cfg.RequestsPerSecond, zapLogger)
	case "gemini":
		var keyFile string
		if cfg.Gemini != nil {
			keyFile = cfg.Gemini.APIKeyFile
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: keyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		return gemini.NewGenerator(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
