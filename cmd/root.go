package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsift"
)

type Config struct {
	Input                  *InputConfig     `mapstructure:"input"`
	ResumeFile             string           `mapstructure:"resume-file"`
	CacheFile              string           `mapstructure:"cache-file"`
	CacheSaveInterval      int              `mapstructure:"cache-save-interval"`
	Filters                *FiltersConfig   `mapstructure:"filters"`
	AI                     *AIConfig        `mapstructure:"ai"`
	Workspace              *WorkspaceConfig `mapstructure:"workspace"`
	MinimumRatingThreshold float64          `mapstructure:"minimum-rating-threshold"`
}

type InputConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
}

type FiltersConfig struct {
	BadCompanies       []string `mapstructure:"bad-companies"`
	AggregatorKeywords []string `mapstructure:"aggregator-keywords"`
	ExcludedKeywords   []string `mapstructure:"excluded-keywords"`
	ExcludedSeniority  []string `mapstructure:"excluded-seniority"`
	AllowedLocations   []string `mapstructure:"allowed-locations"`
	UseLocationFilter  bool     `mapstructure:"use-location-filter"`
	DaysLimit          int      `mapstructure:"days-limit"`
}

type AIConfig struct {
	Provider            string             `mapstructure:"provider"`
	PrimaryModel        string             `mapstructure:"primary-model"`
	BackupModel         string             `mapstructure:"backup-model"`
	MaxRetries          int                `mapstructure:"max-retries"`
	RequestsPerSecond   float64            `mapstructure:"requests-per-second"`
	VagueRatingMin      float64            `mapstructure:"vague-rating-min"`
	VagueRatingMax      float64            `mapstructure:"vague-rating-max"`
	MinExplanationWords int                `mapstructure:"min-explanation-words"`
	ModelCosts          map[string]float64 `mapstructure:"model-costs"`
	MaxLogLength        int                `mapstructure:"max-log-length"`
	OpenAI              *OpenAIConfig      `mapstructure:"openai"`
	Gemini              *GeminiConfig      `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

type WorkspaceConfig struct {
	DatabaseID string `mapstructure:"database-id"`
	TokenFile  string `mapstructure:"token-file"`
	MaxRetries int    `mapstructure:"max-retries"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsift filters and scores scraped job postings against a candidate profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("workspace.token-file", "JOBSIFT_WORKSPACE_TOKEN_FILE"); err != nil {
		log.Fatalf("binding JOBSIFT_WORKSPACE_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.openai.api-key-file", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsift.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
