package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from configs/config.yaml (when present), merges
// environment variable overrides, applies defaults and validates the
// result.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// commands behave the same when run from cmd/ subdirectories or tests.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ApplyDefaults fills in every unset field with its documented default.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pdf-tutor"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.Database == "" {
		cfg.Database.Postgres.Database = "pdftutor"
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = "pdftutor"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.OllamaModel == "" {
		cfg.LLM.OllamaModel = "llama3.1"
	}
	if cfg.LLM.OpenAIModel == "" {
		cfg.LLM.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1500
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 60
	}

	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.MaxConcurrent == 0 {
		cfg.Embedding.MaxConcurrent = 3
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}

	if cfg.Engine.LowScoreThreshold == 0 {
		cfg.Engine.LowScoreThreshold = 0.3
	}
	if cfg.Engine.HighScoreThreshold == 0 {
		cfg.Engine.HighScoreThreshold = 0.55
	}
	if cfg.Engine.MinFragments == 0 {
		cfg.Engine.MinFragments = 1
	}
	if cfg.Engine.TopK == 0 {
		cfg.Engine.TopK = 5
	}
	if cfg.Engine.HistoryWindow == 0 {
		cfg.Engine.HistoryWindow = 10
	}
	if cfg.Engine.HistoryCap == 0 {
		cfg.Engine.HistoryCap = 20
	}
	if cfg.Engine.MaxPromptBytes == 0 {
		cfg.Engine.MaxPromptBytes = 24576
	}
	if cfg.Engine.CompressWorkers == 0 {
		cfg.Engine.CompressWorkers = 3
	}
	if cfg.Engine.MaxSourcePages == 0 {
		cfg.Engine.MaxSourcePages = 3
	}
	if cfg.Engine.FragmentFloor == 0 {
		cfg.Engine.FragmentFloor = 0.5
	}
	if cfg.Engine.FragmentCeil == 0 {
		cfg.Engine.FragmentCeil = 1.0
	}
	if cfg.Engine.BlendedFloor == 0 {
		cfg.Engine.BlendedFloor = 0.3
	}
	if cfg.Engine.BlendedCeil == 0 {
		cfg.Engine.BlendedCeil = 0.7
	}

	if cfg.Chat.SessionTTLDays == 0 {
		cfg.Chat.SessionTTLDays = 30
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validate(cfg *Config) error {
	if cfg.LLM.Provider != "ollama" && cfg.LLM.Provider != "openai" {
		return fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.OpenAIKey == "" {
		return fmt.Errorf("openai provider selected but openai_key is empty")
	}
	if cfg.Engine.LowScoreThreshold >= cfg.Engine.HighScoreThreshold {
		return fmt.Errorf("low_score_threshold %.2f must be below high_score_threshold %.2f",
			cfg.Engine.LowScoreThreshold, cfg.Engine.HighScoreThreshold)
	}
	if cfg.Engine.HistoryWindow > cfg.Engine.HistoryCap {
		return fmt.Errorf("history_window %d exceeds history_cap %d",
			cfg.Engine.HistoryWindow, cfg.Engine.HistoryCap)
	}
	return nil
}
