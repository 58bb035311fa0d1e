package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	Provider       string  `mapstructure:"provider"` // "ollama" or "openai"
	OllamaHost     string  `mapstructure:"ollama_host"`
	OllamaModel    string  `mapstructure:"ollama_model"`
	OpenAIKey      string  `mapstructure:"openai_key"`
	OpenAIBaseURL  string  `mapstructure:"openai_base_url"`
	OpenAIModel    string  `mapstructure:"openai_model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type EmbeddingConfig struct {
	Model         string `mapstructure:"model"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

// EngineConfig holds every tunable of the answer engine. Values are passed
// into the engine constructor; the engine never reads ambient state.
type EngineConfig struct {
	LowScoreThreshold  float64 `mapstructure:"low_score_threshold"`
	HighScoreThreshold float64 `mapstructure:"high_score_threshold"`
	MinFragments       int     `mapstructure:"min_fragments"`
	TopK               int     `mapstructure:"top_k"`
	HistoryWindow      int     `mapstructure:"history_window"`
	HistoryCap         int     `mapstructure:"history_cap"`
	MaxPromptBytes     int     `mapstructure:"max_prompt_bytes"`
	CompressWorkers    int     `mapstructure:"compress_workers"`
	MaxSourcePages     int     `mapstructure:"max_source_pages"`
	FragmentFloor      float64 `mapstructure:"fragment_floor"`
	FragmentCeil       float64 `mapstructure:"fragment_ceil"`
	BlendedFloor       float64 `mapstructure:"blended_floor"`
	BlendedCeil        float64 `mapstructure:"blended_ceil"`
}

type ChatConfig struct {
	SessionTTLDays int `mapstructure:"session_ttl_days"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
