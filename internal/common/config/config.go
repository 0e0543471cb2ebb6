// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig              `mapstructure:"app"`
	Logging      LoggingConfig          `mapstructure:"logging"`
	LLM          LLMConfig              `mapstructure:"llm"`
	Cache        CacheConfig            `mapstructure:"cache"`
	Agents       map[string]AgentConfig `mapstructure:"agents"`
	Orchestrator OrchestratorConfig     `mapstructure:"orchestrator"`
	Fallback     FallbackConfig         `mapstructure:"fallback"`
	Server       ServerConfig           `mapstructure:"server"`
	Camunda      CamundaConfig          `mapstructure:"camunda"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMConfig selects and parameterizes the model provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // anthropic | openai | scripted
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     int           `mapstructure:"timeout"` // milliseconds
	Pricing     PricingConfig `mapstructure:"pricing"`
	ScriptPath  string        `mapstructure:"script_path"` // scripted provider replies (YAML)
}

// PricingConfig is USD per 1K tokens.
type PricingConfig struct {
	PromptPer1K     float64 `mapstructure:"prompt_per_1k"`
	CompletionPer1K float64 `mapstructure:"completion_per_1k"`
}

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
	Prefix   string `mapstructure:"prefix"`
}

// AgentConfig tunes one worker. Zero values are filled by applyDefaults.
type AgentConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Timeout        int     `mapstructure:"timeout"` // milliseconds
	MaxAttempts    int     `mapstructure:"max_attempts"`
	InitialBackoff int     `mapstructure:"initial_backoff"` // milliseconds
	MaxBackoff     int     `mapstructure:"max_backoff"`     // milliseconds
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Model          string  `mapstructure:"model"`
}

type OrchestratorConfig struct {
	RunTimeout               int                `mapstructure:"run_timeout"` // milliseconds
	DefaultTripDays          int                `mapstructure:"default_trip_days"`
	AllowDestinationFallback bool               `mapstructure:"allow_destination_fallback"`
	WorkerWeights            map[string]float64 `mapstructure:"worker_weights"`
	FallbackPenalty          float64            `mapstructure:"fallback_penalty"`
	WarningPenalty           float64            `mapstructure:"warning_penalty"`
	MaxWarningPenalty        float64            `mapstructure:"max_warning_penalty"`
}

type FallbackConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// Agent names used as keys of Config.Agents.
const (
	AgentDestination = "destination"
	AgentLodging     = "lodging"
	AgentDining      = "dining"
	AgentValidator   = "validator"
)

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
