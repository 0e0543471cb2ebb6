// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top, expands
// ${ENV} placeholders and applies defaults.
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

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// Defaults returns a configuration built only from defaults for the given provider. It does
// not read files or the environment.
func Defaults(provider string) *Config {
	cfg := &Config{LLM: LLMConfig{Provider: provider}}
	applyDefaults(cfg)
	return cfg
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

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

// findProjectRoot walks up from the working directory looking for go.mod.
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
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the conventional provider variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.Cache.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Cache.Address = val
		}
	}
	if cfg.Camunda.BrokerAddress == "" {
		if val := os.Getenv("ZEEBE_ADDRESS"); val != "" {
			cfg.Camunda.BrokerAddress = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "travel-concierge"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 15000
	}
	if cfg.LLM.Pricing.PromptPer1K == 0 && cfg.LLM.Pricing.CompletionPer1K == 0 {
		cfg.LLM.Pricing = PricingConfig{PromptPer1K: 0.003, CompletionPer1K: 0.015}
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "concierge:llm:"
	}

	if cfg.Agents == nil {
		cfg.Agents = map[string]AgentConfig{}
	}
	for _, name := range []string{AgentDestination, AgentLodging, AgentDining, AgentValidator} {
		agent, exists := cfg.Agents[name]
		if !exists {
			agent.Enabled = true
		}
		cfg.Agents[name] = withAgentDefaults(agent, cfg.LLM)
	}

	if cfg.Orchestrator.RunTimeout == 0 {
		cfg.Orchestrator.RunTimeout = 45000
	}
	if cfg.Orchestrator.DefaultTripDays == 0 {
		cfg.Orchestrator.DefaultTripDays = 3
	}
	if len(cfg.Orchestrator.WorkerWeights) == 0 {
		cfg.Orchestrator.WorkerWeights = map[string]float64{
			AgentDestination: 0.4,
			AgentLodging:     0.2,
			AgentDining:      0.25,
			AgentValidator:   0.15,
		}
	}
	if cfg.Orchestrator.FallbackPenalty == 0 {
		cfg.Orchestrator.FallbackPenalty = 0.1
	}
	if cfg.Orchestrator.WarningPenalty == 0 {
		cfg.Orchestrator.WarningPenalty = 0.03
	}
	if cfg.Orchestrator.MaxWarningPenalty == 0 {
		cfg.Orchestrator.MaxWarningPenalty = 0.15
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 60000
	}
}

func withAgentDefaults(agent AgentConfig, llm LLMConfig) AgentConfig {
	if agent.Timeout == 0 {
		agent.Timeout = llm.Timeout
	}
	if agent.MaxAttempts == 0 {
		agent.MaxAttempts = 2
	}
	if agent.InitialBackoff == 0 {
		agent.InitialBackoff = 250
	}
	if agent.MaxBackoff == 0 {
		agent.MaxBackoff = 2000
	}
	if agent.Temperature == 0 {
		agent.Temperature = llm.Temperature
	}
	if agent.MaxTokens == 0 {
		agent.MaxTokens = llm.MaxTokens
	}
	if agent.Model == "" {
		agent.Model = llm.Model
	}
	return agent
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "scripted":
		return "scripted"
	default:
		return "claude-3-5-sonnet-latest"
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "anthropic", "openai":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", cfg.LLM.Provider)
		}
	case "scripted":
	default:
		return fmt.Errorf("llm.provider %q is not supported", cfg.LLM.Provider)
	}

	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when the cache is enabled")
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	if !cfg.Agents[AgentDestination].Enabled {
		return fmt.Errorf("agents.destination cannot be disabled")
	}
	for name, agent := range cfg.Agents {
		if agent.MaxAttempts < 1 {
			return fmt.Errorf("agents.%s.max_attempts must be >= 1", name)
		}
	}
	return nil
}

// GetAgentConfig retrieves worker-specific configuration with fallback to defaults.
func GetAgentConfig(cfg *Config, name string) AgentConfig {
	if agent, exists := cfg.Agents[name]; exists {
		return agent
	}
	return withAgentDefaults(AgentConfig{Enabled: true}, cfg.LLM)
}

// IsAgentEnabled checks if a specific worker is enabled.
func IsAgentEnabled(cfg *Config, name string) bool {
	if agent, exists := cfg.Agents[name]; exists {
		return agent.Enabled
	}
	return true
}
