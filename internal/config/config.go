package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

const (
	// DefaultDir is the derived documentation tree, relative to the repository root.
	DefaultDir = ".codemap"
	// DefaultFile is the configuration file name inside DefaultDir.
	DefaultFile = "config.yaml"
)

// Config represents the codemap configuration file.
type Config struct {
	Include    []string         `yaml:"include"`
	Exclude    []string         `yaml:"exclude"`
	Modules    ModulesConfig    `yaml:"modules"`
	LLM        LLMConfig        `yaml:"llm"`
	Build      BuildConfig      `yaml:"build,omitempty"`
	Output     OutputConfig     `yaml:"output"`
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty"`
}

// ModulesConfig selects how files are grouped into documentation modules.
type ModulesConfig struct {
	Strategy ModuleStrategy `yaml:"strategy"`
	Depth    int            `yaml:"depth"`
}

// LLMConfig configures the summarization backend.
type LLMConfig struct {
	Provider          LLMProvider `yaml:"provider"`
	Model             string      `yaml:"model"`
	APIBase           string      `yaml:"api_base,omitempty"`
	APIKeyEnv         string      `yaml:"api_key_env,omitempty"`
	Timeout           string      `yaml:"timeout,omitempty"`
	MaxTokens         int         `yaml:"max_tokens,omitempty"`
	Temperature       *float64    `yaml:"temperature,omitempty"`
	RequestsPerMinute int         `yaml:"requests_per_minute,omitempty"`
}

// BuildConfig holds concurrency and retry knobs for module generation.
type BuildConfig struct {
	MaxConcurrency    int              `yaml:"max_concurrency,omitempty"`
	MaxAttempts       int              `yaml:"max_attempts,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
}

// OutputConfig customizes generated documents.
type OutputConfig struct {
	IncludeDiagrams *bool       `yaml:"include_diagrams,omitempty"`
	DetailLevel     DetailLevel `yaml:"detail_level,omitempty"`
}

// MonitoringConfig groups logging, metrics and the run log.
type MonitoringConfig struct {
	Logging MonitoringLogging `yaml:"logging,omitempty"`
	Metrics MonitoringMetrics `yaml:"metrics,omitempty"`
	RunLog  MonitoringRunLog  `yaml:"run_log,omitempty"`
}

// MonitoringLogging represents logging configuration
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MonitoringMetrics controls the Prometheus textfile written after each run.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MonitoringRunLog controls the SQLite run history.
type MonitoringRunLog struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// DiagramsEnabled reports whether the overview carries a mermaid graph.
func (o OutputConfig) DiagramsEnabled() bool {
	return o.IncludeDiagrams == nil || *o.IncludeDiagrams
}

// IsEnabled reports whether runs are recorded; defaults to true.
func (r MonitoringRunLog) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// TimeoutDuration returns the per-request timeout.
func (l LLMConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(l.Timeout, defaultLLMTimeout)
}

// TemperatureValue returns the sampling temperature.
func (l LLMConfig) TemperatureValue() float64 {
	if l.Temperature == nil {
		return defaultTemperature
	}
	return *l.Temperature
}

// Load reads, normalizes, defaults and validates the configuration at configPath.
// A missing file yields the defaults so commands work before `init`.
func Load(configPath string) (*Config, error) {
	if err := LoadEnv(filepath.Dir(filepath.Dir(configPath))); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		data = nil
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").Build()
	}

	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	for _, w := range res.Warnings {
		slog.Warn("config normalization", "detail", w)
	}
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	var cfg Config
	_ = NewDefaultApplier().ApplyDefaults(&cfg)
	return &cfg
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
