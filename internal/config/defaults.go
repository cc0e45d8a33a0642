package config

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	defaultModel        = "claude-sonnet-4-20250514"
	defaultLLMTimeout   = 120 * time.Second
	defaultTemperature  = 0.3
	defaultMaxTokens    = 4096
	defaultModuleDepth  = 2
	defaultConcurrency  = 4
	defaultMaxAttempts  = 3
	defaultInitialDelay = "1s"
	defaultMaxDelay     = "30s"
)

// DefaultInclude and DefaultExclude are the patterns written by `init`.
var (
	DefaultInclude = []string{
		"src/**/*.cpp",
		"src/**/*.h",
		"src/**/*.hpp",
		"include/**/*.h",
		"include/**/*.hpp",
	}
	DefaultExclude = []string{
		"**/test/**",
		"**/tests/**",
		"**/vendor/**",
		"**/third_party/**",
		"**/build/**",
	}
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&SourcesDefaultApplier{},
			&ModulesDefaultApplier{},
			&LLMDefaultApplier{},
			&BuildDefaultApplier{},
			&OutputDefaultApplier{},
			&MonitoringDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// SourcesDefaultApplier fills include/exclude patterns.
type SourcesDefaultApplier struct{}

func (s *SourcesDefaultApplier) Domain() string { return "sources" }

func (s *SourcesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Include == nil {
		cfg.Include = append([]string(nil), DefaultInclude...)
	}
	if cfg.Exclude == nil {
		cfg.Exclude = append([]string(nil), DefaultExclude...)
	}
	return nil
}

// ModulesDefaultApplier handles grouping defaults.
type ModulesDefaultApplier struct{}

func (m *ModulesDefaultApplier) Domain() string { return "modules" }

func (m *ModulesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Modules.Strategy == "" {
		cfg.Modules.Strategy = ModuleStrategyDirectory
	}
	if cfg.Modules.Depth <= 0 {
		cfg.Modules.Depth = defaultModuleDepth
	}
	return nil
}

// LLMDefaultApplier handles summarization backend defaults.
type LLMDefaultApplier struct{}

func (l *LLMDefaultApplier) Domain() string { return "llm" }

func (l *LLMDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderAnthropic
	}
	if cfg.LLM.Model == "" && cfg.LLM.Provider == ProviderAnthropic {
		cfg.LLM.Model = defaultModel
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = cfg.LLM.Provider.DefaultAPIKeyEnv()
	}
	if cfg.LLM.Timeout == "" {
		cfg.LLM.Timeout = defaultLLMTimeout.String()
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = defaultMaxTokens
	}
	if cfg.LLM.Temperature == nil {
		t := defaultTemperature
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.RequestsPerMinute < 0 {
		cfg.LLM.RequestsPerMinute = 0
	}
	return nil
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.MaxConcurrency <= 0 {
		cfg.Build.MaxConcurrency = defaultConcurrency
	}
	if cfg.Build.MaxAttempts <= 0 { // 3 total attempts unless explicitly set >0
		cfg.Build.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Build.RetryBackoff == "" {
		cfg.Build.RetryBackoff = RetryBackoffExponential
	}
	if cfg.Build.RetryInitialDelay == "" {
		cfg.Build.RetryInitialDelay = defaultInitialDelay
	}
	if cfg.Build.RetryMaxDelay == "" {
		cfg.Build.RetryMaxDelay = defaultMaxDelay
	}
	return nil
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.IncludeDiagrams == nil {
		on := true
		cfg.Output.IncludeDiagrams = &on
	}
	if cfg.Output.DetailLevel == "" {
		cfg.Output.DetailLevel = DetailStandard
	}
	return nil
}

// MonitoringDefaultApplier handles Monitoring configuration defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = filepath.Join(DefaultDir, "metrics.prom")
	}
	if cfg.Monitoring.RunLog.Path == "" {
		cfg.Monitoring.RunLog.Path = filepath.Join(DefaultDir, "runs.db")
	}
	return nil
}
