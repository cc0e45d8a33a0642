package config

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// ValidateConfig validates a normalized and defaulted configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, step := range []func() error{
		cv.validateSources,
		cv.validateModules,
		cv.validateLLM,
		cv.validateBuild,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSources() error {
	if len(cv.config.Include) == 0 {
		return invalid("include", "at least one include pattern is required")
	}
	return nil
}

func (cv *configurationValidator) validateModules() error {
	if cv.config.Modules.Strategy == ModuleStrategyDirectory && cv.config.Modules.Depth < 1 {
		return invalid("modules.depth", "depth must be >= 1 for the directory strategy")
	}
	return nil
}

func (cv *configurationValidator) validateLLM() error {
	llm := cv.config.LLM
	if llm.Model == "" {
		return invalid("llm.model", fmt.Sprintf("a model is required for provider %s", llm.Provider))
	}
	if llm.Temperature != nil && (*llm.Temperature < 0 || *llm.Temperature > 2) {
		return invalid("llm.temperature", "temperature must be within [0, 2]")
	}
	if llm.Timeout != "" {
		if _, err := time.ParseDuration(llm.Timeout); err != nil {
			return invalid("llm.timeout", fmt.Sprintf("invalid duration %q", llm.Timeout))
		}
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	b := cv.config.Build
	initial, err := time.ParseDuration(b.RetryInitialDelay)
	if err != nil {
		return invalid("build.retry_initial_delay", fmt.Sprintf("invalid duration %q", b.RetryInitialDelay))
	}
	maxDelay, err := time.ParseDuration(b.RetryMaxDelay)
	if err != nil {
		return invalid("build.retry_max_delay", fmt.Sprintf("invalid duration %q", b.RetryMaxDelay))
	}
	if maxDelay < initial {
		return invalid("build.retry_max_delay", "retry_max_delay must be >= retry_initial_delay")
	}
	return nil
}

// RetryDelays returns the parsed initial and max backoff delays.
func (b BuildConfig) RetryDelays() (time.Duration, time.Duration) {
	return parseDurationOr(b.RetryInitialDelay, time.Second), parseDurationOr(b.RetryMaxDelay, 30*time.Second)
}

func invalid(field, message string) error {
	return errors.ConfigError(message).WithContext("field", field).Build()
}
