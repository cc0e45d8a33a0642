package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig performs canonicalization on enumerated and bounded fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	c.Include = trimStringSlice(c.Include)
	c.Exclude = trimStringSlice(c.Exclude)
	normalizeEnum("modules.strategy", &c.Modules.Strategy, NormalizeModuleStrategy, ModuleStrategyDirectory, res)
	normalizeEnum("llm.provider", &c.LLM.Provider, NormalizeProvider, ProviderAnthropic, res)
	normalizeEnum("build.retry_backoff", &c.Build.RetryBackoff, NormalizeRetryBackoff, RetryBackoffExponential, res)
	normalizeEnum("output.detail_level", &c.Output.DetailLevel, NormalizeDetailLevel, DetailStandard, res)
	normalizeEnum("monitoring.logging.level", &c.Monitoring.Logging.Level, NormalizeLogLevel, LogLevelInfo, res)
	normalizeEnum("monitoring.logging.format", &c.Monitoring.Logging.Format, NormalizeLogFormat, LogFormatText, res)
	if c.Build.MaxConcurrency < 0 {
		c.Build.MaxConcurrency = 0
	}
	if c.Build.MaxAttempts < 0 {
		c.Build.MaxAttempts = 0
	}
	return res, nil
}

func normalizeEnum[T ~string](field string, v *T, norm func(string) T, def T, res *NormalizationResult) {
	raw := string(*v)
	if strings.TrimSpace(raw) == "" {
		*v = ""
		return
	}
	if n := norm(raw); n != "" {
		if *v != n {
			res.Warnings = append(res.Warnings, warnChanged(field, raw, n))
			*v = n
		}
		return
	}
	res.Warnings = append(res.Warnings, warnUnknown(field, raw, string(def)))
	*v = def
}

// trimStringSlice removes empty entries (after trimming whitespace). Order is preserved.
func trimStringSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if tp := strings.TrimSpace(p); tp != "" {
			out = append(out, tp)
		}
	}
	return out
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
