package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultDir, DefaultFile))
	require.NoError(t, err)

	assert.Equal(t, DefaultInclude, cfg.Include)
	assert.Equal(t, DefaultExclude, cfg.Exclude)
	assert.Equal(t, ModuleStrategyDirectory, cfg.Modules.Strategy)
	assert.Equal(t, 2, cfg.Modules.Depth)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.LLM.APIKeyEnv)
	assert.InDelta(t, 0.3, cfg.LLM.TemperatureValue(), 1e-9)
	assert.Equal(t, 4, cfg.Build.MaxConcurrency)
	assert.Equal(t, 3, cfg.Build.MaxAttempts)
	assert.Equal(t, RetryBackoffExponential, cfg.Build.RetryBackoff)
	assert.True(t, cfg.Output.DiagramsEnabled())
	assert.True(t, cfg.Monitoring.RunLog.IsEnabled())
	assert.False(t, cfg.Monitoring.Metrics.Enabled)
}

func TestParse_OverridesAndNormalization(t *testing.T) {
	t.Setenv("CODEMAP_TEST_MODEL", "gpt-4o-mini")
	data := []byte(`
include: ["lib/**/*.go", "  "]
modules:
  strategy: FILE
llm:
  provider: OpenAI
  model: ${CODEMAP_TEST_MODEL}
  temperature: 0
build:
  max_concurrency: 8
  retry_backoff: Linear
  retry_initial_delay: 200ms
  retry_max_delay: 2s
output:
  include_diagrams: false
  detail_level: nonsense
monitoring:
  run_log:
    enabled: false
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/**/*.go"}, cfg.Include)
	assert.Equal(t, ModuleStrategyFile, cfg.Modules.Strategy)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Zero(t, cfg.LLM.TemperatureValue())
	assert.Equal(t, 8, cfg.Build.MaxConcurrency)
	assert.Equal(t, RetryBackoffLinear, cfg.Build.RetryBackoff)
	initial, maxDelay := cfg.Build.RetryDelays()
	assert.Equal(t, 200*time.Millisecond, initial)
	assert.Equal(t, 2*time.Second, maxDelay)
	assert.False(t, cfg.Output.DiagramsEnabled())
	assert.Equal(t, DetailStandard, cfg.Output.DetailLevel)
	assert.False(t, cfg.Monitoring.RunLog.IsEnabled())
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"empty include", "include: []\n", "include"},
		{"ollama without model", "llm:\n  provider: ollama\n", "llm.model"},
		{"bad temperature", "llm:\n  temperature: 3\n", "llm.temperature"},
		{"bad delay", "build:\n  retry_initial_delay: soon\n", "build.retry_initial_delay"},
		{"max below initial", "build:\n  retry_initial_delay: 10s\n  retry_max_delay: 1s\n", "build.retry_max_delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryConfig, ce.Category())
			field, _ := ce.Context().GetString("field")
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("include: [unterminated"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNormalizeConfig_Warnings(t *testing.T) {
	cfg := &Config{
		Modules: ModulesConfig{Strategy: "Directory"},
		Build:   BuildConfig{RetryBackoff: "sometimes", MaxConcurrency: -2},
	}
	res, err := NormalizeConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, ModuleStrategyDirectory, cfg.Modules.Strategy)
	assert.Equal(t, RetryBackoffExponential, cfg.Build.RetryBackoff)
	assert.Zero(t, cfg.Build.MaxConcurrency)
	assert.Len(t, res.Warnings, 2)

	_, err = NormalizeConfig(nil)
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultDir, DefaultFile)

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "existing file requires force")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultInclude, cfg.Include)
	assert.Equal(t, 2*time.Minute, cfg.LLM.TimeoutDuration())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.ErrorIs(t, LoadEnv(dir), errNoEnvFile)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CODEMAP_ENV_A=from-file\nCODEMAP_ENV_B=from-file\n"), 0o600))
	t.Setenv("CODEMAP_ENV_B", "from-process")
	t.Setenv("CODEMAP_ENV_A", "")
	require.NoError(t, os.Unsetenv("CODEMAP_ENV_A"))

	require.NoError(t, LoadEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("CODEMAP_ENV_A"))
	assert.Equal(t, "from-process", os.Getenv("CODEMAP_ENV_B"))
}

func TestLogLevelMapping(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("WARNING"))
	assert.Empty(t, NormalizeLogLevel("loud"))
	assert.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
}
