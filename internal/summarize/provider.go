package summarize

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/logfields"
)

const (
	providerAnthropic = config.ProviderAnthropic
	providerOpenAI    = config.ProviderOpenAI
	providerOllama    = config.ProviderOllama
)

func missingKey(provider string) error {
	return errors.NewError(errors.CategoryAuth, fmt.Sprintf("%s: API key is required", provider)).
		Fatal().
		UserAction().
		WithContext("provider", provider).
		Build()
}

// New builds the configured provider adapter, throttled when
// requests_per_minute is set. The provider set is closed.
func New(cfg config.LLMConfig, output config.OutputConfig) (Summarizer, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = cfg.Provider.DefaultAPIKeyEnv()
	}
	opts := Options{
		BaseURL:     cfg.APIBase,
		Model:       cfg.Model,
		Timeout:     cfg.TimeoutDuration(),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.TemperatureValue(),
		DetailLevel: output.DetailLevel,
	}
	if keyEnv != "" {
		opts.APIKey = os.Getenv(keyEnv)
	}

	var (
		s   Summarizer
		err error
	)
	switch cfg.Provider {
	case providerAnthropic:
		s, err = NewAnthropic(opts)
	case providerOpenAI:
		s, err = NewOpenAI(opts)
	case providerOllama:
		s = NewOllama(opts)
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported llm provider %q", cfg.Provider)).Build()
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("Summarizer configured", logfields.Provider(string(cfg.Provider)), slog.String("model", cfg.Model))
	if cfg.RequestsPerMinute > 0 {
		s = NewRateLimited(s, cfg.RequestsPerMinute)
	}
	return s, nil
}
