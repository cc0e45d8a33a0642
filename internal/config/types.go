package config

import "git.home.luguber.info/inful/codemap/internal/foundation/normalization"

// ModuleStrategy enumerates supported grouping strategies.
type ModuleStrategy string

const (
	ModuleStrategyDirectory ModuleStrategy = "directory"
	ModuleStrategyFile      ModuleStrategy = "file"
)

var moduleStrategyNormalizer = normalization.NewNormalizer(map[string]ModuleStrategy{
	"directory": ModuleStrategyDirectory,
	"dir":       ModuleStrategyDirectory,
	"file":      ModuleStrategyFile,
}, ModuleStrategyDirectory)

// NormalizeModuleStrategy canonicalizes user input returning empty string if unknown.
func NormalizeModuleStrategy(raw string) ModuleStrategy {
	v, err := moduleStrategyNormalizer.NormalizeWithError(raw)
	if err != nil {
		return ""
	}
	return v
}

// LLMProvider enumerates supported summarization backends.
type LLMProvider string

const (
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderOllama    LLMProvider = "ollama"
)

var providerNormalizer = normalization.NewNormalizer(map[string]LLMProvider{
	"anthropic": ProviderAnthropic,
	"claude":    ProviderAnthropic,
	"openai":    ProviderOpenAI,
	"ollama":    ProviderOllama,
}, ProviderAnthropic)

// NormalizeProvider canonicalizes user input returning empty string if unknown.
func NormalizeProvider(raw string) LLMProvider {
	v, err := providerNormalizer.NormalizeWithError(raw)
	if err != nil {
		return ""
	}
	return v
}

// DefaultAPIKeyEnv returns the environment variable holding the provider's key.
func (p LLMProvider) DefaultAPIKeyEnv() string {
	switch p {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// DetailLevel controls how much the summarizer is asked to write.
type DetailLevel string

const (
	DetailBrief    DetailLevel = "brief"
	DetailStandard DetailLevel = "standard"
	DetailDetailed DetailLevel = "detailed"
)

var detailNormalizer = normalization.NewNormalizer(map[string]DetailLevel{
	"brief":    DetailBrief,
	"standard": DetailStandard,
	"detailed": DetailDetailed,
}, DetailStandard)

// NormalizeDetailLevel canonicalizes user input returning empty string if unknown.
func NormalizeDetailLevel(raw string) DetailLevel {
	v, err := detailNormalizer.NormalizeWithError(raw)
	if err != nil {
		return ""
	}
	return v
}
