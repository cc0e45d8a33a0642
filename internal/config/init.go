package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigYAML = `# codemap configuration

# Summarization backend
llm:
  provider: anthropic  # Options: anthropic, openai, ollama
  model: claude-sonnet-4-20250514
  # API key read from the environment (ANTHROPIC_API_KEY, OPENAI_API_KEY),
  # or from the variable named by api_key_env. .env files are honored.
  # api_base: http://localhost:11434
  timeout: 2m
  requests_per_minute: 0  # 0 disables client-side throttling

# What files to analyze
include:
  - "src/**/*.cpp"
  - "src/**/*.h"
  - "src/**/*.hpp"
  - "include/**/*.h"
  - "include/**/*.hpp"

# What to exclude
exclude:
  - "**/test/**"
  - "**/tests/**"
  - "**/vendor/**"
  - "**/third_party/**"
  - "**/build/**"

# Module detection strategy
modules:
  strategy: directory  # Options: directory, file
  depth: 2             # src/parser/ is one module, src/codegen/ is another

# Module generation
build:
  max_concurrency: 4
  max_attempts: 3
  retry_backoff: exponential  # fixed, linear, exponential
  retry_initial_delay: 1s
  retry_max_delay: 30s

# Output customization
output:
  include_diagrams: true   # mermaid diagram in overview.md
  detail_level: standard   # brief, standard, detailed

monitoring:
  logging:
    level: info
    format: text
  metrics:
    enabled: false
  run_log:
    enabled: true
`

// Init writes the commented default configuration file, creating parent directories.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
