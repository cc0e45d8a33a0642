package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/engine"
	"git.home.luguber.info/inful/codemap/internal/summarize"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "CODEMAP_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Root    string           `short:"C" help:"Repository root" default:"."`
	Config  string           `short:"c" help:"Configuration file path (default: <root>/.codemap/config.yaml)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init   InitCmd   `cmd:"" help:"Initialize a new codemap in the repository"`
	Update UpdateCmd `cmd:"" help:"Update the code map (incrementally by default)"`
	Status StatusCmd `cmd:"" help:"Check whether the code map is up to date"`
	Clean  CleanCmd  `cmd:"" help:"Erase the code map and state, keeping the configuration"`

	stdout     io.Writer
	stdin      io.Reader
	summarizer summarize.Summarizer
	cfg        *config.Config
}

// AfterApply runs after flag parsing; setup logging once.
// A configuration that fails to load is reported later by the command.
func (c *CLI) AfterApply() error {
	logging := config.Default().Monitoring.Logging
	if cfg, err := c.LoadConfig(); err == nil {
		logging = cfg.Monitoring.Logging
	}
	if lvl := config.NormalizeLogLevel(os.Getenv(LogLevelEnv)); lvl != "" {
		logging.Level = lvl
	}
	if c.Verbose {
		logging.Level = config.LogLevelDebug
	}
	slog.SetDefault(logging.NewLogger(os.Stderr))
	return nil
}

// ConfigPath resolves the configuration file against the repository root.
func (c *CLI) ConfigPath() string {
	if c.Config != "" {
		return c.Config
	}
	return filepath.Join(c.Root, config.DefaultDir, config.DefaultFile)
}

// LoadConfig loads the configuration once per invocation.
func (c *CLI) LoadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *CLI) newEngine(g *Global) (*engine.Engine, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}
	return engine.New(engine.Options{
		Root:       c.Root,
		Config:     cfg,
		Summarizer: c.summarizer,
		Logger:     logger,
	}), nil
}

func (c *CLI) out() io.Writer {
	if c.stdout == nil {
		return os.Stdout
	}
	return c.stdout
}

func (c *CLI) in() io.Reader {
	if c.stdin == nil {
		return os.Stdin
	}
	return c.stdin
}
