// Package engine runs the incremental build: it detects changed files,
// groups them into modules, plans the invalidated set, generates summaries
// and commits documents and state.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/detector"
	"git.home.luguber.info/inful/codemap/internal/discovery"
	"git.home.luguber.info/inful/codemap/internal/docs"
	"git.home.luguber.info/inful/codemap/internal/extract"
	"git.home.luguber.info/inful/codemap/internal/logfields"
	"git.home.luguber.info/inful/codemap/internal/metrics"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/planner"
	"git.home.luguber.info/inful/codemap/internal/runlog"
	"git.home.luguber.info/inful/codemap/internal/state"
	"git.home.luguber.info/inful/codemap/internal/summarize"
)

// Options configures an Engine.
type Options struct {
	// Root is the repository root.
	Root   string
	Config *config.Config
	// Summarizer overrides the provider built from Config.LLM.
	Summarizer summarize.Summarizer
	Logger     *slog.Logger
	// Now overrides the clock.
	Now func() time.Time
}

// Engine owns the collaborators of a repository's documentation tree.
type Engine struct {
	root       string
	dir        string
	cfg        *config.Config
	store      *state.JSONStore
	writer     *docs.Writer
	registry   *extract.Registry
	summarizer summarize.Summarizer
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an engine for opts.Root. A nil config means defaults.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dir := filepath.Join(opts.Root, config.DefaultDir)
	return &Engine{
		root:       opts.Root,
		dir:        dir,
		cfg:        cfg,
		store:      state.NewJSONStore(dir),
		writer:     docs.NewWriter(dir, cfg.Output.DiagramsEnabled()).WithLogger(logger).WithClock(now),
		registry:   extract.NewRegistry(),
		summarizer: opts.Summarizer,
		logger:     logger,
		now:        now,
	}
}

// Store returns the state store.
func (e *Engine) Store() *state.JSONStore { return e.store }

// Writer returns the document writer.
func (e *Engine) Writer() *docs.Writer { return e.writer }

// RunContext carries the per-run data handed from stage to stage.
type RunContext struct {
	ID        string
	StartedAt time.Time
	Prior     *state.PersistentState
	Files     []string
	Changes   *detector.ChangeSet
	Facts     map[string]*extract.Facts
	Graph     *modules.Graph
	Plan      *planner.BuildPlan
	Logger    *slog.Logger
}

func (e *Engine) newRun() *RunContext {
	id := uuid.NewString()
	return &RunContext{
		ID:        id,
		StartedAt: e.now(),
		Logger:    e.logger.With(logfields.RunID(id)),
	}
}

// analyze runs discovery, detection, extraction, grouping and planning
// against prior.
func (e *Engine) analyze(run *RunContext, prior *state.PersistentState, full bool, rec metrics.Recorder) error {
	run.Prior = prior

	start := time.Now()
	files, err := discovery.New(e.root, e.cfg.Include, e.cfg.Exclude).WithLogger(run.Logger).Discover()
	if err != nil {
		return err
	}
	run.Files = files
	rec.ObserveStageDuration("discover", time.Since(start))

	start = time.Now()
	run.Changes, err = detector.New(e.root, detector.Options{Full: full}).WithLogger(run.Logger).Detect(files, prior)
	if err != nil {
		return err
	}
	rec.ObserveStageDuration("detect", time.Since(start))

	start = time.Now()
	run.Facts = e.extractAll(run)
	strategy, err := modules.ParseStrategy(e.cfg.Modules.Strategy, e.cfg.Modules.Depth)
	if err != nil {
		return err
	}
	run.Graph, err = modules.Group(files, strategy, run.Facts)
	if err != nil {
		return err
	}
	rec.ObserveStageDuration("group", time.Since(start))

	start = time.Now()
	run.Plan = planner.Plan(planner.Input{
		Changes:      run.Changes,
		Graph:        run.Graph,
		Prior:        prior,
		Force:        full,
		OutputExists: e.writer.Exists,
	})
	rec.ObserveStageDuration("plan", time.Since(start))
	run.Logger.Info("Plan computed",
		logfields.Count(run.Plan.Len()),
		slog.Int("fresh", len(run.Plan.Fresh)),
		slog.Int("modules", len(run.Graph.Modules)),
		slog.Int("unresolved_refs", run.Graph.Unresolved))
	return nil
}

// extractAll extracts facts for every supported file. Failures are logged
// once and recorded as nil facts so later stages do not retry them.
func (e *Engine) extractAll(run *RunContext) map[string]*extract.Facts {
	facts := make(map[string]*extract.Facts, len(run.Files))
	for _, p := range run.Files {
		if !e.registry.Supports(p) {
			continue
		}
		src, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(p)))
		if err != nil {
			run.Logger.Warn("Skipping extraction of unreadable file", logfields.Path(p), logfields.Error(err))
			facts[p] = nil
			continue
		}
		f, err := e.registry.Extract(p, src)
		if err != nil {
			run.Logger.Warn("Structural extraction degraded", logfields.Path(p), logfields.Error(err))
			facts[p] = nil
			continue
		}
		facts[p] = f
	}
	return facts
}

func (e *Engine) summarizerFor() (summarize.Summarizer, error) {
	if e.summarizer != nil {
		return e.summarizer, nil
	}
	return summarize.New(e.cfg.LLM, e.cfg.Output)
}

// recorder returns the Prometheus recorder when metrics are enabled.
func (e *Engine) recorder() (metrics.Recorder, *metrics.PrometheusRecorder) {
	if !e.cfg.Monitoring.Metrics.Enabled {
		return metrics.NoopRecorder{}, nil
	}
	p := metrics.NewPrometheusRecorder(prom.NewRegistry())
	return p, p
}

func (e *Engine) openRunLog() *runlog.Store {
	if !e.cfg.Monitoring.RunLog.IsEnabled() {
		return nil
	}
	s, err := runlog.Open(e.resolve(e.cfg.Monitoring.RunLog.Path))
	if err != nil {
		e.logger.Warn("Run log unavailable", logfields.Error(err))
		return nil
	}
	return s
}

// resolve makes configured paths relative to the repository root.
func (e *Engine) resolve(p string) string {
	if p == runlog.InMemory || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

// LastRun returns the newest recorded run, or nil when none is recorded.
func (e *Engine) LastRun(ctx context.Context) *runlog.Run {
	path := e.resolve(e.cfg.Monitoring.RunLog.Path)
	if _, err := os.Stat(path); err != nil && path != runlog.InMemory {
		return nil
	}
	s := e.openRunLog()
	if s == nil {
		return nil
	}
	defer s.Close()
	runs, err := s.Runs(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil
	}
	return &runs[0]
}
