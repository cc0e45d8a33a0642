package build

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/codemap/internal/extract"
	"git.home.luguber.info/inful/codemap/internal/logfields"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/summarize"
)

// Assembler builds the summarizer input of a module from its member files.
type Assembler struct {
	Root string
	// Facts are precomputed facts keyed by path; absent keys are extracted on
	// demand and nil values mark files whose extraction already failed.
	Facts    map[string]*extract.Facts
	Registry *extract.Registry
	// IncludeSources attaches file contents to the input.
	IncludeSources bool
	logger         *slog.Logger
}

// NewAssembler creates an assembler reading files below root.
func NewAssembler(root string, facts map[string]*extract.Facts) *Assembler {
	return &Assembler{Root: root, Facts: facts, Registry: extract.NewRegistry(), logger: slog.Default()}
}

// WithLogger sets a custom logger.
func (a *Assembler) WithLogger(logger *slog.Logger) *Assembler {
	a.logger = logger
	return a
}

// Assemble never fails: files whose facts are unavailable are logged and
// left out of the structural summary.
func (a *Assembler) Assemble(m *modules.Module) summarize.ModuleInput {
	in := summarize.ModuleInput{
		ModuleID:      m.ID,
		Members:       m.Members,
		DependencyIDs: m.Dependencies,
		DependentIDs:  m.Dependents,
	}
	if a == nil {
		return in
	}
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, p := range m.Members {
		// A present key with nil facts means extraction already failed.
		facts, known := a.Facts[p]
		needFacts := !known && a.Registry != nil && a.Registry.Supports(p)
		var src []byte
		if needFacts || a.IncludeSources {
			data, err := os.ReadFile(filepath.Join(a.Root, filepath.FromSlash(p)))
			if err != nil {
				logger.Warn("Member file unreadable, continuing without it",
					logfields.Module(m.ID), logfields.Path(p), logfields.Error(err))
				continue
			}
			src = data
		}
		if needFacts {
			f, err := a.Registry.Extract(p, src)
			if err != nil {
				logger.Warn("Structural facts unavailable",
					logfields.Module(m.ID), logfields.Path(p), logfields.Error(err))
			}
			facts = f
		}
		if facts != nil {
			in.Facts = append(in.Facts, facts)
		}
		if a.IncludeSources {
			if in.Sources == nil {
				in.Sources = make(map[string][]byte)
			}
			in.Sources[p] = src
		}
	}
	return in
}
