package engine

import (
	"context"
	"maps"
	"os"
	"slices"

	"git.home.luguber.info/inful/codemap/internal/build"
	"git.home.luguber.info/inful/codemap/internal/docs"
	"git.home.luguber.info/inful/codemap/internal/metrics"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/planner"
	"git.home.luguber.info/inful/codemap/internal/runlog"
)

// ModuleStatus is the status line of one module.
type ModuleStatus struct {
	ID     string
	Status modules.Status
	// Cause is set for modules an update would regenerate.
	Cause        planner.Cause
	Verification docs.Verification
}

// StatusReport describes how far the documentation tree is behind the sources.
type StatusReport struct {
	Added    []string
	Modified []string
	Removed  []string
	Modules  []ModuleStatus
	LastRun  *runlog.Run
}

// ChangedFiles lists added, modified and removed files, sorted.
func (s *StatusReport) ChangedFiles() []string {
	out := slices.Concat(s.Added, s.Modified, s.Removed)
	slices.Sort(out)
	return out
}

// UpToDate reports whether every module is fresh and every document verifies.
func (s *StatusReport) UpToDate() bool {
	for _, m := range s.Modules {
		if m.Status != modules.StatusFresh {
			return false
		}
		if m.Verification != docs.VerifyOK && m.Verification != "" {
			return false
		}
	}
	return true
}

// Status computes what an update would do without generating anything.
// It does not take the state lock.
func (e *Engine) Status(ctx context.Context) (*StatusReport, error) {
	prior, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	run := e.newRun()
	if err := e.analyze(run, prior, false, metrics.NoopRecorder{}); err != nil {
		return nil, err
	}
	report := &StatusReport{
		Added:    run.Changes.Added,
		Modified: run.Changes.Modified,
		Removed:  run.Changes.Removed,
		LastRun:  e.LastRun(ctx),
	}
	lastFailed := e.lastFailures(ctx, report.LastRun)

	ids := append(slices.Collect(maps.Keys(run.Graph.Modules)), run.Plan.SortedIDs()...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	for _, id := range ids {
		ms := ModuleStatus{ID: id, Status: modules.StatusFresh}
		if entry, planned := run.Plan.Entries[id]; planned {
			ms.Cause = entry.Cause
			switch {
			case lastFailed[id]:
				ms.Status = modules.StatusFailed
			case prior.Modules[id] == nil:
				ms.Status = modules.StatusPending
			default:
				ms.Status = modules.StatusStale
			}
		}
		if prior.Modules[id] != nil {
			v, err := e.writer.Verify(id)
			if err != nil {
				return nil, err
			}
			ms.Verification = v
		}
		report.Modules = append(report.Modules, ms)
	}
	return report, nil
}

func (e *Engine) lastFailures(ctx context.Context, last *runlog.Run) map[string]bool {
	out := map[string]bool{}
	if last == nil || last.Failed == 0 {
		return out
	}
	s := e.openRunLog()
	if s == nil {
		return out
	}
	defer s.Close()
	results, err := s.Results(ctx, last.ID)
	if err != nil {
		return out
	}
	for _, r := range results {
		if r.Outcome == string(build.OutcomeFailure) {
			out[r.ModuleID] = true
		}
	}
	return out
}

// Clean removes the state, the overview and the module documents. The
// configuration and the run log are kept.
func (e *Engine) Clean() error {
	if err := e.store.Reset(); err != nil {
		return err
	}
	return e.writer.Clean()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
