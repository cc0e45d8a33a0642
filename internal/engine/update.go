package engine

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/codemap/internal/build"
	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/logfields"
	"git.home.luguber.info/inful/codemap/internal/metrics"
	"git.home.luguber.info/inful/codemap/internal/retry"
	"git.home.luguber.info/inful/codemap/internal/runlog"
	"git.home.luguber.info/inful/codemap/internal/state"
	"git.home.luguber.info/inful/codemap/internal/summarize"
)

// UpdateOptions are the flags of one update.
type UpdateOptions struct {
	// Full regenerates every module.
	Full bool
	// DryRun stops after planning.
	DryRun bool
	// BreakLock removes a stale in-progress marker first.
	BreakLock bool
	// ResetState discards the persisted state before running.
	ResetState bool
}

// Update brings the documentation tree up to date. The error is non-nil
// only for run-fatal conditions; module failures are reported through
// Report.Err.
func (e *Engine) Update(ctx context.Context, opts UpdateOptions) (*Report, error) {
	run := e.newRun()
	rec, prom := e.recorder()

	if opts.DryRun {
		prior, err := e.loadPrior(opts.ResetState)
		if err != nil {
			return nil, err
		}
		if err := e.analyze(run, prior, opts.Full, rec); err != nil {
			return nil, err
		}
		return e.report(run, true), nil
	}

	if opts.BreakLock {
		if err := e.store.BreakLock(); err != nil {
			return nil, err
		}
		run.Logger.Warn("Removed in-progress marker", logfields.Path(e.store.Path()))
	}
	lock, err := e.store.Lock(run.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			run.Logger.Error("Failed to release state lock", logfields.Error(err))
		}
	}()

	if opts.ResetState {
		if err := e.store.Reset(); err != nil {
			return nil, err
		}
	}
	prior, err := e.loadPrior(opts.ResetState)
	if err != nil {
		return nil, err
	}
	if err := e.analyze(run, prior, opts.Full, rec); err != nil {
		return nil, err
	}
	for _, id := range run.Plan.SortedIDs() {
		rec.IncPlanned(string(run.Plan.Entries[id].Cause))
	}

	report := e.report(run, false)
	if run.Plan.IsEmpty() {
		if !fileExists(e.writer.OverviewPath()) && len(prior.Modules) > 0 {
			if err := e.writer.RefreshOverview(prior); err != nil {
				return nil, err
			}
		}
		run.Logger.Info("Documentation is up to date")
		e.finish(run, report, rec, prom, nil, nil)
		return report, nil
	}

	s, err := e.summarizerFor()
	if err != nil {
		return nil, err
	}
	log := e.openRunLog()
	if log != nil {
		defer log.Close()
		if err := log.BeginRun(ctx, run.ID, run.StartedAt); err != nil {
			run.Logger.Warn("Failed to record run start", logfields.Error(err))
		}
	}

	start := time.Now()
	inputs := build.NewAssembler(e.root, run.Facts).WithLogger(run.Logger)
	inputs.Registry = e.registry
	inputs.IncludeSources = e.cfg.Output.DetailLevel == config.DetailDetailed
	results := build.NewOrchestrator().WithRecorder(rec).WithLogger(run.Logger).Run(ctx, run.Plan, run.Graph, s, build.Options{
		MaxConcurrency: e.cfg.Build.MaxConcurrency,
		Policy:         retry.FromConfig(e.cfg.Build).WithRetryable(summarize.Classify),
		Inputs:         inputs,
	})
	rec.ObserveStageDuration("generate", time.Since(start))
	report.Results = results

	start = time.Now()
	commit, err := e.writer.Commit(results, run.Graph, prior, run.Changes)
	if err != nil {
		e.finish(run, report, rec, prom, log, err)
		return nil, err
	}
	if err := e.store.Save(commit.State); err != nil {
		e.finish(run, report, rec, prom, log, err)
		return nil, err
	}
	rec.ObserveStageDuration("commit", time.Since(start))

	report.Updated = commit.Written
	report.Removed = commit.Removed
	report.Failed = commit.Skipped
	report.Canceled = ctx.Err() != nil
	e.finish(run, report, rec, prom, log, nil)
	return report, nil
}

func (e *Engine) loadPrior(reset bool) (*state.PersistentState, error) {
	if reset {
		return state.New(), nil
	}
	return e.store.Load()
}

func (e *Engine) report(run *RunContext, dryRun bool) *Report {
	return &Report{
		RunID:      run.ID,
		DryRun:     dryRun,
		Changes:    run.Changes,
		Plan:       run.Plan,
		Skipped:    run.Plan.Fresh,
		Unresolved: run.Graph.Unresolved,
	}
}

// finish records the run outcome in the run log and the metrics textfile.
func (e *Engine) finish(run *RunContext, report *Report, rec metrics.Recorder, prom *metrics.PrometheusRecorder, log *runlog.Store, runErr error) {
	report.Duration = e.now().Sub(run.StartedAt)
	outcome := report.Outcome()
	if runErr != nil {
		outcome = metrics.RunFailed
	}
	rec.ObserveRunDuration(report.Duration)
	rec.IncRunOutcome(outcome)

	if log != nil {
		ctx := context.Background()
		if err := log.RecordResults(ctx, moduleResults(run, report)); err != nil {
			run.Logger.Warn("Failed to record module results", logfields.Error(err))
		}
		entry := runlog.Run{
			ID:         run.ID,
			FinishedAt: e.now(),
			Outcome:    string(outcome),
			Planned:    run.Plan.Len(),
			Updated:    len(report.Updated),
			Failed:     len(report.Failed),
			Skipped:    len(report.Skipped),
		}
		if runErr != nil {
			entry.Error = runErr.Error()
		}
		if err := log.FinishRun(ctx, entry); err != nil {
			run.Logger.Warn("Failed to record run outcome", logfields.Error(err))
		}
	}

	if prom != nil {
		path := e.resolve(e.cfg.Monitoring.Metrics.Path)
		if err := prom.WriteTextfile(path); err != nil {
			run.Logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}

	run.Logger.Info("Update finished",
		logfields.Outcome(string(outcome)),
		slog.Int("updated", len(report.Updated)),
		slog.Int("failed", len(report.Failed)),
		logfields.DurationMS(run.StartedAt))
}

func moduleResults(run *RunContext, report *Report) []runlog.ModuleResult {
	out := make([]runlog.ModuleResult, 0, len(report.Results))
	for _, id := range report.Results.SortedIDs() {
		r := report.Results[id]
		mr := runlog.ModuleResult{
			RunID:    run.ID,
			ModuleID: id,
			Cause:    string(run.Plan.Entries[id].Cause),
			Outcome:  string(r.Outcome),
			Attempts: r.Attempts,
			Duration: r.Duration,
			Removed:  r.Removed,
		}
		if r.Err != nil {
			mr.Error = r.Err.Error()
			if ce, ok := errors.AsClassified(r.Err); ok && len(ce.Context()) > 0 {
				mr.Context = map[string]any(ce.Context())
			}
		}
		out = append(out, mr)
	}
	return out
}
