package engine

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/codemap/internal/build"
	"git.home.luguber.info/inful/codemap/internal/detector"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/metrics"
	"git.home.luguber.info/inful/codemap/internal/planner"
)

// Report summarizes one update run.
type Report struct {
	RunID   string
	DryRun  bool
	Changes *detector.ChangeSet
	Plan    *planner.BuildPlan
	Results build.Results
	// Updated are modules whose document was written.
	Updated []string
	// Removed are modules whose document was deleted.
	Removed []string
	// Failed are planned modules that were not committed.
	Failed []string
	// Skipped are fresh modules that were not planned.
	Skipped []string
	// Unresolved counts cross-references that matched no included file.
	Unresolved int
	Canceled   bool
	Duration   time.Duration
}

// Outcome classifies the run for metrics and the run log.
func (r *Report) Outcome() metrics.RunOutcomeLabel {
	switch {
	case r.Plan == nil || r.Plan.IsEmpty():
		return metrics.RunClean
	case len(r.Failed) == 0:
		return metrics.RunSuccess
	case len(r.Failed) < r.Plan.Len():
		return metrics.RunPartial
	default:
		return metrics.RunFailed
	}
}

// Err is non-nil when any planned module was not committed. Successful
// documents of the same run stay committed.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	if r.Canceled {
		return errors.NewError(errors.CategoryCanceled, "update canceled").
			WithContext("pending", len(r.Failed)).
			Build()
	}
	b := errors.BuildError(fmt.Sprintf("%d of %d modules failed", len(r.Failed), r.Plan.Len())).
		WithContext("modules", strings.Join(r.Failed, ","))
	if first := r.Results[r.Failed[0]]; first != nil && first.Err != nil {
		b = b.WithCause(first.Err)
	}
	return b.Build()
}

// Summary is a one-line human description of the run.
func (r *Report) Summary() string {
	if r.DryRun {
		return fmt.Sprintf("dry run: %d modules planned, %d fresh", r.Plan.Len(), len(r.Skipped))
	}
	return fmt.Sprintf("%d updated, %d removed, %d failed, %d skipped", len(r.Updated), len(r.Removed), len(r.Failed), len(r.Skipped))
}
