package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/codemap/internal/engine"
)

// UpdateCmd implements the 'update' command.
type UpdateCmd struct {
	Full       bool `help:"Force a full rebuild, ignoring the cache"`
	DryRun     bool `name:"dry-run" help:"Show what would be updated without doing it"`
	BreakLock  bool `name:"break-lock" help:"Remove a stale in-progress marker left by an interrupted run"`
	ResetState bool `name:"reset-state" help:"Discard the persisted state before running"`
}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunUpdate(ctx, g, root, engine.UpdateOptions{
		Full:       u.Full,
		DryRun:     u.DryRun,
		BreakLock:  u.BreakLock,
		ResetState: u.ResetState,
	})
}

func RunUpdate(ctx context.Context, g *Global, root *CLI, opts engine.UpdateOptions) error {
	e, err := root.newEngine(g)
	if err != nil {
		return err
	}
	w := root.out()
	if opts.Full {
		_, _ = fmt.Fprintln(w, "Mode: full rebuild")
	}
	report, err := e.Update(ctx, opts)
	if err != nil {
		return err
	}
	switch {
	case report.DryRun:
		printPlan(w, report)
	case report.Plan.IsEmpty():
		_, _ = fmt.Fprintln(w, "Code map is up to date")
	default:
		printResults(w, report)
	}
	return report.Err()
}

func printPlan(w io.Writer, r *engine.Report) {
	if r.Plan.IsEmpty() {
		_, _ = fmt.Fprintln(w, "Code map is up to date")
		return
	}
	_, _ = fmt.Fprintln(w, "Would update the following modules:")
	for _, id := range r.Plan.SortedIDs() {
		entry := r.Plan.Entries[id]
		if entry.Vanished {
			_, _ = fmt.Fprintf(w, "  - %s (removed)\n", id)
			continue
		}
		_, _ = fmt.Fprintf(w, "  - %s (%s)\n", id, entry.Cause)
	}
	_, _ = fmt.Fprintln(w, r.Summary())
}

func printResults(w io.Writer, r *engine.Report) {
	for _, id := range r.Updated {
		_, _ = fmt.Fprintf(w, "  → %s\n", id)
	}
	for _, id := range r.Removed {
		_, _ = fmt.Fprintf(w, "  ✗ %s (removed)\n", id)
	}
	for _, id := range r.Failed {
		if res := r.Results[id]; res != nil && res.Err != nil {
			_, _ = fmt.Fprintf(w, "  ! %s: %v\n", id, res.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "  ! %s\n", id)
	}
	_, _ = fmt.Fprintln(w, r.Summary())
}
