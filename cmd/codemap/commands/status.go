package commands

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/codemap/internal/docs"
)

// ErrOutOfDate is returned by status when an update would change anything.
var ErrOutOfDate = stderrors.New("code map is out of date")

const maxListedFiles = 10

// StatusCmd implements the 'status' command.
type StatusCmd struct{}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	return RunStatus(context.Background(), g, root)
}

func RunStatus(ctx context.Context, g *Global, root *CLI) error {
	e, err := root.newEngine(g)
	if err != nil {
		return err
	}
	report, err := e.Status(ctx)
	if err != nil {
		return err
	}
	w := root.out()

	if last := report.LastRun; last != nil {
		_, _ = fmt.Fprintf(w, "Last run: %s (%s)\n", last.StartedAt.Format("2006-01-02 15:04:05"), last.Outcome)
	}
	if report.UpToDate() {
		_, _ = fmt.Fprintln(w, "Code map is up to date")
		return nil
	}

	if changed := report.ChangedFiles(); len(changed) > 0 {
		_, _ = fmt.Fprintf(w, "%d file(s) have changed since last update:\n", len(changed))
		for _, f := range changed[:min(len(changed), maxListedFiles)] {
			_, _ = fmt.Fprintf(w, "  - %s\n", f)
		}
		if len(changed) > maxListedFiles {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(changed)-maxListedFiles)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, "Modules:")
	for _, m := range report.Modules {
		line := fmt.Sprintf("  %-8s %s", m.Status, m.ID)
		if m.Cause != "" {
			line += fmt.Sprintf(" (%s)", m.Cause)
		}
		if m.Verification != "" && m.Verification != docs.VerifyOK {
			line += fmt.Sprintf(" [document %s]", m.Verification)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Run 'codemap update' to regenerate.")
	return ErrOutOfDate
}
