package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/docs"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Yes bool `short:"y" help:"Skip confirmation prompt"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	return RunClean(g, root, c.Yes)
}

func RunClean(g *Global, root *CLI, yes bool) error {
	w := root.out()
	dir := filepath.Join(root.Root, config.DefaultDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		_, _ = fmt.Fprintln(w, "No codemap found. Nothing to clean.")
		return nil
	}
	e, err := root.newEngine(g)
	if err != nil {
		return err
	}

	var items []string
	for _, p := range []string{e.Store().Path(), e.Writer().OverviewPath()} {
		if _, err := os.Stat(p); err == nil {
			items = append(items, p)
		}
	}
	docsFound, err := filepath.Glob(filepath.Join(dir, docs.ModulesDir, "*.md"))
	if err != nil {
		return fmt.Errorf("list module documents: %w", err)
	}
	items = append(items, docsFound...)
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to clean (config preserved)")
		return nil
	}

	if !yes {
		_, _ = fmt.Fprintln(w, "Will remove:")
		for _, p := range items {
			_, _ = fmt.Fprintf(w, "  - %s\n", p)
		}
		_, _ = fmt.Fprint(w, "Proceed? [y/N]: ")
		answer, _ := bufio.NewReader(root.in()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			_, _ = fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	if err := e.Clean(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Cleaned %d item(s) (config preserved)\n", len(items))
	return nil
}
