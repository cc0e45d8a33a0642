package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/docs"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root, i.Force)
}

func RunInit(root *CLI, force bool) error {
	w := root.out()
	cfgPath := root.ConfigPath()
	modulesDir := filepath.Join(root.Root, config.DefaultDir, docs.ModulesDir)

	if err := config.Init(cfgPath, force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		return fmt.Errorf("create modules directory: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Created %s\n", cfgPath)
	_, _ = fmt.Fprintf(w, "Created %s%c\n", modulesDir, filepath.Separator)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintf(w, "  1. Edit %s to configure your project\n", cfgPath)
	_, _ = fmt.Fprintln(w, "  2. Run 'codemap update' to generate the code map")
	return nil
}
