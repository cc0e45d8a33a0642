package modules

import (
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// RootModule is the id of files that live at the repository root.
const RootModule = "root"

// StrategyKind names a grouping strategy. The set is closed.
type StrategyKind string

const (
	KindDirectory StrategyKind = "directory"
	KindFile      StrategyKind = "file"
)

// Strategy maps a file path to its module id.
type Strategy struct {
	Kind  StrategyKind
	Depth int
}

// ByDirectoryDepth groups files by their first n directory components.
func ByDirectoryDepth(n int) Strategy {
	return Strategy{Kind: KindDirectory, Depth: n}
}

// ByFile makes every file its own module.
func ByFile() Strategy {
	return Strategy{Kind: KindFile}
}

// ParseStrategy maps configuration onto a Strategy.
func ParseStrategy(name config.ModuleStrategy, depth int) (Strategy, error) {
	switch name {
	case config.ModuleStrategyDirectory, "":
		s := ByDirectoryDepth(depth)
		return s, s.Validate()
	case config.ModuleStrategyFile:
		return ByFile(), nil
	default:
		return Strategy{}, errors.ValidationError(fmt.Sprintf("unknown module strategy %q", name)).Build()
	}
}

// Validate rejects strategies that cannot produce module ids.
func (s Strategy) Validate() error {
	switch s.Kind {
	case KindFile:
		return nil
	case KindDirectory:
		if s.Depth < 1 {
			return errors.ValidationError(fmt.Sprintf("directory depth must be >= 1, got %d", s.Depth)).Build()
		}
		return nil
	default:
		return errors.ValidationError(fmt.Sprintf("unknown module strategy %q", s.Kind)).Build()
	}
}

// ModuleID returns the module a repo-relative slash path belongs to.
func (s Strategy) ModuleID(file string) string {
	if s.Kind == KindFile {
		return file
	}
	dir := path.Dir(file)
	if dir == "." {
		return RootModule
	}
	parts := strings.Split(dir, "/")
	if len(parts) > s.Depth {
		parts = parts[:s.Depth]
	}
	return strings.Join(parts, "/")
}

func (s Strategy) String() string {
	if s.Kind == KindFile {
		return string(KindFile)
	}
	return fmt.Sprintf("%s(%d)", KindDirectory, s.Depth)
}
