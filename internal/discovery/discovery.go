// Package discovery enumerates the included source files of a repository.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"git.home.luguber.info/inful/codemap/internal/logfields"
)

// Directories never descended into.
var skipDirs = map[string]struct{}{
	".git":     {},
	".codemap": {},
	".hg":      {},
	".svn":     {},
}

// Matcher applies include and exclude globs using gitignore semantics,
// so `**` spans any number of directories.
type Matcher struct {
	include []gitignore.Pattern
	exclude []gitignore.Pattern
}

// NewMatcher compiles include and exclude patterns.
func NewMatcher(include, exclude []string) *Matcher {
	m := &Matcher{}
	for _, p := range include {
		m.include = append(m.include, gitignore.ParsePattern(p, nil))
	}
	for _, p := range exclude {
		m.exclude = append(m.exclude, gitignore.ParsePattern(p, nil))
	}
	return m
}

// Included reports whether the repo-relative slash path is selected.
func (m *Matcher) Included(rel string) bool {
	parts := strings.Split(rel, "/")
	if m.Excluded(parts, false) {
		return false
	}
	for _, p := range m.include {
		if p.Match(parts, false) == gitignore.Exclude {
			return true
		}
	}
	return false
}

// Excluded reports whether any exclude pattern matches the path components.
func (m *Matcher) Excluded(parts []string, isDir bool) bool {
	for _, p := range m.exclude {
		if p.Match(parts, isDir) == gitignore.Exclude {
			return true
		}
	}
	return false
}

// Discovery walks a repository root.
type Discovery struct {
	root    string
	matcher *Matcher
	logger  *slog.Logger
}

// New creates a discovery for root with the given patterns.
func New(root string, include, exclude []string) *Discovery {
	return &Discovery{root: root, matcher: NewMatcher(include, exclude), logger: slog.Default()}
}

// WithLogger sets the logger used for debug output.
func (d *Discovery) WithLogger(l *slog.Logger) *Discovery {
	d.logger = l
	return d
}

// Discover returns the included files as sorted repo-relative slash paths.
// Excluded directories are pruned.
func (d *Discovery) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if _, skip := skipDirs[entry.Name()]; skip {
				return filepath.SkipDir
			}
			if d.matcher.Excluded(strings.Split(rel, "/"), true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if d.matcher.Included(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", d.root, err)
	}
	slices.Sort(files)
	d.logger.Debug("Discovered source files", logfields.Count(len(files)), logfields.Path(d.root))
	return files, nil
}
