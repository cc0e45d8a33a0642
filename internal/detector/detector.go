// Package detector computes content fingerprints for the included files and
// diffs them against the prior run's state.
package detector

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/logfields"
	"git.home.luguber.info/inful/codemap/internal/state"
	"git.home.luguber.info/inful/codemap/internal/util/sets"
)

// FingerprintPrefix identifies the digest algorithm of a fingerprint.
const FingerprintPrefix = "sha256:"

// Fingerprint returns the content fingerprint of data. It depends on the
// bytes only, never on timestamps.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return FingerprintPrefix + hex.EncodeToString(sum[:])
}

// ChangeSet classifies the included files against the prior snapshot.
// All path lists are sorted.
type ChangeSet struct {
	Added     []string
	Modified  []string
	Removed   []string
	Unchanged []string
	// Current holds the fingerprint of every included file.
	Current map[string]string
}

// Changed returns added, modified and removed paths as one set.
func (c *ChangeSet) Changed() sets.Set[string] {
	out := sets.New(c.Added...)
	for _, p := range c.Modified {
		out.Add(p)
	}
	for _, p := range c.Removed {
		out.Add(p)
	}
	return out
}

// IsEmpty reports whether nothing changed.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Options controls detection.
type Options struct {
	// Full treats every included file as modified.
	Full bool
}

// Detector reads files below Root.
type Detector struct {
	root   string
	opts   Options
	logger *slog.Logger
}

// New creates a detector for the repository at root.
func New(root string, opts Options) *Detector {
	return &Detector{root: root, opts: opts, logger: slog.Default()}
}

// WithLogger sets a custom logger.
func (d *Detector) WithLogger(logger *slog.Logger) *Detector {
	d.logger = logger
	return d
}

// Detect fingerprints every included path and diffs against prior. A file
// that cannot be read fails the whole detection.
func (d *Detector) Detect(included []string, prior *state.PersistentState) (*ChangeSet, error) {
	if prior == nil {
		prior = state.New()
	}
	paths := slices.Clone(included)
	slices.Sort(paths)
	paths = slices.Compact(paths)

	cs := &ChangeSet{Current: make(map[string]string, len(paths))}
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(p)))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read included file").
				WithContext("path", p).Build()
		}
		fp := Fingerprint(data)
		cs.Current[p] = fp

		old, known := prior.Fingerprint(p)
		switch {
		case d.opts.Full:
			cs.Modified = append(cs.Modified, p)
		case !known:
			cs.Added = append(cs.Added, p)
		case old != fp:
			cs.Modified = append(cs.Modified, p)
		default:
			cs.Unchanged = append(cs.Unchanged, p)
		}
	}
	for _, p := range prior.KnownFiles() {
		if _, ok := cs.Current[p]; !ok {
			cs.Removed = append(cs.Removed, p)
		}
	}

	d.logger.Debug("Change detection complete",
		logfields.Count(len(paths)),
		slog.Int("added", len(cs.Added)),
		slog.Int("modified", len(cs.Modified)),
		slog.Int("removed", len(cs.Removed)),
		slog.Bool("full", d.opts.Full))
	return cs, nil
}
