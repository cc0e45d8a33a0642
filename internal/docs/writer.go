package docs

import (
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"git.home.luguber.info/inful/codemap/internal/build"
	"git.home.luguber.info/inful/codemap/internal/detector"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/logfields"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/state"
)

// ModulesDir is the directory of module documents inside the output directory.
const ModulesDir = "modules"

// CommitResult reports what a commit changed on disk.
type CommitResult struct {
	// Written are the ids whose document was replaced.
	Written []string
	// Skipped are failed ids whose previous document was left in place.
	Skipped []string
	// Removed are ids whose document was deleted.
	Removed []string
	// State is the state to persist once the caller accepts the commit.
	State *state.PersistentState
}

// Writer publishes module documents and the overview into the output directory.
type Writer struct {
	dir      string
	diagrams bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewWriter creates a writer for dir (usually .codemap).
func NewWriter(dir string, diagrams bool) *Writer {
	return &Writer{dir: dir, diagrams: diagrams, now: time.Now, logger: slog.Default()}
}

// WithLogger sets the logger.
func (w *Writer) WithLogger(logger *slog.Logger) *Writer {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WithClock overrides the time source used for generation timestamps.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	if now != nil {
		w.now = now
	}
	return w
}

// DocumentPath returns the document location of a module.
func (w *Writer) DocumentPath(id string) string {
	return filepath.Join(w.dir, ModulesDir, FileName(id))
}

// OverviewPath returns the overview location.
func (w *Writer) OverviewPath() string {
	return filepath.Join(w.dir, OverviewFile)
}

// Exists reports whether the document of id is present.
func (w *Writer) Exists(id string) bool {
	_, err := os.Stat(w.DocumentPath(id))
	return err == nil
}

// Verify checks the fingerprint of the document of id.
func (w *Writer) Verify(id string) (Verification, error) {
	content, err := os.ReadFile(w.DocumentPath(id))
	if os.IsNotExist(err) {
		return VerifyMissing, nil
	}
	if err != nil {
		return "", ioFailure(err, "failed to read module document", w.DocumentPath(id))
	}
	return Verify(content)
}

// Commit renders the documents of successful results into a staging
// directory, promotes them into the modules directory, deletes documents of
// removed modules and regenerates the overview. The returned state is not
// saved here. On error, documents promoted before the failure stay in place.
func (w *Writer) Commit(results build.Results, g *modules.Graph, prior *state.PersistentState, changes *detector.ChangeSet) (*CommitResult, error) {
	now := w.now().UTC()
	res := &CommitResult{}

	staged := make(map[string][]byte)
	for _, id := range results.SortedIDs() {
		r := results[id]
		switch {
		case !r.Succeeded():
			res.Skipped = append(res.Skipped, id)
		case r.Removed || g.Modules[id] == nil || len(g.Modules[id].Members) == 0:
			res.Removed = append(res.Removed, id)
		default:
			doc, err := Render(g.Modules[id], r.Document, now)
			if err != nil {
				return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render module document").
					WithContext(logfields.KeyModule, id).Build()
			}
			staged[id] = doc
		}
	}

	if err := checkFileNames(staged); err != nil {
		return nil, err
	}

	modulesDir := filepath.Join(w.dir, ModulesDir)
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		return nil, ioFailure(err, "failed to create modules directory", modulesDir)
	}
	if len(staged) > 0 {
		stage, err := w.beginStaging()
		if err != nil {
			return nil, err
		}
		for _, id := range results.SortedIDs() {
			doc, ok := staged[id]
			if !ok {
				continue
			}
			p := filepath.Join(stage, FileName(id))
			if err := os.WriteFile(p, doc, 0o644); err != nil {
				w.abortStaging(stage)
				return nil, ioFailure(err, "failed to stage module document", p)
			}
		}
		for _, id := range results.SortedIDs() {
			if _, ok := staged[id]; !ok {
				continue
			}
			from, to := filepath.Join(stage, FileName(id)), w.DocumentPath(id)
			if err := os.Rename(from, to); err != nil {
				w.abortStaging(stage)
				return nil, ioFailure(err, "failed to promote module document", to)
			}
			res.Written = append(res.Written, id)
			w.logger.Debug("Module document written", logfields.Module(id), logfields.Path(to))
		}
		w.abortStaging(stage)
	}

	for _, id := range res.Removed {
		p := w.DocumentPath(id)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, ioFailure(err, "failed to remove module document", p)
		}
		w.logger.Info("Module document removed", logfields.Module(id))
	}

	res.State = NextState(results, g, prior, changes, now)
	if err := w.writeOverview(res.State); err != nil {
		return nil, err
	}
	return res, nil
}

// RefreshOverview regenerates the overview from st without touching module documents.
func (w *Writer) RefreshOverview(st *state.PersistentState) error {
	return w.writeOverview(st)
}

// Clean removes the overview, the module documents and any leftover staging directory.
func (w *Writer) Clean() error {
	for _, p := range []string{w.OverviewPath(), filepath.Join(w.dir, ModulesDir) + stageSuffix} {
		if err := os.RemoveAll(p); err != nil {
			return ioFailure(err, "failed to remove generated output", p)
		}
	}
	modulesDir := filepath.Join(w.dir, ModulesDir)
	matches, err := filepath.Glob(filepath.Join(modulesDir, "*.md"))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "invalid document pattern").Build()
	}
	for _, p := range matches {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return ioFailure(err, "failed to remove module document", p)
		}
	}
	return nil
}

func (w *Writer) writeOverview(st *state.PersistentState) error {
	entries := OverviewEntries(st, func(id string) ([]byte, error) {
		return os.ReadFile(w.DocumentPath(id))
	})
	content := RenderOverview(entries, w.diagrams)
	path := w.OverviewPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		return ioFailure(err, "failed to write overview", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return ioFailure(err, "failed to replace overview", path)
	}
	w.logger.Debug("Overview written", logfields.Path(path), logfields.Count(len(entries)))
	return nil
}

const stageSuffix = "_stage"

// beginStaging creates a fresh sibling of the modules directory.
func (w *Writer) beginStaging() (string, error) {
	stage := filepath.Join(w.dir, ModulesDir) + stageSuffix
	if err := os.RemoveAll(stage); err != nil {
		return "", ioFailure(err, "failed to clear staging directory", stage)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", ioFailure(err, "failed to create staging directory", stage)
	}
	return stage, nil
}

func (w *Writer) abortStaging(stage string) {
	if err := os.RemoveAll(stage); err != nil {
		w.logger.Warn("Failed to remove staging directory", logfields.Path(stage), logfields.Error(err))
	}
}

func ioFailure(err error, msg, path string) error {
	return errors.IOFailure(msg).WithCause(err).WithContext(logfields.KeyPath, path).Build()
}

// checkFileNames rejects a run whose documents would overwrite each other.
func checkFileNames(staged map[string][]byte) error {
	owner := make(map[string]string, len(staged))
	for _, id := range slices.Sorted(maps.Keys(staged)) {
		name := FileName(id)
		if other, dup := owner[name]; dup {
			return errors.InternalError("module documents share a file name").
				WithContext(logfields.KeyModule, id).
				WithContext("other_module", other).
				WithContext(logfields.KeyPath, name).
				Build()
		}
		owner[name] = id
	}
	return nil
}
