package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// FileName is the state file inside the codemap directory.
const FileName = "state.json"

// JSONStore persists PersistentState as an indented JSON document.
type JSONStore struct {
	dir  string
	path string
}

// NewJSONStore creates a store rooted at dir (usually .codemap).
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir, path: filepath.Join(dir, FileName)}
}

// Path returns the state file location.
func (js *JSONStore) Path() string { return js.path }

// Load reads the state. An absent file yields an empty state at the current
// schema version; anything unreadable or at another version is IncompatibleState.
func (js *JSONStore) Load() (*PersistentState, error) {
	data, err := os.ReadFile(js.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read state file").
			WithContext("path", js.path).Build()
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.IncompatibleState("state file is not valid JSON").
			WithCause(err).
			WithContext("path", js.path).
			Build()
	}
	if probe.Version != SchemaVersion {
		return nil, errors.IncompatibleState(fmt.Sprintf("state schema version %d is not supported (want %d)", probe.Version, SchemaVersion)).
			WithContext("path", js.path).
			WithContext("found", probe.Version).
			WithContext("want", SchemaVersion).
			Build()
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, errors.IncompatibleState("state file does not match schema").
			WithCause(err).
			WithContext("path", js.path).
			Build()
	}
	if st.Files == nil {
		st.Files = make(map[string]*FileRecord)
	}
	if st.Modules == nil {
		st.Modules = make(map[string]*ModuleRecord)
	}
	return st, nil
}

// Save writes <file>.tmp, syncs it and renames it over the state file.
func (js *JSONStore) Save(st *PersistentState) error {
	if st.Version == 0 {
		st.Version = SchemaVersion
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal state").Build()
	}
	if err := os.MkdirAll(js.dir, 0o755); err != nil {
		return ioFailure(err, "failed to create state directory", js.dir)
	}

	tempPath := js.path + ".tmp"
	if err := writeSynced(tempPath, data); err != nil {
		_ = os.Remove(tempPath)
		return ioFailure(err, "failed to write temporary state file", tempPath)
	}
	if err := os.Rename(tempPath, js.path); err != nil {
		_ = os.Remove(tempPath)
		return ioFailure(err, "failed to replace state file", js.path)
	}
	syncDir(js.dir)
	return nil
}

// Reset removes the state file. A missing file is not an error.
func (js *JSONStore) Reset() error {
	if err := os.Remove(js.path); err != nil && !os.IsNotExist(err) {
		return ioFailure(err, "failed to remove state file", js.path)
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func ioFailure(err error, msg, path string) error {
	return errors.IOFailure(msg).WithCause(err).WithContext("path", path).Build()
}
