package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

func sampleState() *PersistentState {
	st := New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st.LastRun = now
	st.Files["a/x.cpp"] = &FileRecord{Fingerprint: "sha256:aa", Module: "a", LastSeen: now}
	st.Files["b/z.cpp"] = &FileRecord{Fingerprint: "sha256:bb", Module: "b", LastSeen: now}
	st.Modules["a"] = &ModuleRecord{
		MemberPaths:      []string{"a/x.cpp"},
		LastFingerprints: map[string]string{"a/x.cpp": "sha256:aa"},
		LastGeneratedAt:  now,
	}
	st.Modules["b"] = &ModuleRecord{
		MemberPaths:      []string{"b/z.cpp"},
		DependencyIDs:    []string{"a"},
		LastFingerprints: map[string]string{"b/z.cpp": "sha256:bb"},
		LastGeneratedAt:  now,
	}
	return st
}

func TestJSONStore_LoadAbsent(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), ".codemap"))
	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, st.Version)
	assert.Empty(t, st.Files)
	assert.Empty(t, st.Modules)
}

func TestJSONStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".codemap")
	store := NewJSONStore(dir)
	want := sampleState()

	require.NoError(t, store.Save(want))
	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not survive a save")

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"a", "b"}, got.KnownModules())
	assert.Equal(t, []string{"a/x.cpp", "b/z.cpp"}, got.KnownFiles())
}

func TestJSONStore_SaveReplacesExisting(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	require.NoError(t, store.Save(sampleState()))

	next := sampleState()
	delete(next.Modules, "b")
	delete(next.Files, "b/z.cpp")
	require.NoError(t, store.Save(next))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.KnownModules())
}

func TestJSONStore_IncompatibleState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"legacy version", `{"version": 1, "modules": {"a": {"source_hashes": ["x"]}}}`},
		{"future version", `{"version": 7}`},
		{"missing version", `{"files": {}}`},
		{"not json", `{{{`},
		{"schema mismatch", `{"version": 2, "files": {"a.cpp": "oops"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewJSONStore(t.TempDir())
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0o644))

			before, _ := os.ReadFile(store.Path())
			_, err := store.Load()
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryState))

			after, _ := os.ReadFile(store.Path())
			assert.Equal(t, before, after, "load must never mutate the state file")
		})
	}
}

func TestJSONStore_Reset(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	require.NoError(t, store.Reset(), "reset of absent state is a no-op")
	require.NoError(t, store.Save(sampleState()))
	require.NoError(t, store.Reset())
	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestJSONStore_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	store := NewJSONStore(filepath.Join(blocker, "nested"))
	err := store.Save(sampleState())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestPersistentState_Clone(t *testing.T) {
	orig := sampleState()
	cp := orig.Clone()
	cp.Files["a/x.cpp"].Fingerprint = "sha256:changed"
	cp.Modules["b"].DependencyIDs[0] = "z"
	cp.Modules["a"].LastFingerprints["a/x.cpp"] = "sha256:changed"

	assert.Equal(t, "sha256:aa", orig.Files["a/x.cpp"].Fingerprint)
	assert.Equal(t, "a", orig.Modules["b"].DependencyIDs[0])
	assert.Equal(t, "sha256:aa", orig.Modules["a"].LastFingerprints["a/x.cpp"])

	fp, ok := orig.Fingerprint("b/z.cpp")
	assert.True(t, ok)
	assert.Equal(t, "sha256:bb", fp)
	mod, ok := orig.ModuleOf("b/z.cpp")
	assert.True(t, ok)
	assert.Equal(t, "b", mod)
	_, ok = orig.ModuleOf("missing.cpp")
	assert.False(t, ok)
}
