package detector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/state"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("hello"))
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", a)
	assert.Equal(t, a, Fingerprint([]byte("hello")))
	assert.NotEqual(t, a, Fingerprint([]byte("hello\n")))
}

func TestDetect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/x.cpp", "x v2")
	writeFile(t, root, "a/y.cpp", "y")
	writeFile(t, root, "c/new.cpp", "new")

	prior := state.New()
	prior.Files["a/x.cpp"] = &state.FileRecord{Fingerprint: Fingerprint([]byte("x v1")), Module: "a"}
	prior.Files["a/y.cpp"] = &state.FileRecord{Fingerprint: Fingerprint([]byte("y")), Module: "a"}
	prior.Files["b/z.cpp"] = &state.FileRecord{Fingerprint: Fingerprint([]byte("z")), Module: "b"}

	cs, err := New(root, Options{}).Detect([]string{"c/new.cpp", "a/y.cpp", "a/x.cpp", "a/x.cpp"}, prior)
	require.NoError(t, err)

	assert.Equal(t, []string{"c/new.cpp"}, cs.Added)
	assert.Equal(t, []string{"a/x.cpp"}, cs.Modified)
	assert.Equal(t, []string{"b/z.cpp"}, cs.Removed)
	assert.Equal(t, []string{"a/y.cpp"}, cs.Unchanged)
	assert.Len(t, cs.Current, 3)
	assert.False(t, cs.IsEmpty())
	assert.True(t, cs.Changed().Has("b/z.cpp"))
	assert.False(t, cs.Changed().Has("a/y.cpp"))
}

func TestDetect_IgnoresTimestamps(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/x.cpp", "same")
	prior := state.New()
	prior.Files["a/x.cpp"] = &state.FileRecord{Fingerprint: Fingerprint([]byte("same"))}

	later := time.Now().Add(48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a", "x.cpp"), later, later))

	cs, err := New(root, Options{}).Detect([]string{"a/x.cpp"}, prior)
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())
}

func TestDetect_Full(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/x.cpp", "same")
	prior := state.New()
	prior.Files["a/x.cpp"] = &state.FileRecord{Fingerprint: Fingerprint([]byte("same"))}

	writeFile(t, root, "b/new.cpp", "fresh")

	cs, err := New(root, Options{Full: true}).Detect([]string{"a/x.cpp", "b/new.cpp"}, prior)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.cpp", "b/new.cpp"}, cs.Modified, "full mode reports every included file as modified")
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Unchanged)
}

func TestDetect_UnreadableFile(t *testing.T) {
	_, err := New(t.TempDir(), Options{}).Detect([]string{"missing.cpp"}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}
