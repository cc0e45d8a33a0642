package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

func TestLock_Exclusive(t *testing.T) {
	store := NewJSONStore(t.TempDir())

	first, err := store.Lock("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", first.Info.RunID)

	_, err = store.Lock("run-2")
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryLock, ce.Category())
	holder, _ := ce.Context().GetString("run_id")
	assert.Equal(t, "run-1", holder)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release(), "second release is harmless")

	second, err := store.Lock("run-2")
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestLock_StaleMarker(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	_, err := store.Lock("crashed")
	require.NoError(t, err)

	holder, err := store.LockHolder()
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, "crashed", holder.RunID)

	_, err = store.Lock("next")
	require.True(t, errors.HasCategory(err, errors.CategoryLock))

	require.NoError(t, store.BreakLock())
	holder, err = store.LockHolder()
	require.NoError(t, err)
	assert.Nil(t, holder)

	l, err := store.Lock("next")
	require.NoError(t, err)
	require.NoError(t, l.Release())
}
