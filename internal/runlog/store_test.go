package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	start := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.BeginRun(ctx, "run-1", start))
	require.NoError(t, s.RecordResults(ctx, []ModuleResult{
		{RunID: "run-1", ModuleID: "src/lexer", Cause: "self-changed", Outcome: "success", Attempts: 1, Duration: 1500 * time.Millisecond},
		{RunID: "run-1", ModuleID: "src/ast", Cause: "dependency-changed", Outcome: "failure", Attempts: 3,
			Error: "rate limited", Context: map[string]any{"status_code": float64(429)}},
		{RunID: "run-1", ModuleID: "old", Cause: "self-changed", Outcome: "success", Removed: true},
	}))
	require.NoError(t, s.FinishRun(ctx, Run{
		ID: "run-1", FinishedAt: start.Add(time.Minute), Outcome: "partial",
		Planned: 3, Updated: 2, Failed: 1,
	}))

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "partial", runs[0].Outcome)
	assert.Equal(t, start, runs[0].StartedAt)
	assert.Equal(t, start.Add(time.Minute), runs[0].FinishedAt)
	assert.Equal(t, 3, runs[0].Planned)
	assert.Equal(t, 1, runs[0].Failed)

	results, err := s.Results(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"old", "src/ast", "src/lexer"}, []string{results[0].ModuleID, results[1].ModuleID, results[2].ModuleID})
	assert.True(t, results[0].Removed)
	assert.Equal(t, 3, results[1].Attempts)
	assert.Equal(t, map[string]any{"status_code": float64(429)}, results[1].Context)
	assert.Equal(t, 1500*time.Millisecond, results[2].Duration)
	assert.Nil(t, results[2].Context)
}

func TestStore_RunsNewestFirstAndHistory(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	base := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.BeginRun(ctx, id, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, s.RecordResults(ctx, []ModuleResult{{RunID: id, ModuleID: "core", Cause: "forced", Outcome: "success", Attempts: i + 1}}))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)
	assert.Equal(t, "running", runs[0].Outcome)
	assert.True(t, runs[0].FinishedAt.IsZero())

	history, err := s.History(ctx, "core", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "r3", history[0].RunID)
	assert.Equal(t, 3, history[0].Attempts)
}

func TestStore_FinishUnknownRun(t *testing.T) {
	s := openMemory(t)
	err := s.FinishRun(context.Background(), Run{ID: "missing", FinishedAt: time.Now(), Outcome: "clean"})
	require.Error(t, err)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(ctx, "r1", time.Now()))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	runs, err := reopened.Runs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)
}
