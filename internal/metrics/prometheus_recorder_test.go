package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("detect", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncRunOutcome(RunPartial)
	pr.IncPlanned("self-changed")
	pr.IncPlanned("self-changed")
	pr.IncAttempt()
	pr.IncAttempt()
	pr.IncRetry()
	pr.IncRetryExhausted()
	pr.ObserveModuleDuration(2*time.Second, OutcomeSuccess)
	pr.IncModuleOutcome(OutcomeSuccess)
	pr.IncModuleOutcome(OutcomeFailure)
	pr.SetConcurrency(4)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.planned.WithLabelValues("self-changed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.attempts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.retries), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.retriesExhausted), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(pr.concurrency), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(pr.moduleOutcome))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome(RunSuccess)

	path := filepath.Join(t.TempDir(), "nested", "metrics.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `codemap_run_outcomes_total{outcome="success"} 1`))
}
