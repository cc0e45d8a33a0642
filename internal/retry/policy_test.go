package retry

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codemap/internal/config"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffExponential, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 3, p.MaxAttempts)
	require.NoError(t, p.Validate())
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxAttempts)

	unknown := NewPolicy("sometimes", 0, 0, 0)
	assert.Equal(t, DefaultPolicy().Mode, unknown.Mode)
	assert.Equal(t, 3, unknown.MaxAttempts)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"exponential", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.want {
				assert.Equal(t, want, tc.policy.Delay(i+1), "retry %d", i+1)
			}
		})
	}
}

func TestDelayEdgeCases(t *testing.T) {
	p := NewPolicy(config.RetryBackoffExponential, 10*time.Millisecond, 20*time.Millisecond, 1)
	assert.Zero(t, p.Delay(0))
	assert.Zero(t, p.Delay(-1))
	assert.Equal(t, 20*time.Millisecond, p.Delay(64))
}

func TestShouldRetry(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	transient := errors.SummarizationError("rate limited", true).Build()
	permanent := errors.SummarizationError("unauthorized", false).Build()

	assert.True(t, p.ShouldRetry(1, transient))
	assert.True(t, p.ShouldRetry(2, transient))
	assert.False(t, p.ShouldRetry(3, transient), "attempt cap reached")
	assert.False(t, p.ShouldRetry(1, permanent))
	assert.False(t, p.ShouldRetry(1, stderrors.New("plain")))
	assert.False(t, p.ShouldRetry(1, nil))

	always := p.WithRetryable(func(error) bool { return true })
	assert.True(t, always.ShouldRetry(1, stderrors.New("plain")))
	assert.Nil(t, p.Retryable, "WithRetryable copies")
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.BuildConfig{
		MaxAttempts:       4,
		RetryBackoff:      config.RetryBackoffLinear,
		RetryInitialDelay: "250ms",
		RetryMaxDelay:     "1s",
	})
	assert.Equal(t, 4, p.MaxAttempts)
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, 250*time.Millisecond, p.Initial)
	assert.Equal(t, time.Second, p.Max)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second, MaxAttempts: 1}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0, MaxAttempts: 1}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second}.Validate())
}
