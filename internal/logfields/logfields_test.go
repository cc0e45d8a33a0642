package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies helper key stability; key drift would break log queries.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name string
		key  string
		attr slog.Attr
	}{
		{"RunID", KeyRunID, RunID("r1")},
		{"Module", KeyModule, Module("src/core")},
		{"Cause", KeyCause, Cause("self-changed")},
		{"Attempt", KeyAttempt, Attempt(2)},
		{"Outcome", KeyOutcome, Outcome("success")},
		{"Stage", KeyStage, Stage("plan")},
		{"Path", KeyPath, Path("a/x.cpp")},
		{"Count", KeyCount, Count(3)},
		{"Provider", KeyProvider, Provider("anthropic")},
		{"StatusCode", KeyStatusCode, StatusCode(429)},
		{"Delay", KeyDelay, Delay(time.Second)},
		{"DurationMS", KeyDurationMS, DurationMS(time.Now())},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.attr.Key, tc.name)
	}
}

func TestErrorHelper(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
