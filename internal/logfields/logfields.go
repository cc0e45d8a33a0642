package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyModule     = "module"
	KeyCause      = "cause"
	KeyAttempt    = "attempt"
	KeyOutcome    = "outcome"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyProvider   = "provider"
	KeyStatusCode = "status_code"
	KeyDelay      = "delay"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Module(id string) slog.Attr      { return slog.String(KeyModule, id) }
func Cause(c string) slog.Attr        { return slog.String(KeyCause, c) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func StatusCode(c int) slog.Attr      { return slog.Int(KeyStatusCode, c) }
func Delay(d time.Duration) slog.Attr { return slog.Duration(KeyDelay, d) }

// DurationMS records elapsed time since start in milliseconds.
func DurationMS(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(time.Since(start).Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
