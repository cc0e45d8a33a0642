package metrics

import "time"

// OutcomeLabel enumerates module generation outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailure  OutcomeLabel = "failure"
	OutcomeCanceled OutcomeLabel = "canceled"
	OutcomeRemoved  OutcomeLabel = "removed"
)

// RunOutcomeLabel is the final status of a whole run.
type RunOutcomeLabel string

const (
	RunClean   RunOutcomeLabel = "clean"
	RunSuccess RunOutcomeLabel = "success"
	RunPartial RunOutcomeLabel = "partial"
	RunFailed  RunOutcomeLabel = "failed"
)

// Recorder defines observability hooks for runs and module generation.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcomeLabel)
	IncPlanned(cause string)
	IncAttempt()
	IncRetry()
	IncRetryExhausted()
	ObserveModuleDuration(d time.Duration, outcome OutcomeLabel)
	IncModuleOutcome(outcome OutcomeLabel)
	SetConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are disabled).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)        {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                  {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)                     {}
func (NoopRecorder) IncPlanned(string)                                 {}
func (NoopRecorder) IncAttempt()                                       {}
func (NoopRecorder) IncRetry()                                         {}
func (NoopRecorder) IncRetryExhausted()                                {}
func (NoopRecorder) ObserveModuleDuration(time.Duration, OutcomeLabel) {}
func (NoopRecorder) IncModuleOutcome(OutcomeLabel)                     {}
func (NoopRecorder) SetConcurrency(int)                                {}
