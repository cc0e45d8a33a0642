package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
	"git.home.luguber.info/inful/codemap/internal/logfields"
	"git.home.luguber.info/inful/codemap/internal/metrics"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/planner"
	"git.home.luguber.info/inful/codemap/internal/retry"
	"git.home.luguber.info/inful/codemap/internal/summarize"
)

// Options controls one orchestrator run.
type Options struct {
	MaxConcurrency int
	Policy         retry.Policy
	Inputs         *Assembler
}

// Orchestrator executes module generation tasks.
type Orchestrator struct {
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator with no metrics.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{recorder: metrics.NoopRecorder{}, logger: slog.Default()}
}

// WithRecorder injects a metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	o.recorder = r
	return o
}

// WithLogger sets a custom logger.
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	o.logger = logger
	return o
}

type task struct {
	id    string
	entry planner.Entry
}

// Run generates every planned module and returns once all tasks finished,
// retries included. Cancellation stops dispatch; undispatched and
// interrupted modules come back as canceled failures.
func (o *Orchestrator) Run(ctx context.Context, plan *planner.BuildPlan, graph *modules.Graph, s summarize.Summarizer, opts Options) Results {
	results := make(Results, plan.Len())
	if plan.IsEmpty() {
		return results
	}
	policy := opts.Policy
	if policy.MaxAttempts < 1 || policy.Initial <= 0 {
		policy = retry.DefaultPolicy().WithRetryable(policy.Retryable)
	}
	if policy.Retryable == nil {
		policy = policy.WithRetryable(summarize.Classify)
	}
	workers := opts.MaxConcurrency
	if workers <= 0 {
		workers = 1
	}
	workers = min(workers, plan.Len())
	o.recorder.SetConcurrency(workers)

	var mu sync.Mutex
	record := func(r *GenerationResult) {
		mu.Lock()
		results[r.ModuleID] = r
		mu.Unlock()
	}

	jobs := make(chan task)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				record(o.runTask(ctx, t, graph, s, policy, opts.Inputs))
			}
		}()
	}

	ids := plan.SortedIDs()
dispatch:
	for i, id := range ids {
		if ctx.Err() != nil {
			for _, rest := range ids[i:] {
				record(canceled(rest, 0, ctx.Err()))
			}
			break
		}
		select {
		case jobs <- task{id: id, entry: plan.Entries[id]}:
		case <-ctx.Done():
			for _, rest := range ids[i:] {
				record(canceled(rest, 0, ctx.Err()))
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (o *Orchestrator) runTask(ctx context.Context, t task, graph *modules.Graph, s summarize.Summarizer, policy retry.Policy, inputs *Assembler) (res *GenerationResult) {
	start := time.Now()
	logger := o.logger.With(logfields.Module(t.id), logfields.Cause(string(t.entry.Cause)))
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Module task panicked", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			res = &GenerationResult{
				ModuleID: t.id,
				Outcome:  OutcomeFailure,
				Err:      errors.InternalError(fmt.Sprintf("module task panicked: %v", p)).WithContext("module", t.id).Build(),
			}
		}
		res.Duration = time.Since(start)
		o.observe(res)
	}()

	m, live := graph.Modules[t.id]
	if t.entry.Vanished || !live || len(m.Members) == 0 {
		logger.Debug("Module has no members, scheduling removal")
		return &GenerationResult{ModuleID: t.id, Outcome: OutcomeSuccess, Removed: true}
	}

	in := inputs.Assemble(m)
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return canceled(t.id, attempt, err)
		}
		attempt++
		o.recorder.IncAttempt()
		doc, err := s.Summarize(ctx, in)
		if err == nil {
			logger.Info("Module generated", logfields.Attempt(attempt), logfields.DurationMS(start))
			return &GenerationResult{ModuleID: t.id, Outcome: OutcomeSuccess, Document: doc, Attempts: attempt}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return canceled(t.id, attempt, ctxErr)
		}
		if !policy.ShouldRetry(attempt, err) {
			if attempt >= policy.MaxAttempts && policy.Retryable(err) {
				o.recorder.IncRetryExhausted()
				logger.Error("Retries exhausted", logfields.Attempt(attempt), logfields.Error(err))
			} else {
				logger.Error("Module generation failed", logfields.Attempt(attempt), logfields.Error(err))
			}
			return &GenerationResult{ModuleID: t.id, Outcome: OutcomeFailure, Err: classify(t.id, err), Attempts: attempt}
		}

		delay := policy.Delay(attempt)
		if ra := summarize.RetryAfter(err); ra > delay {
			delay = min(ra, policy.Max)
		}
		o.recorder.IncRetry()
		logger.Warn("Transient summarization error, retrying",
			logfields.Attempt(attempt),
			slog.Int("max_attempts", policy.MaxAttempts),
			logfields.Delay(delay),
			logfields.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return canceled(t.id, attempt, ctx.Err())
		}
	}
}

func (o *Orchestrator) observe(r *GenerationResult) {
	outcome := metrics.OutcomeSuccess
	switch {
	case r.Canceled:
		outcome = metrics.OutcomeCanceled
	case !r.Succeeded():
		outcome = metrics.OutcomeFailure
	case r.Removed:
		outcome = metrics.OutcomeRemoved
	}
	o.recorder.IncModuleOutcome(outcome)
	if r.Duration > 0 {
		o.recorder.ObserveModuleDuration(r.Duration, outcome)
	}
}

func canceled(id string, attempts int, cause error) *GenerationResult {
	return &GenerationResult{
		ModuleID: id,
		Outcome:  OutcomeFailure,
		Canceled: true,
		Attempts: attempts,
		Err: errors.WrapError(cause, errors.CategoryCanceled, "module generation canceled").
			WithContext("module", id).Build(),
	}
}

// classify maps a summarizer failure into the shared taxonomy.
func classify(id string, err error) error {
	var se *summarize.Error
	if stderrors.As(err, &se) {
		return se.Classified().WithContext("module", id)
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}
	return errors.WrapError(err, errors.CategorySummarize, "summarization failed").
		WithContext("module", id).Build()
}
