// Package summarize turns a module's structural facts into a markdown
// summary through a remote language model.
package summarize

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/codemap/internal/extract"
	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// ModuleInput is everything a summarizer sees for one module.
type ModuleInput struct {
	ModuleID string
	// Members are repo-relative paths, sorted.
	Members []string
	// Facts holds the structural facts of members that could be extracted.
	Facts         []*extract.Facts
	DependencyIDs []string
	DependentIDs  []string
	// Sources holds member contents; only used at the detailed level.
	Sources map[string][]byte
}

// Summarizer produces the markdown summary of a module.
type Summarizer interface {
	Summarize(ctx context.Context, in ModuleInput) (string, error)
}

// Func adapts a function to Summarizer.
type Func func(ctx context.Context, in ModuleInput) (string, error)

// Summarize calls f.
func (f Func) Summarize(ctx context.Context, in ModuleInput) (string, error) { return f(ctx, in) }

// Error is a classified failure of a summarization call.
type Error struct {
	Provider   string
	StatusCode int
	Retryable  bool
	// RetryAfter is the server supplied delay, zero when absent.
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Classified converts e into the shared error taxonomy.
func (e *Error) Classified() *errors.ClassifiedError {
	b := errors.SummarizationError(e.Message, e.Retryable).
		WithCause(e).
		WithContext("provider", e.Provider)
	if e.StatusCode != 0 {
		b = b.WithContext("status_code", e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests {
		b = b.RateLimit()
	}
	return b.Build()
}

// RetryableStatus reports whether an HTTP status is worth another attempt.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

// Classify is the retry predicate for summarization failures. Unknown errors
// are retryable only when they look like transport timeouts.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	var se *Error
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	if ce, ok := errors.AsClassified(err); ok {
		return ce.CanRetry()
	}
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// RetryAfter returns the server supplied delay carried by err, if any.
func RetryAfter(err error) time.Duration {
	var se *Error
	if stderrors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
