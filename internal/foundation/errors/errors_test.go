package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Wrapped classified errors are found through the chain", func(t *testing.T) {
		inner := StateLocked("state locked").Build()
		wrapped := fmt.Errorf("update: %w", inner)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryLock) {
			t.Error("expected lock category through wrapping")
		}
		if GetCategory(stderrors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to report internal category")
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := IOFailure("write failed").Build()
		extended := base.WithContext("path", "modules/a.md")
		if _, ok := base.Context().Get("path"); ok {
			t.Error("expected original context to be unchanged")
		}
		if p, _ := extended.Context().GetString("path"); p != "modules/a.md" {
			t.Errorf("expected path context, got %q", p)
		}
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
		retry    RetryStrategy
	}{
		{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryNever},
		{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryNever},
		{"IncompatibleState", IncompatibleState("test"), CategoryState, SeverityFatal, RetryUserAction},
		{"StateLocked", StateLocked("test"), CategoryLock, SeverityFatal, RetryUserAction},
		{"IOFailure", IOFailure("test"), CategoryFileSystem, SeverityError, RetryNever},
		{"ExtractionDegraded", ExtractionDegraded("test"), CategoryExtraction, SeverityWarning, RetryNever},
		{"SummarizationRetryable", SummarizationError("test", true), CategorySummarize, SeverityError, RetryBackoff},
		{"SummarizationPermanent", SummarizationError("test", false), CategorySummarize, SeverityError, RetryNever},
		{"BuildError", BuildError("test"), CategoryBuild, SeverityError, RetryNever},
		{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			if err.Category() != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category())
			}
			if err.Severity() != tt.severity {
				t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
			}
			if err.RetryStrategy() != tt.retry {
				t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
			}
		})
	}
}

func TestErrorContextMerge(t *testing.T) {
	ctx1 := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	ctx2 := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	if v, _ := merged.GetString("key1"); v != "value1" {
		t.Errorf("expected key1=value1, got %s", v)
	}
	if v, _ := merged.GetString("key2"); v != "value2" {
		t.Errorf("expected key2=value2, got %s", v)
	}
	if v, _ := merged.GetString("shared"); v != "overridden" {
		t.Errorf("expected shared=overridden, got %s", v)
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"incompatible state", IncompatibleState("schema").Build(), 7},
		{"state locked", StateLocked("locked").Build(), 9},
		{"module failures", BuildError("2 modules failed").Build(), 11},
		{"wrapped io failure", fmt.Errorf("commit: %w", IOFailure("rename").Build()), 11},
		{"unclassified", stderrors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)
	err := WrapError(stderrors.New("unexpected version 1"), CategoryState, "state schema mismatch").Fatal().Build()

	if got := quiet.FormatError(err); !strings.Contains(got, "--reset-state") {
		t.Errorf("expected rebuild hint, got %q", got)
	}
	if got := verbose.FormatError(err); !strings.Contains(got, "unexpected version 1") {
		t.Errorf("expected cause in verbose output, got %q", got)
	}
	if got := quiet.FormatError(stderrors.New("plain")); got != "Error: plain" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestCLIErrorAdapter_LogsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter := NewCLIErrorAdapter(true, logger)

	adapter.logError(StateLocked("state locked").WithContext("run_id", "r-1").Build())

	out := buf.String()
	if !strings.Contains(out, "category=lock") || !strings.Contains(out, "run_id=r-1") {
		t.Errorf("expected category and context in log output, got %q", out)
	}
}
