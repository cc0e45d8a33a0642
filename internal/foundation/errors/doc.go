// Package errors provides the classified error taxonomy used across codemap.
//
// Run-fatal conditions (IncompatibleState, StateLocked) and per-write
// failures (IOFailure) are distinguished from per-module conditions that are
// recovered locally (ExtractionDegraded, SummarizationError). The CLI maps
// categories to exit codes through CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.IncompatibleState("state schema version mismatch").
//		WithContext("found", 1).
//		WithContext("want", state.SchemaVersion).
//		Build()
package errors
