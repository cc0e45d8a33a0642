package build

import (
	"maps"
	"slices"
	"time"
)

// Outcome is the final state of one module task.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// GenerationResult is produced per planned module and consumed by the writer.
type GenerationResult struct {
	ModuleID string
	Outcome  Outcome
	// Document is the summarizer markdown on success.
	Document string
	Err      error
	Attempts int
	// Removed marks a module without members; its document is deleted.
	Removed bool
	// Canceled marks tasks stopped by run cancellation.
	Canceled bool
	Duration time.Duration
}

// Succeeded reports whether the result can be committed.
func (r *GenerationResult) Succeeded() bool {
	return r != nil && r.Outcome == OutcomeSuccess
}

// Results maps module id to its generation result.
type Results map[string]*GenerationResult

// SortedIDs returns the module ids in lexicographic order.
func (rs Results) SortedIDs() []string {
	return slices.Sorted(maps.Keys(rs))
}

// Failed returns the sorted ids of failed modules.
func (rs Results) Failed() []string {
	var out []string
	for _, id := range rs.SortedIDs() {
		if !rs[id].Succeeded() {
			out = append(out, id)
		}
	}
	return out
}
