// Package state persists per-file content fingerprints and per-module
// generation metadata between runs.
//
// The JSON store is owned by exactly one run at a time. Ownership is taken
// with an in-progress marker (Lock) and the state file is replaced
// atomically (Save), so a crash never leaves a partially written state.
package state
