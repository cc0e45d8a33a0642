package state

import (
	"maps"
	"slices"
	"time"
)

// SchemaVersion is the persisted state format understood by this build.
// Version 1 stored per-module source hash lists and is not readable.
const SchemaVersion = 2

// FileRecord tracks one included file, keyed by repo-relative slash path.
type FileRecord struct {
	Fingerprint string    `json:"fingerprint"`
	Module      string    `json:"module"`
	LastSeen    time.Time `json:"last_seen"`
}

// ModuleRecord is the metadata of a module's last successful generation.
type ModuleRecord struct {
	MemberPaths      []string          `json:"member_paths"`
	DependencyIDs    []string          `json:"dependency_ids"`
	LastFingerprints map[string]string `json:"last_fingerprints"`
	LastGeneratedAt  time.Time         `json:"last_generated_at"`
}

// PersistentState is the durable aggregate read at the start of every run.
type PersistentState struct {
	Version int                      `json:"version"`
	LastRun time.Time                `json:"last_run,omitzero"`
	Files   map[string]*FileRecord   `json:"files"`
	Modules map[string]*ModuleRecord `json:"modules"`
}

// New returns an empty state at the current schema version.
func New() *PersistentState {
	return &PersistentState{
		Version: SchemaVersion,
		Files:   make(map[string]*FileRecord),
		Modules: make(map[string]*ModuleRecord),
	}
}

// Clone returns a deep copy.
func (s *PersistentState) Clone() *PersistentState {
	out := &PersistentState{
		Version: s.Version,
		LastRun: s.LastRun,
		Files:   make(map[string]*FileRecord, len(s.Files)),
		Modules: make(map[string]*ModuleRecord, len(s.Modules)),
	}
	for p, f := range s.Files {
		fc := *f
		out.Files[p] = &fc
	}
	for id, m := range s.Modules {
		out.Modules[id] = m.Clone()
	}
	return out
}

// Clone returns a deep copy of the record.
func (m *ModuleRecord) Clone() *ModuleRecord {
	return &ModuleRecord{
		MemberPaths:      slices.Clone(m.MemberPaths),
		DependencyIDs:    slices.Clone(m.DependencyIDs),
		LastFingerprints: maps.Clone(m.LastFingerprints),
		LastGeneratedAt:  m.LastGeneratedAt,
	}
}

// Fingerprint returns the recorded fingerprint of path, if any.
func (s *PersistentState) Fingerprint(path string) (string, bool) {
	f, ok := s.Files[path]
	if !ok {
		return "", false
	}
	return f.Fingerprint, true
}

// ModuleOf returns the module the file was assigned to in the prior run.
func (s *PersistentState) ModuleOf(path string) (string, bool) {
	f, ok := s.Files[path]
	if !ok {
		return "", false
	}
	return f.Module, true
}

// KnownModules returns the recorded module ids, sorted.
func (s *PersistentState) KnownModules() []string {
	return slices.Sorted(maps.Keys(s.Modules))
}

// KnownFiles returns the recorded file paths, sorted.
func (s *PersistentState) KnownFiles() []string {
	return slices.Sorted(maps.Keys(s.Files))
}
