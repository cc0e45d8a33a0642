package docs

import (
	"slices"
	"time"

	"git.home.luguber.info/inful/codemap/internal/build"
	"git.home.luguber.info/inful/codemap/internal/detector"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/state"
)

// NextState derives the state to persist after a run. Successful modules
// replace their records, removed modules are dropped, and modules whose
// generation failed keep their prior records unchanged.
func NextState(results build.Results, g *modules.Graph, prior *state.PersistentState, changes *detector.ChangeSet, now time.Time) *state.PersistentState {
	if prior == nil {
		prior = state.New()
	}
	next := prior.Clone()
	next.Version = state.SchemaVersion
	next.LastRun = now

	for _, id := range results.SortedIDs() {
		r := results[id]
		if !r.Succeeded() {
			continue
		}
		if old, ok := prior.Modules[id]; ok {
			for _, p := range old.MemberPaths {
				if _, still := changes.Current[p]; !still {
					delete(next.Files, p)
				}
			}
		}
		m, inGraph := g.Modules[id]
		if r.Removed || !inGraph || len(m.Members) == 0 {
			delete(next.Modules, id)
			continue
		}
		rec := &state.ModuleRecord{
			MemberPaths:      slices.Clone(m.Members),
			DependencyIDs:    slices.Clone(m.Dependencies),
			LastFingerprints: make(map[string]string, len(m.Members)),
			LastGeneratedAt:  now,
		}
		if rec.DependencyIDs == nil {
			rec.DependencyIDs = []string{}
		}
		for _, p := range m.Members {
			fp := changes.Current[p]
			rec.LastFingerprints[p] = fp
			next.Files[p] = &state.FileRecord{Fingerprint: fp, Module: id, LastSeen: now}
		}
		next.Modules[id] = rec
	}
	return next
}
