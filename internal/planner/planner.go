// Package planner selects the modules that must be regenerated in a run.
package planner

import (
	"maps"
	"slices"

	"git.home.luguber.info/inful/codemap/internal/detector"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/state"
	"git.home.luguber.info/inful/codemap/internal/util/sets"
)

// Cause records why a module was planned.
type Cause string

const (
	CauseForced            Cause = "forced"
	CauseMissingOutput     Cause = "missing-output"
	CauseSelfChanged       Cause = "self-changed"
	CauseDependencyChanged Cause = "dependency-changed"
)

// Entry is one planned module.
type Entry struct {
	Cause Cause
	// Vanished is set for modules known to the prior state that no longer
	// have any member in the current graph.
	Vanished bool
}

// BuildPlan is the set of modules selected for regeneration.
type BuildPlan struct {
	Entries map[string]Entry
	// Fresh lists the sorted ids of modules left out of the plan.
	Fresh []string
}

// SortedIDs returns the planned ids in lexicographic order.
func (p *BuildPlan) SortedIDs() []string {
	return slices.Sorted(maps.Keys(p.Entries))
}

// Len returns the number of planned modules.
func (p *BuildPlan) Len() int { return len(p.Entries) }

// IsEmpty reports whether nothing needs regeneration.
func (p *BuildPlan) IsEmpty() bool { return len(p.Entries) == 0 }

// CountByCause tallies entries per cause.
func (p *BuildPlan) CountByCause() map[Cause]int {
	out := make(map[Cause]int)
	for _, e := range p.Entries {
		out[e.Cause]++
	}
	return out
}

// Input bundles everything the planner reads.
type Input struct {
	Changes *detector.ChangeSet
	Graph   *modules.Graph
	Prior   *state.PersistentState
	Force   bool
	// OutputExists reports whether a module's committed document is present.
	// Nil means every recorded module is assumed to have its document.
	OutputExists func(id string) bool
}

// Plan applies, per module and in precedence order: forced, missing-output,
// self-changed (changed bytes or membership), dependency-changed when the
// module's own edges differ from its record, then dependency-changed
// propagated to a fixed point over the dependents relation.
func Plan(in Input) *BuildPlan {
	prior := in.Prior
	if prior == nil {
		prior = state.New()
	}
	changed := sets.New[string]()
	if in.Changes != nil {
		changed = in.Changes.Changed()
	}

	plan := &BuildPlan{Entries: make(map[string]Entry)}
	for _, id := range in.Graph.SortedIDs() {
		if cause, ok := directCause(id, in, prior, changed); ok {
			plan.Entries[id] = Entry{Cause: cause}
		}
	}

	// Modules that lost every member still need their document removed.
	for _, id := range prior.KnownModules() {
		if _, ok := in.Graph.Modules[id]; ok {
			continue
		}
		cause := CauseSelfChanged
		if in.Force {
			cause = CauseForced
		}
		plan.Entries[id] = Entry{Cause: cause, Vanished: true}
	}

	propagate(plan, in.Graph, prior)

	for _, id := range in.Graph.SortedIDs() {
		if _, ok := plan.Entries[id]; !ok {
			plan.Fresh = append(plan.Fresh, id)
		}
	}
	return plan
}

func directCause(id string, in Input, prior *state.PersistentState, changed sets.Set[string]) (Cause, bool) {
	if in.Force {
		return CauseForced, true
	}
	rec, ok := prior.Modules[id]
	if !ok || (in.OutputExists != nil && !in.OutputExists(id)) {
		return CauseMissingOutput, true
	}
	m := in.Graph.Modules[id]
	for _, f := range m.Members {
		if changed.Has(f) {
			return CauseSelfChanged, true
		}
	}
	for _, f := range rec.MemberPaths {
		if changed.Has(f) {
			return CauseSelfChanged, true
		}
	}
	// Regrouping moves files between modules without touching their bytes.
	if !slices.Equal(rec.MemberPaths, m.Members) {
		return CauseSelfChanged, true
	}
	// The committed document lists the recorded edges.
	if !slices.Equal(rec.DependencyIDs, m.Dependencies) {
		return CauseDependencyChanged, true
	}
	return "", false
}

// propagate marks every module that transitively depends on a planned module.
// Each module enters the worklist at most once, so cycles terminate.
func propagate(plan *BuildPlan, g *modules.Graph, prior *state.PersistentState) {
	queue := plan.SortedIDs()
	visited := sets.New(queue...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range dependents(id, g, prior) {
			if visited.Has(dep) {
				continue
			}
			visited.Add(dep)
			if _, planned := plan.Entries[dep]; !planned {
				plan.Entries[dep] = Entry{Cause: CauseDependencyChanged}
			}
			queue = append(queue, dep)
		}
	}
}

// dependents of a live module come from the graph. A vanished module has no
// graph node, so the current modules whose prior record listed it are used.
func dependents(id string, g *modules.Graph, prior *state.PersistentState) []string {
	if m, ok := g.Modules[id]; ok {
		return m.Dependents
	}
	var out []string
	for _, other := range g.SortedIDs() {
		if rec, ok := prior.Modules[other]; ok && slices.Contains(rec.DependencyIDs, id) {
			out = append(out, other)
		}
	}
	return out
}
