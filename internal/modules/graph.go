// Package modules partitions the included files into documentation modules
// and derives the module dependency graph from extracted cross-references.
package modules

import (
	"maps"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/codemap/internal/extract"
	"git.home.luguber.info/inful/codemap/internal/util/sets"
)

// Status is the transient generation status of a module.
type Status string

const (
	StatusFresh   Status = "fresh"
	StatusStale   Status = "stale"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Module is one documentation unit.
type Module struct {
	ID string
	// Members are sorted repo-relative paths.
	Members []string
	// Dependencies are the sorted ids this module references.
	Dependencies []string
	// Dependents are the sorted ids referencing this module.
	Dependents []string
}

// Edge is a directed dependency: From references To.
type Edge struct {
	From string
	To   string
}

// Graph is the grouping result.
type Graph struct {
	Modules    map[string]*Module
	FileModule map[string]string
	// Unresolved counts cross-references dropped because no included file matched.
	Unresolved int
}

// Group partitions files with strategy and wires module edges from facts.
// The result does not depend on the order of files.
func Group(files []string, strategy Strategy, facts map[string]*extract.Facts) (*Graph, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	sorted := slices.Clone(files)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	g := &Graph{
		Modules:    make(map[string]*Module),
		FileModule: make(map[string]string, len(sorted)),
	}
	for _, f := range sorted {
		id := strategy.ModuleID(f)
		m, ok := g.Modules[id]
		if !ok {
			m = &Module{ID: id}
			g.Modules[id] = m
		}
		m.Members = append(m.Members, f)
		g.FileModule[f] = id
	}

	res := newResolver(sorted)
	deps := make(map[string]sets.Set[string])
	for _, f := range sorted {
		from := g.FileModule[f]
		for _, ref := range facts[f].CrossReferences() {
			target, ok := res.resolve(f, ref)
			if !ok {
				g.Unresolved++
				continue
			}
			to := g.FileModule[target]
			if to == from {
				continue
			}
			if deps[from] == nil {
				deps[from] = sets.New[string]()
			}
			deps[from].Add(to)
		}
	}

	dependents := make(map[string]sets.Set[string])
	for from, tos := range deps {
		g.Modules[from].Dependencies = sets.Sorted(tos)
		for to := range tos {
			if dependents[to] == nil {
				dependents[to] = sets.New[string]()
			}
			dependents[to].Add(from)
		}
	}
	for to, froms := range dependents {
		g.Modules[to].Dependents = sets.Sorted(froms)
	}
	return g, nil
}

// SortedIDs returns all module ids in lexicographic order.
func (g *Graph) SortedIDs() []string {
	return slices.Sorted(maps.Keys(g.Modules))
}

// Edges returns every dependency edge sorted by (From, To).
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, id := range g.SortedIDs() {
		for _, to := range g.Modules[id].Dependencies {
			out = append(out, Edge{From: id, To: to})
		}
	}
	return out
}

// DependentsOf returns the modules that reference id.
func (g *Graph) DependentsOf(id string) []string {
	if m, ok := g.Modules[id]; ok {
		return m.Dependents
	}
	return nil
}

// resolver maps a cross-reference from a source file to an included file.
type resolver struct {
	files []string
	set   sets.Set[string]
	// dirs maps a directory to its lexicographically smallest file.
	dirs map[string]string
}

func newResolver(sorted []string) *resolver {
	r := &resolver{files: sorted, set: sets.New(sorted...), dirs: make(map[string]string)}
	for _, f := range sorted {
		d := path.Dir(f)
		if _, ok := r.dirs[d]; !ok {
			r.dirs[d] = f
		}
	}
	return r
}

// resolve tries, in order: the exact path, the path relative to the
// referencing file, a unique suffix match, then a directory match for
// package-style imports. Ties pick the lexicographically smallest file.
func (r *resolver) resolve(from, ref string) (string, bool) {
	ref = strings.ReplaceAll(ref, "\\", "/")
	if clean := path.Clean(ref); r.set.Has(clean) {
		return clean, true
	}
	if rel := path.Join(path.Dir(from), ref); r.set.Has(rel) {
		return rel, true
	}
	suffix := "/" + strings.TrimPrefix(path.Clean(ref), "./")
	for _, f := range r.files {
		if strings.HasSuffix(f, suffix) {
			return f, true
		}
	}

	best := ""
	for d := range r.dirs {
		if d == "." || !(ref == d || strings.HasSuffix(ref, "/"+d)) {
			continue
		}
		if len(d) > len(best) || (len(d) == len(best) && d < best) {
			best = d
		}
	}
	if best != "" {
		return r.dirs[best], true
	}
	return "", false
}
