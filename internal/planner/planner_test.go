package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codemap/internal/detector"
	"git.home.luguber.info/inful/codemap/internal/extract"
	"git.home.luguber.info/inful/codemap/internal/modules"
	"git.home.luguber.info/inful/codemap/internal/state"
)

func refs(targets ...string) *extract.Facts {
	f := &extract.Facts{}
	for _, t := range targets {
		f.Includes = append(f.Includes, extract.Include{Target: t})
	}
	return f
}

func group(t *testing.T, files []string, facts map[string]*extract.Facts) *modules.Graph {
	t.Helper()
	g, err := modules.Group(files, modules.ByDirectoryDepth(1), facts)
	require.NoError(t, err)
	return g
}

// priorFor records a successful generation of every module in g.
func priorFor(g *modules.Graph) *state.PersistentState {
	st := state.New()
	for id, m := range g.Modules {
		st.Modules[id] = &state.ModuleRecord{MemberPaths: m.Members, DependencyIDs: m.Dependencies}
		for _, f := range m.Members {
			st.Files[f] = &state.FileRecord{Module: id}
		}
	}
	return st
}

func causes(p *BuildPlan) map[string]Cause {
	out := make(map[string]Cause)
	for id, e := range p.Entries {
		out[id] = e.Cause
	}
	return out
}

var abFiles = []string{"a/x.cpp", "a/y.cpp", "b/z.cpp"}

func TestPlan_SelfChangedOnly(t *testing.T) {
	g := group(t, abFiles, nil)
	plan := Plan(Input{
		Changes: &detector.ChangeSet{Modified: []string{"a/x.cpp"}},
		Graph:   g,
		Prior:   priorFor(g),
	})
	assert.Equal(t, map[string]Cause{"a": CauseSelfChanged}, causes(plan))
	assert.Equal(t, []string{"b"}, plan.Fresh)
}

func TestPlan_DependencyChanged(t *testing.T) {
	g := group(t, abFiles, map[string]*extract.Facts{"b/z.cpp": refs("a/x.cpp")})
	plan := Plan(Input{
		Changes: &detector.ChangeSet{Modified: []string{"a/x.cpp"}},
		Graph:   g,
		Prior:   priorFor(g),
	})
	assert.Equal(t, map[string]Cause{"a": CauseSelfChanged, "b": CauseDependencyChanged}, causes(plan))
	assert.Empty(t, plan.Fresh)
	assert.Equal(t, []string{"a", "b"}, plan.SortedIDs())
}

func TestPlan_CycleTerminates(t *testing.T) {
	files := []string{"a/x.cpp", "b/z.cpp", "c/w.cpp"}
	g := group(t, files, map[string]*extract.Facts{
		"a/x.cpp": refs("b/z.cpp"),
		"b/z.cpp": refs("a/x.cpp"),
	})
	plan := Plan(Input{
		Changes: &detector.ChangeSet{Modified: []string{"a/x.cpp"}},
		Graph:   g,
		Prior:   priorFor(g),
	})
	assert.Equal(t, map[string]Cause{"a": CauseSelfChanged, "b": CauseDependencyChanged}, causes(plan))
	assert.Equal(t, 2, plan.Len())
	assert.Equal(t, []string{"c"}, plan.Fresh)
}

func TestPlan_MultiHop(t *testing.T) {
	files := []string{"a/x.cpp", "b/z.cpp", "c/w.cpp", "d/v.cpp"}
	g := group(t, files, map[string]*extract.Facts{
		"b/z.cpp": refs("a/x.cpp"),
		"c/w.cpp": refs("b/z.cpp"),
		"d/v.cpp": refs("c/w.cpp"),
	})
	plan := Plan(Input{
		Changes: &detector.ChangeSet{Modified: []string{"a/x.cpp"}},
		Graph:   g,
		Prior:   priorFor(g),
	})
	assert.Equal(t, map[string]Cause{
		"a": CauseSelfChanged,
		"b": CauseDependencyChanged,
		"c": CauseDependencyChanged,
		"d": CauseDependencyChanged,
	}, causes(plan))
}

func TestPlan_Precedence(t *testing.T) {
	g := group(t, abFiles, map[string]*extract.Facts{"b/z.cpp": refs("a/x.cpp")})
	changes := &detector.ChangeSet{Modified: []string{"a/x.cpp", "b/z.cpp"}}

	t.Run("force wins", func(t *testing.T) {
		plan := Plan(Input{Changes: changes, Graph: g, Prior: priorFor(g), Force: true})
		assert.Equal(t, map[string]Cause{"a": CauseForced, "b": CauseForced}, causes(plan))
	})

	t.Run("missing output before self-changed", func(t *testing.T) {
		prior := priorFor(g)
		delete(prior.Modules, "a")
		plan := Plan(Input{Changes: changes, Graph: g, Prior: prior})
		assert.Equal(t, map[string]Cause{"a": CauseMissingOutput, "b": CauseSelfChanged}, causes(plan))
	})

	t.Run("deleted document counts as missing", func(t *testing.T) {
		plan := Plan(Input{
			Changes:      &detector.ChangeSet{},
			Graph:        g,
			Prior:        priorFor(g),
			OutputExists: func(id string) bool { return id != "a" },
		})
		assert.Equal(t, map[string]Cause{"a": CauseMissingOutput, "b": CauseDependencyChanged}, causes(plan))
	})

	t.Run("empty prior plans everything", func(t *testing.T) {
		plan := Plan(Input{Changes: &detector.ChangeSet{}, Graph: g, Prior: nil})
		assert.Equal(t, map[string]Cause{"a": CauseMissingOutput, "b": CauseMissingOutput}, causes(plan))
		assert.Equal(t, map[Cause]int{CauseMissingOutput: 2}, plan.CountByCause())
	})
}

func TestPlan_NoChangesIsEmpty(t *testing.T) {
	g := group(t, abFiles, map[string]*extract.Facts{"b/z.cpp": refs("a/x.cpp")})
	plan := Plan(Input{Changes: &detector.ChangeSet{Unchanged: abFiles}, Graph: g, Prior: priorFor(g)})
	assert.True(t, plan.IsEmpty())
	assert.Equal(t, []string{"a", "b"}, plan.Fresh)
}

func TestPlan_RemovedFileInvalidatesFormerModule(t *testing.T) {
	before := group(t, abFiles, nil)
	prior := priorFor(before)

	after := group(t, []string{"a/x.cpp", "b/z.cpp"}, nil)
	plan := Plan(Input{
		Changes: &detector.ChangeSet{Removed: []string{"a/y.cpp"}, Unchanged: []string{"a/x.cpp", "b/z.cpp"}},
		Graph:   after,
		Prior:   prior,
	})
	assert.Equal(t, map[string]Cause{"a": CauseSelfChanged}, causes(plan))
	assert.False(t, plan.Entries["a"].Vanished)
}

func TestPlan_VanishedModule(t *testing.T) {
	before := group(t, abFiles, map[string]*extract.Facts{"b/z.cpp": refs("a/x.cpp")})
	prior := priorFor(before)

	after := group(t, []string{"b/z.cpp"}, nil)
	plan := Plan(Input{
		Changes: &detector.ChangeSet{Removed: []string{"a/x.cpp", "a/y.cpp"}, Unchanged: []string{"b/z.cpp"}},
		Graph:   after,
		Prior:   prior,
	})
	require.Contains(t, plan.Entries, "a")
	assert.Equal(t, CauseSelfChanged, plan.Entries["a"].Cause)
	assert.True(t, plan.Entries["a"].Vanished)
	assert.Equal(t, CauseDependencyChanged, plan.Entries["b"].Cause)
}

func TestPlan_LostEdgeReplansDependent(t *testing.T) {
	before := group(t, abFiles, map[string]*extract.Facts{"b/z.cpp": refs("a/y.cpp")})
	prior := priorFor(before)
	require.Equal(t, []string{"a"}, prior.Modules["b"].DependencyIDs)

	after := group(t, []string{"a/x.cpp", "b/z.cpp"}, map[string]*extract.Facts{"b/z.cpp": refs("a/y.cpp")})
	require.Empty(t, after.Modules["b"].Dependencies)

	plan := Plan(Input{
		Changes: &detector.ChangeSet{Removed: []string{"a/y.cpp"}, Unchanged: []string{"a/x.cpp", "b/z.cpp"}},
		Graph:   after,
		Prior:   prior,
	})
	assert.Equal(t, map[string]Cause{"a": CauseSelfChanged, "b": CauseDependencyChanged}, causes(plan))
	assert.Empty(t, plan.Fresh)
}

func TestPlan_NewEdgeWithoutByteChange(t *testing.T) {
	prior := priorFor(group(t, abFiles, nil))
	g := group(t, abFiles, map[string]*extract.Facts{"b/z.cpp": refs("a/x.cpp")})

	plan := Plan(Input{Changes: &detector.ChangeSet{Unchanged: abFiles}, Graph: g, Prior: prior})
	assert.Equal(t, map[string]Cause{"b": CauseDependencyChanged}, causes(plan))
}

func TestPlan_RegroupedMembership(t *testing.T) {
	files := []string{"a/b/x.cpp", "a/y.cpp"}
	prior := priorFor(group(t, files, nil))
	require.Equal(t, []string{"a/b/x.cpp", "a/y.cpp"}, prior.Modules["a"].MemberPaths)

	deeper, err := modules.Group(files, modules.ByDirectoryDepth(2), nil)
	require.NoError(t, err)
	plan := Plan(Input{Changes: &detector.ChangeSet{Unchanged: files}, Graph: deeper, Prior: prior})

	assert.Equal(t, map[string]Cause{"a": CauseSelfChanged, "a/b": CauseMissingOutput}, causes(plan))
	assert.Empty(t, plan.Fresh)
}
