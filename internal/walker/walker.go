// Package walker turns a source model into PlantUML sequence diagram text.
// It decides entry points from the precomputed caller index, opens and
// finalizes diagrams in the store, and dispatches each node kind to the
// control-flow grouper or the call edge resolver.
package walker

import (
	"fmt"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/diagram"
	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// Stats counts what one walk did. Copied into the run metrics afterwards.
type Stats struct {
	MethodsSeen         int `json:"methods_seen"`
	EntryPoints         int `json:"entry_points"`
	Suppressed          int `json:"suppressed"`
	Constructors        int `json:"constructors"`
	CallerQueryFailures int `json:"caller_query_failures"`
	EdgesEmitted        int `json:"edges_emitted"`
	UnresolvedCalls     int `json:"unresolved_calls"`
	GroupsCollapsed     int `json:"groups_collapsed"`
	DiagramsKept        int `json:"diagrams_kept"`
	DiagramsDiscarded   int `json:"diagrams_discarded"`
}

// Add accumulates another walker's counters, used when per-worker walkers
// are merged after a concurrent run.
func (s *Stats) Add(o Stats) {
	s.MethodsSeen += o.MethodsSeen
	s.EntryPoints += o.EntryPoints
	s.Suppressed += o.Suppressed
	s.Constructors += o.Constructors
	s.CallerQueryFailures += o.CallerQueryFailures
	s.EdgesEmitted += o.EdgesEmitted
	s.UnresolvedCalls += o.UnresolvedCalls
	s.GroupsCollapsed += o.GroupsCollapsed
	s.DiagramsKept += o.DiagramsKept
	s.DiagramsDiscarded += o.DiagramsDiscarded
}

// Walker traverses compilation units depth-first and writes diagram text
// into a store it owns for the duration of one walk. A Walker is not safe
// for concurrent use; concurrent runs use one Walker per worker and merge
// the stores.
type Walker struct {
	sem   ir.SemanticModel
	index *callindex.Index
	store *diagram.Store
	stats Stats
}

// New creates a walker over the given semantics and caller index, writing
// into store.
func New(sem ir.SemanticModel, index *callindex.Index, store *diagram.Store) *Walker {
	return &Walker{sem: sem, index: index, store: store}
}

// Walk traverses one compilation unit.
func (w *Walker) Walk(unit *ir.CompilationUnit) {
	if unit == nil || unit.Root == nil {
		return
	}
	w.visit(unit, unit.Root, Context{})
}

// Process walks every unit of the model into the walker's store and returns
// the finished diagrams.
func (w *Walker) Process(m *ir.Model) map[string][]string {
	for _, unit := range m.Units {
		w.Walk(unit)
	}
	return w.store.Diagrams()
}

// Stats returns the counters accumulated so far.
func (w *Walker) Stats() Stats {
	return w.stats
}

// visit dispatches one node. Unhandled kinds recurse structurally.
func (w *Walker) visit(unit *ir.CompilationUnit, n *ir.Node, ctx Context) {
	switch n.Kind {
	case ir.KindMethod:
		w.method(unit, n, ctx)
	case ir.KindConstructor:
		// Constructors never draw, regardless of caller count.
		w.stats.Constructors++
		w.children(unit, n, ctx.suppressed())
	case ir.KindIf, ir.KindFor, ir.KindForeach, ir.KindWhile, ir.KindDoWhile:
		w.group(unit, n, ctx)
	case ir.KindInvocation, ir.KindMemberAccess:
		w.call(unit, n, ctx)
	default:
		w.children(unit, n, ctx)
	}
}

func (w *Walker) children(unit *ir.CompilationUnit, n *ir.Node, ctx Context) {
	for _, c := range n.Children {
		w.visit(unit, c, ctx)
	}
}

// method opens a diagram when the method has no discovered callers anywhere
// in the program; otherwise its body is visited suppressed so nested
// constructs emit nothing.
func (w *Walker) method(unit *ir.CompilationUnit, n *ir.Node, ctx Context) {
	w.stats.MethodsSeen++

	sym := w.sem.DeclaredSymbol(n)
	if sym == nil {
		// The caller query cannot be answered for an unbound method.
		// Conservatively treat it as called: visit suppressed, draw
		// nothing, never abort the walk.
		w.stats.CallerQueryFailures++
		w.children(unit, n, ctx.suppressed())
		return
	}
	if w.index.HasCallers(sym.ID) {
		w.stats.Suppressed++
		w.children(unit, n, ctx.suppressed())
		return
	}

	w.stats.EntryPoints++
	title := fmt.Sprintf("%s_%s_%s", unit.Module, sym.Type.Simple(), n.Text)
	if w.store.Finalized(title) {
		// Same-named types in different namespaces of one module collide on
		// the title. The first diagram is already closed; anything appended
		// now would land after its end marker, so this body walks suppressed.
		w.children(unit, n, ctx.suppressed())
		return
	}
	buf := w.store.BeginOrReuse(title)
	if buf.Len() == 0 {
		buf.Append("@startuml")
		buf.Append("title " + title)
		buf.Append("autoactivate on")
		buf.Append("hide footbox")
	}

	w.children(unit, n, Context{Title: title, enclosing: sym.Type})

	if w.store.Finalize(title) {
		w.stats.DiagramsKept++
	} else {
		w.stats.DiagramsDiscarded++
	}
}
