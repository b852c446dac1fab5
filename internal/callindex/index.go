// Package callindex precomputes the whole-program caller index: for every
// callable symbol, the set of call sites that reach it. The index is built
// exactly once before the walk and read-only afterwards, so entry-point
// detection never re-scans the program per method.
package callindex

import (
	"sort"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// Edge is one resolved caller -> callee relationship.
type Edge struct {
	CallerID string `json:"caller_id"`
	CalleeID string `json:"callee_id"`
	Module   string `json:"module"`
}

// Index maps symbol IDs to the call sites targeting them.
type Index struct {
	sites map[string][]ir.CallSite
	edges []Edge
}

// Build traverses every compilation unit once and records a call site for
// each invocation or member access that resolves under the simple-receiver
// rule. Unresolvable expressions contribute nothing but their children are
// still scanned.
func Build(m *ir.Model) *Index {
	ix := &Index{sites: make(map[string][]ir.CallSite)}
	if m == nil || m.Semantics == nil {
		return ix
	}
	for _, unit := range m.Units {
		if unit.Root != nil {
			ix.scan(unit, unit.Root, m.Semantics, scope{})
		}
	}
	return ix
}

// scope is the declaration context a call site is recorded under.
type scope struct {
	enclosing ir.TypeRef
	member    string
	memberID  string
}

func (ix *Index) scan(unit *ir.CompilationUnit, n *ir.Node, sem ir.SemanticModel, sc scope) {
	switch n.Kind {
	case ir.KindClass:
		sc.enclosing = classType(n, unit)
	case ir.KindMethod, ir.KindConstructor:
		sc.member = n.Text
		sc.memberID = sc.enclosing.Qualified + "." + n.Text
	case ir.KindInvocation, ir.KindMemberAccess:
		if target, ok := ir.ResolveCall(n, sem, sc.enclosing); ok {
			id := target.SymbolID()
			ix.sites[id] = append(ix.sites[id], ir.CallSite{
				Module: unit.Module,
				Type:   sc.enclosing.Qualified,
				Member: sc.member,
				Path:   unit.Path,
			})
			if sc.memberID != "" {
				ix.edges = append(ix.edges, Edge{
					CallerID: sc.memberID,
					CalleeID: id,
					Module:   unit.Module,
				})
			}
			// A resolved call descends only into its arguments; scanning
			// the callee again would record the same site twice.
			for _, arg := range ir.ArgumentNodes(n) {
				ix.scan(unit, arg, sem, sc)
			}
			return
		}
	}
	for _, c := range n.Children {
		ix.scan(unit, c, sem, sc)
	}
}

// Callers returns the call sites targeting the symbol, empty when none.
func (ix *Index) Callers(symbolID string) []ir.CallSite {
	return ix.sites[symbolID]
}

// HasCallers reports whether at least one call site targets the symbol.
func (ix *Index) HasCallers(symbolID string) bool {
	return len(ix.sites[symbolID]) > 0
}

// Edges returns all resolved caller -> callee edges in program order.
func (ix *Index) Edges() []Edge {
	return ix.edges
}

// Size returns the number of distinct called symbols.
func (ix *Index) Size() int {
	return len(ix.sites)
}

// EntryPoints returns the IDs of methods with no recorded callers, sorted.
// Constructors and unbound methods are never entry points.
func (ix *Index) EntryPoints(m *ir.Model) []string {
	if m == nil || m.Semantics == nil {
		return nil
	}
	var ids []string
	seen := make(map[string]bool)
	for _, unit := range m.Units {
		if unit.Root == nil {
			continue
		}
		var walk func(n *ir.Node)
		walk = func(n *ir.Node) {
			if n.Kind == ir.KindMethod {
				if sym := m.Semantics.DeclaredSymbol(n); sym != nil &&
					sym.Kind == ir.SymbolMethod && !ix.HasCallers(sym.ID) && !seen[sym.ID] {
					seen[sym.ID] = true
					ids = append(ids, sym.ID)
				}
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(unit.Root)
	}
	sort.Strings(ids)
	return ids
}

func classType(n *ir.Node, unit *ir.CompilationUnit) ir.TypeRef {
	if ns := n.Ancestor(ir.KindNamespace); ns != nil && ns.Text != "" {
		return ir.TypeRef{Qualified: ns.Text + "." + n.Text}
	}
	if unit.Module != "" {
		return ir.TypeRef{Qualified: unit.Module + "." + n.Text}
	}
	return ir.TypeRef{Qualified: n.Text}
}
