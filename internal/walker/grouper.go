package walker

import "github.com/efebarandurmaz/blueprint/internal/ir"

// groupKinds maps control-flow node kinds to their group tag in the output.
var groupKinds = map[ir.NodeKind]string{
	ir.KindIf:      "if",
	ir.KindFor:     "for",
	ir.KindForeach: "foreach",
	ir.KindWhile:   "while",
	ir.KindDoWhile: "dowhile",
}

// group brackets the rendered body of a loop or conditional between
// "group <kind>" and "end", both at the indent active before the block, with
// the body one level deeper. If the body contributed nothing the opening
// line is retracted instead of writing "end", leaving no trace. Because the
// retract compares only the single most recent line and emission is strictly
// append-only in nesting order, nested and sibling empty blocks each
// collapse independently.
func (w *Walker) group(unit *ir.CompilationUnit, n *ir.Node, ctx Context) {
	if !ctx.emitting() {
		w.children(unit, n, ctx)
		return
	}

	buf := w.store.BeginOrReuse(ctx.Title)
	opening := ctx.prefix() + "group " + groupKinds[n.Kind]
	buf.Append(opening)

	w.children(unit, n, ctx.deeper())

	if buf.RetractIfLast(opening) {
		w.stats.GroupsCollapsed++
		return
	}
	buf.Append(ctx.prefix() + "end")
}
