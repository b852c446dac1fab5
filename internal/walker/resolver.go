package walker

import "github.com/efebarandurmaz/blueprint/internal/ir"

// call renders one invocation or member access as a call edge, when the
// expression resolves under the simple-receiver rule. The call line is
// written first, then the argument sub-expressions are visited at the same
// indent (calls do not deepen indent), then the return line — a depth-first
// trace of evaluation order. Declined expressions emit nothing but all their
// sub-expressions are still visited so nested calls are found.
func (w *Walker) call(unit *ir.CompilationUnit, n *ir.Node, ctx Context) {
	if !ctx.emitting() {
		w.children(unit, n, ctx)
		return
	}

	target, ok := ir.ResolveCall(n, w.sem, ctx.enclosing)
	if !ok {
		w.stats.UnresolvedCalls++
		w.children(unit, n, ctx)
		return
	}

	caller := ctx.enclosing.Simple()
	callee := target.Type.Qualified
	if target.SameType {
		callee = target.Type.Simple()
	}

	buf := w.store.BeginOrReuse(ctx.Title)
	buf.Append(ctx.prefix() + caller + " -> " + callee + ": " + target.Member)
	w.stats.EdgesEmitted++

	for _, arg := range ir.ArgumentNodes(n) {
		w.visit(unit, arg, ctx)
	}

	buf.Append(ctx.prefix() + callee + " --> " + caller + ": " + target.Return)
}
