package ir

// CallTarget is the resolution of a call-like expression: which type and
// member the call lands on, and what the expression evaluates to.
type CallTarget struct {
	Type     TypeRef
	Member   string
	Return   string // simple type name, "void" when the expression has no type
	SameType bool   // call stays on the enclosing type
}

// SymbolID returns the whole-program key for the target member.
func (t CallTarget) SymbolID() string {
	return t.Type.Qualified + "." + t.Member
}

// ResolveCall resolves an invocation or member-access expression against the
// semantic model. enclosing is the type declaring the code being visited.
//
// Only expressions whose receiver is a single bare identifier resolve:
//   - the identifier has no static type: it names a member of the enclosing
//     type, so the call is a same-type call with the identifier's text as
//     the member name;
//   - the identifier's static type is a named type: cross-type call, member
//     name from the semantic model's inference;
//   - anything else (chained accesses, literals, calls returning calls)
//     declines. Declined expressions emit nothing but their sub-expressions
//     are still visited by the caller so nested calls are found.
func ResolveCall(n *Node, sem SemanticModel, enclosing TypeRef) (CallTarget, bool) {
	recv, ok := receiverIdentifier(n)
	if !ok {
		return CallTarget{}, false
	}

	var target CallTarget
	if t := sem.StaticTypeOf(recv); t == nil {
		target = CallTarget{Type: enclosing, Member: recv.Text, SameType: true}
	} else if t.Qualified != "" {
		member, ok := sem.InferredMemberName(n)
		if !ok {
			// No member name for a typed receiver (indexer or unusual
			// member shape): decline rather than emit an empty member.
			return CallTarget{}, false
		}
		target = CallTarget{Type: *t, Member: member, SameType: t.Qualified == enclosing.Qualified}
	} else {
		return CallTarget{}, false
	}

	target.Return = "void"
	if rt := sem.StaticTypeOf(n); rt != nil && rt.Qualified != "" {
		target.Return = rt.Simple()
	}
	return target, true
}

// receiverIdentifier isolates the single bare identifier a call-like
// expression is made through, if it has that shape.
func receiverIdentifier(n *Node) (*Node, bool) {
	switch n.Kind {
	case KindInvocation:
		if len(n.Children) == 0 {
			return nil, false
		}
		callee := n.Children[0]
		switch callee.Kind {
		case KindIdentifier:
			return callee, true
		case KindMemberAccess:
			if len(callee.Children) == 1 && callee.Children[0].Kind == KindIdentifier {
				return callee.Children[0], true
			}
		}
	case KindMemberAccess:
		if len(n.Children) == 1 && n.Children[0].Kind == KindIdentifier {
			return n.Children[0], true
		}
	}
	return nil, false
}

// ArgumentNodes returns the sub-expressions visited between the call line
// and the return line of a resolved call: the invocation's arguments.
// Bare member accesses have none.
func ArgumentNodes(n *Node) []*Node {
	if n.Kind == KindInvocation && len(n.Children) > 1 {
		return n.Children[1:]
	}
	return nil
}
