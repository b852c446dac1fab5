package ir

// NodeKind is the closed set of syntactic kinds the walker dispatches on.
// Anything a source plugin cannot classify is KindExpr or KindStatement and
// is visited structurally.
type NodeKind string

const (
	KindUnit        NodeKind = "unit"
	KindNamespace   NodeKind = "namespace"
	KindClass       NodeKind = "class"
	KindMethod      NodeKind = "method"
	KindConstructor NodeKind = "constructor"

	KindIf      NodeKind = "if"
	KindFor     NodeKind = "for"
	KindForeach NodeKind = "foreach"
	KindWhile   NodeKind = "while"
	KindDoWhile NodeKind = "dowhile"

	KindInvocation   NodeKind = "invocation"
	KindMemberAccess NodeKind = "member_access"
	KindIdentifier   NodeKind = "identifier"
	KindLiteral      NodeKind = "literal"

	KindStatement NodeKind = "statement"
	KindExpr      NodeKind = "expr"
)

// Node is one syntax tree node.
//
// Shapes the walker relies on:
//   - method/constructor: Text is the member name, Children the body.
//   - invocation: Children[0] is the callee expression (identifier or
//     member access), Children[1:] are the argument expressions.
//   - member_access: Text is the member name, Children[0] the receiver.
//   - if/for/foreach/while/dowhile: Children are the condition expressions
//     followed by the body statements.
type Node struct {
	Kind     NodeKind
	Text     string
	Children []*Node
	Parent   *Node
}

// NewNode creates a detached node.
func NewNode(kind NodeKind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

// Add appends children, wiring their parent pointers.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Ancestor returns the nearest enclosing ancestor of the given kind, or nil.
func (n *Node) Ancestor(kind NodeKind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}
