package csharp

import (
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// The expression parser turns one statement or condition string into ir
// expression nodes: identifiers, member accesses, invocations, literals.
// Anything else (operators, casts, lambdas, object creation, indexing) is
// wrapped in a structural KindExpr node so nested calls are still reachable.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokPunct // . , ( ) [ ]
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

func lexExpr(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(s) && (isIdentPart(s[j]) || s[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, s[i:j]})
			i = j
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(s) {
				if s[j] == '\\' {
					j += 2
					continue
				}
				if s[j] == quote {
					j++
					break
				}
				j++
			}
			toks = append(toks, token{tokString, s[i:j]})
			i = j
		case strings.IndexByte(".,()[]", c) >= 0:
			toks = append(toks, token{tokPunct, string(c)})
			i++
		default:
			j := i + 1
			for j < len(s) && strings.IndexByte("+-*/%<>=!&|^?~:", s[j]) >= 0 {
				j++
			}
			toks = append(toks, token{tokOp, s[i:j]})
			i = j
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '@' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type exprParser struct {
	toks []token
	pos  int
}

// parseExpr parses an expression string into a single node, or nil when the
// string holds nothing parseable.
func parseExpr(s string) *ir.Node {
	p := &exprParser{toks: lexExpr(s)}
	return p.expression()
}

func (p *exprParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) accept(kind tokenKind, text string) bool {
	if t, ok := p.peek(); ok && t.kind == kind && t.text == text {
		p.pos++
		return true
	}
	return false
}

// expression parses a full expression including binary operators and
// assignments. Operator chains become a flat structural node; operands keep
// their own shape.
func (p *exprParser) expression() *ir.Node {
	left := p.postfix()
	var parts []*ir.Node
	if left != nil {
		parts = append(parts, left)
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokPunct && (t.text == ")" || t.text == "]" || t.text == ",") {
			break
		}
		if t.kind == tokOp {
			p.pos++
			if right := p.postfix(); right != nil {
				parts = append(parts, right)
			}
			continue
		}
		// Unexpected token: skip it rather than stall.
		p.pos++
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return ir.NewNode(ir.KindExpr, "").Add(parts...)
	}
}

// postfix parses a primary expression followed by member accesses,
// invocations and index accesses.
func (p *exprParser) postfix() *ir.Node {
	node := p.primary()
	if node == nil {
		return nil
	}
	for {
		switch {
		case p.accept(tokPunct, "."):
			t, ok := p.peek()
			if !ok || t.kind != tokIdent {
				return node
			}
			p.pos++
			node = ir.NewNode(ir.KindMemberAccess, t.text).Add(node)
		case p.accept(tokPunct, "("):
			inv := ir.NewNode(ir.KindInvocation, "").Add(node)
			inv.Add(p.arguments(")")...)
			node = inv
		case p.accept(tokPunct, "["):
			// Indexing: not a simple receiver, but the index expressions
			// may contain calls.
			wrapped := ir.NewNode(ir.KindExpr, "").Add(node)
			wrapped.Add(p.arguments("]")...)
			node = wrapped
		default:
			return node
		}
	}
}

func (p *exprParser) primary() *ir.Node {
	t, ok := p.peek()
	if !ok {
		return nil
	}
	switch {
	case t.kind == tokIdent && t.text == "new":
		p.pos++
		return p.objectCreation()
	case t.kind == tokIdent:
		p.pos++
		return ir.NewNode(ir.KindIdentifier, t.text)
	case t.kind == tokNumber || t.kind == tokString:
		p.pos++
		return ir.NewNode(ir.KindLiteral, t.text)
	case t.kind == tokPunct && t.text == "(":
		p.pos++
		inner := p.arguments(")")
		// Parenthesized expressions and casts are not simple receivers;
		// keep their contents visible for nested calls.
		return ir.NewNode(ir.KindExpr, "").Add(inner...)
	default:
		return nil
	}
}

// objectCreation parses "new Type(args)". Constructors never render, so the
// creation collapses to a structural node holding the argument expressions.
func (p *exprParser) objectCreation() *ir.Node {
	for {
		if t, ok := p.peek(); ok && t.kind == tokIdent {
			p.pos++
			if p.accept(tokPunct, ".") {
				continue
			}
		}
		break
	}
	node := ir.NewNode(ir.KindExpr, "new")
	if p.accept(tokPunct, "(") {
		node.Add(p.arguments(")")...)
	}
	return node
}

// arguments parses a comma-separated expression list up to the closing
// delimiter.
func (p *exprParser) arguments(close string) []*ir.Node {
	var args []*ir.Node
	for {
		t, ok := p.peek()
		if !ok {
			return args
		}
		if t.kind == tokPunct && t.text == close {
			p.pos++
			return args
		}
		if t.kind == tokPunct && t.text == "," {
			p.pos++
			continue
		}
		if e := p.expression(); e != nil {
			args = append(args, e)
		} else {
			p.pos++
		}
	}
}
