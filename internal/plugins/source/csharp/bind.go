package csharp

import (
	"sort"
	"strings"
	"unicode"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// The binder runs after every file is scanned. With the whole-program type
// table in hand it annotates nodes with declared symbols and static types:
// locals and fields get their declared type, bare identifiers naming methods
// of the enclosing type stay untyped, known type names become static
// receivers, and member accesses and invocations get their member's type.

type binder struct {
	files    []*fileParse
	types    map[string]*typeDecl // qualified name -> decl
	bySimple map[string][]*typeDecl
	sem      *semantics
}

// semantics is the bound semantic model handed to the walker.
type semantics struct {
	symbols map[*ir.Node]*ir.Symbol
	types   map[*ir.Node]ir.TypeRef
}

func (s *semantics) DeclaredSymbol(n *ir.Node) *ir.Symbol { return s.symbols[n] }

func (s *semantics) StaticTypeOf(n *ir.Node) *ir.TypeRef {
	if t, ok := s.types[n]; ok {
		return &t
	}
	return nil
}

// InferredMemberName reads the member a call-like node refers to from the
// expression shape. The scanner stores member names on the nodes, so
// inference never depends on type resolution succeeding.
func (s *semantics) InferredMemberName(n *ir.Node) (string, bool) {
	switch n.Kind {
	case ir.KindMemberAccess:
		if n.Text != "" {
			return n.Text, true
		}
	case ir.KindInvocation:
		if len(n.Children) == 0 {
			return "", false
		}
		switch callee := n.Children[0]; callee.Kind {
		case ir.KindIdentifier, ir.KindMemberAccess:
			if callee.Text != "" {
				return callee.Text, true
			}
		}
	}
	return "", false
}

// builtinTypes maps C# keywords and common BCL names to qualified types.
var builtinTypes = map[string]string{
	"string":  "System.String",
	"int":     "System.Int32",
	"long":    "System.Int64",
	"short":   "System.Int16",
	"byte":    "System.Byte",
	"uint":    "System.UInt32",
	"ulong":   "System.UInt64",
	"bool":    "System.Boolean",
	"double":  "System.Double",
	"float":   "System.Single",
	"decimal": "System.Decimal",
	"char":    "System.Char",
	"object":  "System.Object",
	"Task":    "System.Threading.Tasks.Task",
}

// staticReceivers are BCL types commonly used through static members. An
// identifier resolving here becomes a typed receiver even without a source
// declaration.
var staticReceivers = map[string]string{
	"Console":     "System.Console",
	"Math":        "System.Math",
	"Convert":     "System.Convert",
	"Environment": "System.Environment",
	"Guid":        "System.Guid",
	"DateTime":    "System.DateTime",
	"String":      "System.String",
	"Task":        "System.Threading.Tasks.Task",
	"File":        "System.IO.File",
	"Directory":   "System.IO.Directory",
	"Path":        "System.IO.Path",
}

// bind builds the type table across all parsed files and annotates every
// declaration and expression node.
func bind(files []*fileParse) *semantics {
	b := &binder{
		files:    files,
		types:    make(map[string]*typeDecl),
		bySimple: make(map[string][]*typeDecl),
		sem: &semantics{
			symbols: make(map[*ir.Node]*ir.Symbol),
			types:   make(map[*ir.Node]ir.TypeRef),
		},
	}
	for _, f := range files {
		for _, td := range f.types {
			b.types[td.qualified()] = td
			b.bySimple[td.name] = append(b.bySimple[td.name], td)
		}
	}
	for _, cands := range b.bySimple {
		sort.Slice(cands, func(i, j int) bool { return cands[i].qualified() < cands[j].qualified() })
	}
	for _, f := range files {
		for _, td := range f.types {
			b.bindType(td, f.unit.Module)
		}
	}
	return b.sem
}

func (b *binder) bindType(td *typeDecl, module string) {
	qualified := td.qualified()
	b.sem.symbols[td.node] = &ir.Symbol{
		ID:     qualified,
		Name:   td.name,
		Kind:   ir.SymbolType,
		Type:   ir.TypeRef{Qualified: qualified},
		Module: module,
	}
	for _, md := range td.methods {
		kind := ir.SymbolMethod
		if md.ctor {
			kind = ir.SymbolConstructor
		}
		b.sem.symbols[md.node] = &ir.Symbol{
			ID:     qualified + "." + md.name,
			Name:   md.name,
			Kind:   kind,
			Type:   ir.TypeRef{Qualified: qualified},
			Module: module,
		}
		b.bindNode(md.node, td, md)
	}
	// Field initializers and property accessor bodies hang off the class
	// node directly.
	for _, child := range td.node.Children {
		if _, bound := b.sem.symbols[child]; !bound {
			b.bindNode(child, td, nil)
		}
	}
}

// bindNode annotates a subtree bottom-up so receivers are typed before the
// expressions built on them.
func (b *binder) bindNode(n *ir.Node, td *typeDecl, md *methodDecl) {
	for _, c := range n.Children {
		b.bindNode(c, td, md)
	}
	switch n.Kind {
	case ir.KindIdentifier:
		b.bindIdent(n, td, md)
	case ir.KindMemberAccess:
		b.bindAccess(n, td)
	case ir.KindInvocation:
		b.bindInvocation(n, td)
	}
}

// bindIdent types an identifier. Lookup order: locals and parameters, then
// fields, then methods of the enclosing type (left untyped so they resolve
// as same-type members), then known type names as static receivers.
func (b *binder) bindIdent(n *ir.Node, td *typeDecl, md *methodDecl) {
	if n.Text == "this" {
		b.setType(n, td.qualified())
		return
	}
	if md != nil {
		if declared, ok := md.locals[n.Text]; ok {
			b.setType(n, b.resolveType(declared, td.ns))
			return
		}
	}
	if declared, ok := td.fields[n.Text]; ok {
		b.setType(n, b.resolveType(declared, td.ns))
		return
	}
	if _, ok := td.methods[n.Text]; ok {
		return
	}
	b.setType(n, b.resolveStatic(n.Text, td.ns))
}

func (b *binder) bindAccess(n *ir.Node, td *typeDecl) {
	if len(n.Children) != 1 {
		return
	}
	if recv, ok := b.sem.types[n.Children[0]]; ok {
		b.setType(n, b.lookupMember(recv.Qualified, n.Text))
	}
}

func (b *binder) bindInvocation(n *ir.Node, td *typeDecl) {
	if len(n.Children) == 0 {
		return
	}
	switch callee := n.Children[0]; callee.Kind {
	case ir.KindIdentifier:
		if md, ok := td.methods[callee.Text]; ok {
			b.setType(n, b.resolveType(md.returnType, td.ns))
		}
	case ir.KindMemberAccess:
		if len(callee.Children) != 1 {
			return
		}
		if recv, ok := b.sem.types[callee.Children[0]]; ok {
			b.setType(n, b.lookupMember(recv.Qualified, callee.Text))
		}
	}
}

func (b *binder) setType(n *ir.Node, qualified string) {
	if qualified != "" {
		b.sem.types[n] = ir.TypeRef{Qualified: qualified}
	}
}

// lookupMember returns the resolved type of a member of the given type, or
// "" when the type is external or the member is void or unknown.
func (b *binder) lookupMember(qualified, member string) string {
	td, ok := b.types[qualified]
	if !ok {
		return ""
	}
	if md, ok := td.methods[member]; ok {
		return b.resolveType(md.returnType, td.ns)
	}
	if declared, ok := td.fields[member]; ok {
		return b.resolveType(declared, td.ns)
	}
	return ""
}

// resolveType maps a declared type text to a qualified name. Nullable and
// array suffixes and generic arguments are stripped first; a generic type
// resolves by its base name.
func (b *binder) resolveType(text, ns string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "?")
	for strings.HasSuffix(text, "[]") {
		text = strings.TrimSpace(strings.TrimSuffix(text, "[]"))
	}
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}
	if text == "" || text == "var" || text == "void" {
		return ""
	}
	if q, ok := builtinTypes[text]; ok {
		return q
	}
	if td, ok := b.types[text]; ok {
		return td.qualified()
	}
	if cands := b.bySimple[text]; len(cands) > 0 {
		for _, c := range cands {
			if c.ns == ns {
				return c.qualified()
			}
		}
		return cands[0].qualified()
	}
	// Unknown but plausibly a type name: keep it as an external type so
	// calls through it still produce cross-type edges.
	if r := []rune(text)[0]; unicode.IsUpper(r) && !strings.ContainsAny(text, " ,") {
		return text
	}
	return ""
}

// resolveStatic types an identifier that names a type rather than a value.
func (b *binder) resolveStatic(name, ns string) string {
	if td, ok := b.types[name]; ok {
		return td.qualified()
	}
	if cands := b.bySimple[name]; len(cands) > 0 {
		for _, c := range cands {
			if c.ns == ns {
				return c.qualified()
			}
		}
		return cands[0].qualified()
	}
	return staticReceivers[name]
}
