package walker

import (
	"reflect"
	"testing"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/diagram"
	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// fakeSem binds symbols, types and member names from maps, with the member
// name falling back to the syntax tree the way a real binder would.
type fakeSem struct {
	symbols map[*ir.Node]*ir.Symbol
	types   map[*ir.Node]ir.TypeRef
	members map[*ir.Node]string
}

func newFakeSem() *fakeSem {
	return &fakeSem{
		symbols: make(map[*ir.Node]*ir.Symbol),
		types:   make(map[*ir.Node]ir.TypeRef),
		members: make(map[*ir.Node]string),
	}
}

func (s *fakeSem) DeclaredSymbol(n *ir.Node) *ir.Symbol { return s.symbols[n] }

func (s *fakeSem) StaticTypeOf(n *ir.Node) *ir.TypeRef {
	if t, ok := s.types[n]; ok {
		return &t
	}
	return nil
}

func (s *fakeSem) InferredMemberName(n *ir.Node) (string, bool) {
	if m, ok := s.members[n]; ok {
		return m, true
	}
	switch n.Kind {
	case ir.KindMemberAccess:
		return n.Text, true
	case ir.KindInvocation:
		if len(n.Children) > 0 && n.Children[0].Kind == ir.KindMemberAccess {
			return n.Children[0].Text, true
		}
	}
	return "", false
}

// program is a small builder for hand-made source models.
type program struct {
	model *ir.Model
	sem   *fakeSem
	unit  *ir.CompilationUnit
}

func newProgram(module string) *program {
	sem := newFakeSem()
	unit := &ir.CompilationUnit{
		Path:   module + ".cs",
		Module: module,
		Root:   ir.NewNode(ir.KindUnit, ""),
	}
	return &program{
		model: &ir.Model{Units: []*ir.CompilationUnit{unit}, Language: "csharp", Semantics: sem},
		sem:   sem,
		unit:  unit,
	}
}

func (p *program) class(name string) *ir.Node {
	cls := ir.NewNode(ir.KindClass, name)
	p.unit.Root.Add(cls)
	return cls
}

func (p *program) method(cls *ir.Node, name string, body ...*ir.Node) *ir.Node {
	m := ir.NewNode(ir.KindMethod, name)
	cls.Add(m)
	m.Add(body...)
	typeRef := ir.TypeRef{Qualified: p.unit.Module + "." + cls.Text}
	p.sem.symbols[m] = &ir.Symbol{
		ID:     typeRef.Qualified + "." + name,
		Name:   name,
		Kind:   ir.SymbolMethod,
		Type:   typeRef,
		Module: p.unit.Module,
	}
	return m
}

func (p *program) constructor(cls *ir.Node, body ...*ir.Node) *ir.Node {
	c := ir.NewNode(ir.KindConstructor, cls.Text)
	cls.Add(c)
	c.Add(body...)
	return c
}

func (p *program) walk() (map[string][]string, Stats) {
	index := callindex.Build(p.model)
	w := New(p.model.Semantics, index, diagram.NewStore())
	diagrams := w.Process(p.model)
	return diagrams, w.Stats()
}

func bareCall(name string, args ...*ir.Node) *ir.Node {
	inv := ir.NewNode(ir.KindInvocation, "")
	inv.Add(ir.NewNode(ir.KindIdentifier, name))
	inv.Add(args...)
	return inv
}

func group(kind ir.NodeKind, body ...*ir.Node) *ir.Node {
	g := ir.NewNode(kind, "")
	g.Add(body...)
	return g
}

func TestEntryPointUnconditionalCall(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.method(foo, "M", bareCall("Bar"))

	diagrams, stats := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"Foo -> Foo: Bar",
		"Foo --> Foo: void",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
	if stats.EntryPoints != 1 || stats.DiagramsKept != 1 || stats.EdgesEmitted != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCallInsideIf(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.method(foo, "M", group(ir.KindIf, bareCall("Bar")))

	diagrams, _ := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"group if",
		"  Foo -> Foo: Bar",
		"  Foo --> Foo: void",
		"end",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
}

func TestEmptyBodyDiscarded(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.method(foo, "M", ir.NewNode(ir.KindStatement, ""))

	diagrams, stats := p.walk()
	if _, ok := diagrams["Asm_Foo_M"]; ok {
		t.Error("method with no resolvable calls must yield no diagram")
	}
	if stats.DiagramsDiscarded != 1 {
		t.Errorf("expected 1 discarded diagram, got %d", stats.DiagramsDiscarded)
	}
}

func TestCalledMethodSuppressed(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.method(foo, "M", bareCall("Bar"))
	p.method(foo, "N", bareCall("M"))

	diagrams, stats := p.walk()
	if _, ok := diagrams["Asm_Foo_M"]; ok {
		t.Error("method with callers must yield no diagram, regardless of body")
	}
	if _, ok := diagrams["Asm_Foo_N"]; !ok {
		t.Error("uncalled method must yield a diagram")
	}
	if stats.Suppressed != 1 {
		t.Errorf("expected 1 suppressed method, got %d", stats.Suppressed)
	}
}

func TestConstructorAlwaysSuppressed(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.constructor(foo, bareCall("Init"))

	diagrams, stats := p.walk()
	if len(diagrams) != 0 {
		t.Errorf("constructors never draw, got %v", diagrams)
	}
	if stats.Constructors != 1 {
		t.Errorf("expected 1 constructor, got %d", stats.Constructors)
	}
	if stats.EdgesEmitted != 0 {
		t.Error("suppressed traversal must emit nothing")
	}
}

func TestEmptyGroupsCollapse(t *testing.T) {
	kinds := []ir.NodeKind{ir.KindIf, ir.KindFor, ir.KindForeach, ir.KindWhile, ir.KindDoWhile}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			p := newProgram("Asm")
			foo := p.class("Foo")
			p.method(foo, "M", group(kind))

			diagrams, stats := p.walk()
			if len(diagrams) != 0 {
				t.Errorf("empty %s must collapse and discard the diagram, got %v", kind, diagrams)
			}
			if stats.GroupsCollapsed != 1 {
				t.Errorf("expected 1 collapsed group, got %d", stats.GroupsCollapsed)
			}
		})
	}
}

func TestNestedEmptyGroupsCollapseIndependently(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	// for { if { } } plus a sibling empty if: all collapse, diagram discarded.
	p.method(foo, "M",
		group(ir.KindFor, group(ir.KindIf)),
		group(ir.KindIf),
	)

	diagrams, stats := p.walk()
	if len(diagrams) != 0 {
		t.Errorf("nested and sibling empty groups must all collapse, got %v", diagrams)
	}
	if stats.GroupsCollapsed != 3 {
		t.Errorf("expected 3 collapsed groups, got %d", stats.GroupsCollapsed)
	}
}

func TestPartiallyEmptyNesting(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	// for { if {} Bar() } — the empty if vanishes, the for survives.
	p.method(foo, "M", group(ir.KindFor, group(ir.KindIf), bareCall("Bar")))

	diagrams, _ := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"group for",
		"  Foo -> Foo: Bar",
		"  Foo --> Foo: void",
		"end",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
}

func TestNestedCallInArguments(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	// Bar(Baz()): Baz's edge pair sits between Bar's call and return
	// lines, at the same indent.
	p.method(foo, "M", bareCall("Bar", bareCall("Baz")))

	diagrams, _ := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"Foo -> Foo: Bar",
		"Foo -> Foo: Baz",
		"Foo --> Foo: void",
		"Foo --> Foo: void",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
}

func TestCrossTypeCall(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")

	access := ir.NewNode(ir.KindMemberAccess, "Save")
	recv := ir.NewNode(ir.KindIdentifier, "svc")
	access.Add(recv)
	inv := ir.NewNode(ir.KindInvocation, "")
	inv.Add(access)

	p.method(foo, "M", inv)
	p.sem.types[recv] = ir.TypeRef{Qualified: "Asm.Service"}
	p.sem.types[inv] = ir.TypeRef{Qualified: "Asm.Receipt"}

	diagrams, _ := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"Foo -> Asm.Service: Save",
		"Asm.Service --> Foo: Receipt",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
}

func TestSelfReceiverRendersSimpleName(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")

	// this.Helper(): the receiver resolves to the enclosing type, so both
	// endpoints render with the simple name, matching bare calls.
	access := ir.NewNode(ir.KindMemberAccess, "Helper")
	recv := ir.NewNode(ir.KindIdentifier, "this")
	access.Add(recv)
	inv := ir.NewNode(ir.KindInvocation, "")
	inv.Add(access)

	p.method(foo, "M", inv)
	p.sem.types[recv] = ir.TypeRef{Qualified: "Asm.Foo"}

	diagrams, _ := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"Foo -> Foo: Helper",
		"Foo --> Foo: void",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
}

func TestCollidingTitleKeepsFirstDiagram(t *testing.T) {
	p := newProgram("Asm")

	// Two classes named Foo in different namespaces of one module share the
	// title Asm_Foo_M. The first diagram closes intact; the second method
	// draws nothing into it.
	one := p.class("Foo")
	m1 := p.method(one, "M", bareCall("Bar"))
	p.sem.symbols[m1].Type = ir.TypeRef{Qualified: "One.Foo"}
	p.sem.symbols[m1].ID = "One.Foo.M"

	two := p.class("Foo")
	m2 := p.method(two, "M", bareCall("Qux"))
	p.sem.symbols[m2].Type = ir.TypeRef{Qualified: "Two.Foo"}
	p.sem.symbols[m2].ID = "Two.Foo.M"

	diagrams, stats := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"Foo -> Foo: Bar",
		"Foo --> Foo: void",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
	if stats.EntryPoints != 2 {
		t.Errorf("expected 2 entry points, got %d", stats.EntryPoints)
	}
	if stats.DiagramsKept != 1 || stats.DiagramsDiscarded != 0 {
		t.Errorf("expected exactly 1 kept diagram, stats %+v", stats)
	}
}

func TestUnresolvedChainStillFindsInnerCalls(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")

	// svc.A().B(): the outer call declines (receiver is an invocation),
	// the inner svc.A() still renders.
	inner := ir.NewNode(ir.KindInvocation, "")
	innerAccess := ir.NewNode(ir.KindMemberAccess, "A")
	innerRecv := ir.NewNode(ir.KindIdentifier, "svc")
	innerAccess.Add(innerRecv)
	inner.Add(innerAccess)

	outerAccess := ir.NewNode(ir.KindMemberAccess, "B")
	outerAccess.Add(inner)
	outer := ir.NewNode(ir.KindInvocation, "")
	outer.Add(outerAccess)

	p.method(foo, "M", outer)
	p.sem.types[innerRecv] = ir.TypeRef{Qualified: "Asm.Service"}

	diagrams, stats := p.walk()
	want := []string{
		"@startuml",
		"title Asm_Foo_M",
		"autoactivate on",
		"hide footbox",
		"Foo -> Asm.Service: A",
		"Asm.Service --> Foo: void",
		"@enduml",
	}
	if got := diagrams["Asm_Foo_M"]; !reflect.DeepEqual(got, want) {
		t.Errorf("diagram:\ngot  %v\nwant %v", got, want)
	}
	if stats.UnresolvedCalls == 0 {
		t.Error("outer chained call must count as unresolved")
	}
}

func TestCallerQueryFailureSuppresses(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	m := ir.NewNode(ir.KindMethod, "M")
	foo.Add(m)
	m.Add(bareCall("Bar"))
	// No symbol bound for M: the caller query cannot be answered.

	diagrams, stats := p.walk()
	if len(diagrams) != 0 {
		t.Errorf("unbound method must not draw, got %v", diagrams)
	}
	if stats.CallerQueryFailures != 1 {
		t.Errorf("expected 1 caller query failure, got %d", stats.CallerQueryFailures)
	}
}

func TestIndentReturnsToZero(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.method(foo, "M",
		group(ir.KindFor, group(ir.KindWhile, bareCall("Bar"))),
		bareCall("Baz"),
	)

	diagrams, _ := p.walk()
	lines := diagrams["Asm_Foo_M"]
	if len(lines) == 0 {
		t.Fatal("expected a diagram")
	}
	// The trailing sibling call after deep nesting sits back at indent 0.
	found := false
	for _, l := range lines {
		if l == "Foo -> Foo: Baz" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unindented call to Baz, lines: %v", lines)
	}
}

func TestSuppressedTraversalDescends(t *testing.T) {
	p := newProgram("Asm")
	foo := p.class("Foo")
	p.method(foo, "M", group(ir.KindIf, bareCall("Helper")))
	p.method(foo, "N", bareCall("M"))

	_, stats := p.walk()
	// M is suppressed but its body is still visited; nothing is emitted
	// from it beyond N's own edge.
	if stats.EdgesEmitted != 1 {
		t.Errorf("expected exactly 1 emitted edge, got %d", stats.EdgesEmitted)
	}
}
