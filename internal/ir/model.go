// Package ir is the source model consumed by the diagram walker: a syntax
// tree per compilation unit plus the semantic queries (declared symbols,
// expression types, member names) that source plugins bind during parsing.
package ir

// Model is the whole-program source model produced by a source plugin.
type Model struct {
	Units     []*CompilationUnit `json:"units"`
	Language  string             `json:"language"`
	Semantics SemanticModel      `json:"-"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// CompilationUnit is one parsed source file.
type CompilationUnit struct {
	Path   string `json:"path"`
	Module string `json:"module"`
	Root   *Node  `json:"-"`
}

// TypeRef names a type by its fully qualified name.
type TypeRef struct {
	Qualified string `json:"qualified"`
}

// Simple returns the last segment of the qualified name.
func (t TypeRef) Simple() string {
	for i := len(t.Qualified) - 1; i >= 0; i-- {
		if t.Qualified[i] == '.' {
			return t.Qualified[i+1:]
		}
	}
	return t.Qualified
}

// SymbolKind classifies declared symbols.
type SymbolKind string

const (
	SymbolMethod      SymbolKind = "method"
	SymbolConstructor SymbolKind = "constructor"
	SymbolField       SymbolKind = "field"
	SymbolType        SymbolKind = "type"
)

// Symbol is a declared program element. ID is the stable whole-program key
// {qualified-type}.{member}, shared between declarations and call sites.
type Symbol struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Kind   SymbolKind `json:"kind"`
	Type   TypeRef    `json:"type"`   // declaring type
	Module string     `json:"module"` // containing module name
}

// CallSite records one resolved call to a symbol.
type CallSite struct {
	Module string `json:"module"`
	Type   string `json:"type"`   // caller's declaring type, qualified
	Member string `json:"member"` // caller method name, empty at type scope
	Path   string `json:"path"`
}

// SemanticModel answers semantic questions about nodes of one Model. Source
// plugins bind these answers while parsing; the walker and the caller index
// only ever read them.
type SemanticModel interface {
	// DeclaredSymbol returns the symbol a declaration node introduces, or
	// nil when the declaration cannot be bound.
	DeclaredSymbol(n *Node) *Symbol
	// StaticTypeOf returns the static type of an expression node, or nil
	// when the expression has no resolvable type.
	StaticTypeOf(n *Node) *TypeRef
	// InferredMemberName returns the member a member-access or invocation
	// refers to (method, property getter, indexer as applicable).
	InferredMemberName(n *Node) (string, bool)
}
