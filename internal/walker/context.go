package walker

import (
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// Context is the per-traversal-path state: which diagram is active, whether
// emission is suppressed, and the current indent depth. It is passed by
// value through the recursion, so every exit path — including the declined
// unresolved-call path — restores the caller's state for free.
type Context struct {
	Title      string
	Suppressed bool
	Indent     int
	enclosing  ir.TypeRef // type declaring the method being walked
}

// emitting reports whether lines may be written under this context.
func (c Context) emitting() bool {
	return c.Title != "" && !c.Suppressed
}

// prefix returns the indent prefix, two spaces per depth level.
func (c Context) prefix() string {
	return strings.Repeat("  ", c.Indent)
}

// deeper returns a copy one indent level deeper.
func (c Context) deeper() Context {
	c.Indent++
	return c
}

// suppressed returns a copy with emission disabled.
func (c Context) suppressed() Context {
	c.Suppressed = true
	return c
}
