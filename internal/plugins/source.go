// Package plugins defines the source plugin surface: a plugin parses files
// of one language into the ir source model, binding semantics as it goes.
package plugins

import (
	"context"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// SourceFile represents a single input file to be parsed.
type SourceFile struct {
	Path    string
	Content []byte
}

// SourcePlugin parses source language files into a bound source model.
type SourcePlugin interface {
	// Language returns the source language identifier (e.g. "csharp").
	Language() string
	// Parse converts source files into a Model with Semantics bound.
	Parse(ctx context.Context, files []SourceFile) (*ir.Model, error)
}

// FileExtensionsProvider is an optional interface for source plugins to
// declare which file extensions they can parse (e.g. []string{".cs"}).
//
// When not implemented, the pipeline falls back to reading every file.
type FileExtensionsProvider interface {
	FileExtensions() []string
}
