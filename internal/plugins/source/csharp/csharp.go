// Package csharp parses C# source into the bound ir model. The parser is
// structural: a segment scanner over braces and semicolons with regular
// expressions for declarations, an expression parser for statement bodies,
// and a whole-program binding pass once every file is scanned.
package csharp

import (
	"context"
	"sort"

	"github.com/efebarandurmaz/blueprint/internal/ir"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
)

// Plugin is the C# source plugin.
type Plugin struct{}

// New creates a C# source plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Language() string { return "csharp" }

func (p *Plugin) FileExtensions() []string { return []string{".cs"} }

// Parse scans every file, then binds semantics across the whole set so
// cross-file type references resolve.
func (p *Plugin) Parse(ctx context.Context, files []plugins.SourceFile) (*ir.Model, error) {
	sorted := make([]plugins.SourceFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	parses := make([]*fileParse, 0, len(sorted))
	units := make([]*ir.CompilationUnit, 0, len(sorted))
	for _, f := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp := parseFile(f.Path, f.Content)
		parses = append(parses, fp)
		units = append(units, fp.unit)
	}

	return &ir.Model{
		Units:     units,
		Language:  p.Language(),
		Semantics: bind(parses),
	}, nil
}
