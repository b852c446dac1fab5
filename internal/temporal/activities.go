package temporal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/efebarandurmaz/blueprint/internal/config"
	"github.com/efebarandurmaz/blueprint/internal/graph"
	"github.com/efebarandurmaz/blueprint/internal/pipeline"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
	"github.com/efebarandurmaz/blueprint/internal/vector"
	"github.com/efebarandurmaz/blueprint/internal/walker"
)

// GenerationResult is the serializable result passed between activities. The
// diagram map is carried as JSON because activity payloads must round-trip
// through the data converter.
type GenerationResult struct {
	DiagramsJSON string
	EntryPoints  []string
	DiagramCount int
	Stats        walker.Stats
	Warnings     []string
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Registry *plugins.Registry
	Config   *config.Config
	Graph    graph.Repository
	Vector   vector.Repository
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// GenerateActivity runs the full pipeline against the input path.
func GenerateActivity(ctx context.Context, input GenerationInput) (GenerationResult, error) {
	if deps == nil {
		return GenerationResult{}, fmt.Errorf("worker dependencies not configured")
	}

	cfg := *deps.Config
	if input.Language != "" {
		cfg.Source.Language = input.Language
	}
	if input.InputPath != "" {
		cfg.Source.Root = input.InputPath
	}

	p := pipeline.New(deps.Registry, &cfg, nil)
	if deps.Graph != nil {
		p = p.WithGraph(deps.Graph)
	}
	if deps.Vector != nil {
		p = p.WithVector(deps.Vector)
	}

	result, err := p.Run(ctx)
	if err != nil {
		return GenerationResult{}, err
	}

	diagramsJSON, err := json.Marshal(result.Diagrams)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("marshal diagrams: %w", err)
	}

	return GenerationResult{
		DiagramsJSON: string(diagramsJSON),
		EntryPoints:  result.EntryPoints,
		DiagramCount: len(result.Diagrams),
		Stats:        result.Stats,
		Warnings:     result.Warnings,
	}, nil
}

// WriteDiagramsActivity writes a diagram set to the output directory and
// returns the written paths.
func WriteDiagramsActivity(_ context.Context, outputDir, diagramsJSON string) ([]string, error) {
	var diagrams map[string][]string
	if err := json.Unmarshal([]byte(diagramsJSON), &diagrams); err != nil {
		return nil, fmt.Errorf("unmarshal diagrams: %w", err)
	}
	return pipeline.WriteDiagrams(outputDir, diagrams)
}
