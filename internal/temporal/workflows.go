package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"
)

// GenerationInput holds the workflow parameters.
type GenerationInput struct {
	Language  string
	InputPath string
	OutputDir string
}

// GenerationOutput holds the workflow result.
type GenerationOutput struct {
	DiagramPaths []string
	EntryPoints  []string
	DiagramCount int
	Warnings     []string
}

// GenerateWorkflow runs one generation end to end: parse and walk the source
// tree into diagrams, then write them to the output directory. Splitting the
// two steps lets a write failure retry without re-parsing.
func GenerateWorkflow(ctx workflow.Context, input GenerationInput) (*GenerationOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var gen GenerationResult
	if err := workflow.ExecuteActivity(ctx, GenerateActivity, input).Get(ctx, &gen); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	var paths []string
	if err := workflow.ExecuteActivity(ctx, WriteDiagramsActivity, input.OutputDir, gen.DiagramsJSON).Get(ctx, &paths); err != nil {
		return nil, fmt.Errorf("write diagrams: %w", err)
	}

	return &GenerationOutput{
		DiagramPaths: paths,
		EntryPoints:  gen.EntryPoints,
		DiagramCount: gen.DiagramCount,
		Warnings:     gen.Warnings,
	}, nil
}
