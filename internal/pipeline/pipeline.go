// Package pipeline orchestrates a full generation run: load source files,
// parse them through the language plugin, build the caller index, walk every
// unit into diagrams, gate the output and fan it out to the configured
// sinks.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/check"
	"github.com/efebarandurmaz/blueprint/internal/config"
	"github.com/efebarandurmaz/blueprint/internal/diagram"
	"github.com/efebarandurmaz/blueprint/internal/graph"
	"github.com/efebarandurmaz/blueprint/internal/incremental"
	"github.com/efebarandurmaz/blueprint/internal/ir"
	"github.com/efebarandurmaz/blueprint/internal/metrics"
	"github.com/efebarandurmaz/blueprint/internal/observability"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
	"github.com/efebarandurmaz/blueprint/internal/vector"
	"github.com/efebarandurmaz/blueprint/internal/walker"
)

// Pipeline runs the generation stages against one configuration.
type Pipeline struct {
	registry *plugins.Registry
	cfg      *config.Config
	logger   *log.Logger

	graphRepo  graph.Repository
	vectorRepo vector.Repository
}

// New creates a pipeline. Sinks are optional and attached with the With
// methods.
func New(registry *plugins.Registry, cfg *config.Config, logger *log.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{registry: registry, cfg: cfg, logger: logger}
}

// WithGraph attaches a call graph store.
func (p *Pipeline) WithGraph(repo graph.Repository) *Pipeline {
	p.graphRepo = repo
	return p
}

// WithVector attaches a diagram similarity index.
func (p *Pipeline) WithVector(repo vector.Repository) *Pipeline {
	p.vectorRepo = repo
	return p
}

// Result is everything one run produced.
type Result struct {
	Diagrams    map[string][]string
	Stats       walker.Stats
	EntryPoints []string
	Index       *callindex.Index
	Model       *ir.Model
	Gates       *check.PipelineResult
	Metrics     *metrics.RunMetrics
	Warnings    []string

	// Incremental is set when change tracking is enabled; FromCache marks
	// a run that served the previous output without re-walking.
	Incremental *incremental.Result
	FromCache   bool
}

// Run executes the full pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	run := metrics.New()
	result := &Result{Metrics: run}
	lang := p.cfg.Source.Language

	src, err := p.registry.Source(lang)
	if err != nil {
		return nil, err
	}
	resolved := p.cfg.Source.ResolveForLanguage(lang)

	// Parse.
	stage := time.Now()
	files, err := loadSourceFiles(resolved.Root, src, p.cfg.Source.Extensions(lang))
	if err != nil {
		return nil, fmt.Errorf("loading source files: %w", err)
	}
	// Change tracking. Diagrams depend on the whole program, so either the
	// entire cached output is served or everything regenerates.
	var tracker *incremental.Tracker
	if p.cfg.Source.Incremental {
		tracker = incremental.NewTracker(&incremental.Config{
			StateDir: p.cfg.Output.Dir,
			Language: lang,
			Force:    p.cfg.Source.Force,
		})
		analysis, err := tracker.Analyze(files)
		if err != nil {
			return nil, fmt.Errorf("incremental analysis: %w", err)
		}
		result.Incremental = analysis
		if diagrams, stats, entryPoints, ok := tracker.Cached(analysis); ok {
			result.Diagrams = diagrams
			result.Stats = stats
			result.EntryPoints = entryPoints
			result.FromCache = true
			p.logger.Printf("sources unchanged, serving %d cached diagrams", len(diagrams))
			run.CollectWalk(stats)
			run.CollectOutput(diagrams)
			run.Finish(nil)
			return result, nil
		}
	}

	p.logger.Printf("parsing %d %s files from %s", len(files), lang, resolved.Root)

	parseCtx, span := observability.StartParseSpan(ctx, lang, len(files))
	model, err := src.Parse(parseCtx, files)
	observability.RecordError(span, err)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	result.Model = model
	run.AddStage("parse", time.Since(stage), 0)

	// Caller index: built once, read-only from here on.
	stage = time.Now()
	_, span = observability.StartIndexSpan(ctx, len(model.Units))
	ix := callindex.Build(model)
	observability.RecordIndexResult(span, ix.Size(), len(ix.Edges()))
	span.End()
	result.Index = ix
	result.EntryPoints = ix.EntryPoints(model)
	run.CollectSource(lang, len(files), model, ix)
	run.AddStage("index", time.Since(stage), 0)

	// Walk.
	stage = time.Now()
	diagrams, stats, err := p.walk(ctx, model, ix)
	if err != nil {
		return nil, fmt.Errorf("walking: %w", err)
	}
	result.Diagrams = diagrams
	result.Stats = stats
	run.CollectWalk(stats)
	run.CollectOutput(diagrams)
	run.AddStage("walk", time.Since(stage), 0)
	p.logger.Printf("walk done: %d entry points, %d diagrams kept, %d discarded",
		stats.EntryPoints, stats.DiagramsKept, stats.DiagramsDiscarded)

	// Gates.
	if p.cfg.Check.Enabled {
		stage = time.Now()
		gates := check.BuildPipeline(&p.cfg.Check).Run(&check.EvalContext{
			Diagrams: diagrams,
			Units:    len(model.Units),
		})
		result.Gates = gates
		run.AddStage("check", time.Since(stage), gates.FailedCount)
		if gates.Status == check.GateFailed {
			run.Finish([]string{gates.Summary})
			return result, fmt.Errorf("diagram gates failed: %s", gates.Summary)
		}
	}

	// Sinks. Failures here degrade the run but do not lose the diagrams.
	p.export(ctx, result)

	if tracker != nil {
		if err := tracker.Commit(files, diagrams, stats, result.EntryPoints); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("saving incremental state: %v", err))
			p.logger.Printf("warning: saving incremental state: %v", err)
		}
	}

	run.Finish(result.Warnings)
	return result, nil
}

// walk traverses units concurrently, one walker per worker, and merges the
// per-worker stores.
func (p *Pipeline) walk(ctx context.Context, model *ir.Model, ix *callindex.Index) (map[string][]string, walker.Stats, error) {
	workers := p.cfg.Source.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(model.Units) && len(model.Units) > 0 {
		workers = len(model.Units)
	}

	units := make(chan *ir.CompilationUnit)
	var (
		mu     sync.Mutex
		merged = diagram.NewStore()
		total  walker.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			store := diagram.NewStore()
			w := walker.New(model.Semantics, ix, store)
			for unit := range units {
				_, span := observability.StartWalkSpan(gctx, unit.Path, unit.Module)
				before := w.Stats()
				w.Walk(unit)
				after := w.Stats()
				observability.RecordWalkResult(span,
					after.EntryPoints-before.EntryPoints,
					after.DiagramsKept-before.DiagramsKept,
					after.DiagramsDiscarded-before.DiagramsDiscarded)
				span.End()
			}
			mu.Lock()
			merged.Merge(store)
			total.Add(w.Stats())
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		defer close(units)
		for _, unit := range model.Units {
			select {
			case units <- unit:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, walker.Stats{}, err
	}
	return merged.Diagrams(), total, nil
}

// export fans the run's output out to the attached sinks.
func (p *Pipeline) export(ctx context.Context, result *Result) {
	if p.graphRepo != nil {
		_, span := observability.StartExportSpan(ctx, "graph")
		err := p.graphRepo.StoreCallGraph(ctx, result.Index, result.EntryPoints)
		observability.RecordError(span, err)
		span.End()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("storing call graph: %v", err))
			p.logger.Printf("warning: storing call graph: %v", err)
		}
	}

	if p.vectorRepo != nil && len(result.Diagrams) > 0 {
		_, span := observability.StartExportSpan(ctx, "vector")
		err := p.vectorRepo.Upsert(ctx, vector.DocumentsFromDiagrams(result.Diagrams))
		observability.RecordError(span, err)
		span.End()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("indexing diagrams: %v", err))
			p.logger.Printf("warning: indexing diagrams: %v", err)
		}
	}
}
