package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/check"
	"github.com/efebarandurmaz/blueprint/internal/config"
	"github.com/efebarandurmaz/blueprint/internal/depgraph"
	"github.com/efebarandurmaz/blueprint/internal/graph"
	neo4jrepo "github.com/efebarandurmaz/blueprint/internal/graph/neo4j"
	incrementalpkg "github.com/efebarandurmaz/blueprint/internal/incremental"
	"github.com/efebarandurmaz/blueprint/internal/observability"
	"github.com/efebarandurmaz/blueprint/internal/pipeline"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
	csharpplugin "github.com/efebarandurmaz/blueprint/internal/plugins/source/csharp"
	"github.com/efebarandurmaz/blueprint/internal/vector"
	qdrantrepo "github.com/efebarandurmaz/blueprint/internal/vector/qdrant"
)

func main() {
	var (
		language    string
		inputPath   string
		outputDir   string
		configPath  string
		jsonReport  bool
		incremental bool
		force       bool
	)

	rootCmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Sequence diagram generator for legacy codebases",
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate PlantUML sequence diagrams from source code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(configPath, language, inputPath, outputDir, jsonReport, incremental, force)
		},
	}
	generateCmd.Flags().StringVar(&language, "language", "", "Source language (default from config)")
	generateCmd.Flags().StringVar(&inputPath, "input", "", "Input path (file or directory)")
	generateCmd.Flags().StringVar(&outputDir, "output", "", "Output directory for .puml files")
	generateCmd.Flags().StringVar(&configPath, "config", "configs/blueprint.yaml", "Config file path")
	generateCmd.Flags().BoolVar(&jsonReport, "json", false, "Output run metrics as JSON")
	generateCmd.Flags().BoolVar(&incremental, "incremental", false, "Skip regeneration when sources are unchanged")
	generateCmd.Flags().BoolVar(&force, "force", false, "Regenerate even when sources are unchanged")
	_ = generateCmd.MarkFlagRequired("input")

	var exportFormat, exportFile string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the caller index as dot, mermaid or json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(configPath, language, inputPath, exportFormat, exportFile)
		},
	}
	exportCmd.Flags().StringVar(&language, "language", "", "Source language (default from config)")
	exportCmd.Flags().StringVar(&inputPath, "input", "", "Input path (file or directory)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "dot", "Export format: dot, mermaid or json")
	exportCmd.Flags().StringVar(&exportFile, "output", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVar(&configPath, "config", "configs/blueprint.yaml", "Config file path")
	_ = exportCmd.MarkFlagRequired("input")

	var query string
	var topK int
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search indexed diagrams by similarity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(configPath, query, topK)
		},
	}
	searchCmd.Flags().StringVar(&query, "query", "", "Free-text query")
	searchCmd.Flags().IntVar(&topK, "top", 5, "Number of results")
	searchCmd.Flags().StringVar(&configPath, "config", "configs/blueprint.yaml", "Config file path")
	_ = searchCmd.MarkFlagRequired("query")

	var depsFormat, depsFile string
	depsCmd := &cobra.Command{
		Use:   "deps",
		Short: "Analyze the structural dependency graph of a codebase",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(configPath, language, inputPath, depsFormat, depsFile)
		},
	}
	depsCmd.Flags().StringVar(&language, "language", "", "Source language (default from config)")
	depsCmd.Flags().StringVar(&inputPath, "input", "", "Input path (file or directory)")
	depsCmd.Flags().StringVar(&depsFormat, "format", "stats", "Output format: stats, dot, mermaid or json")
	depsCmd.Flags().StringVar(&depsFile, "output", "", "Output file (default: stdout)")
	depsCmd.Flags().StringVar(&configPath, "config", "configs/blueprint.yaml", "Config file path")
	_ = depsCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(newSnapshotCmd(&configPath, &language, &inputPath))

	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "List registered source languages",
		Run: func(cmd *cobra.Command, args []string) {
			for _, lang := range newRegistry().Languages() {
				fmt.Println(lang)
			}
		},
	}

	rootCmd.AddCommand(generateCmd, exportCmd, searchCmd, depsCmd, languagesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRegistry() *plugins.Registry {
	registry := plugins.NewRegistry()
	registry.RegisterSource(csharpplugin.New())
	return registry
}

func loadConfig(configPath string) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}
	return cfg
}

func applyFlags(cfg *config.Config, language, inputPath, outputDir string) {
	if language != "" {
		cfg.Source.Language = language
	}
	if inputPath != "" {
		cfg.Source.Root = inputPath
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
}

func runGenerate(configPath, language, inputPath, outputDir string, jsonReport, incremental, force bool) error {
	cfg := loadConfig(configPath)
	applyFlags(cfg, language, inputPath, outputDir)
	if incremental {
		cfg.Source.Incremental = true
	}
	if force {
		cfg.Source.Force = true
	}

	ctx := context.Background()

	tracing := observability.DefaultTracingConfig()
	if cfg.Trace.Enabled {
		tracing.OTLPEndpoint = cfg.Trace.Endpoint
	}
	tp, err := observability.InitTracing(ctx, tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer tp.Shutdown(ctx)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	p := pipeline.New(newRegistry(), cfg, logger)

	if cfg.Graph.URI != "" {
		repo, err := openGraph(ctx, cfg)
		if err != nil {
			logger.Printf("warning: graph store unavailable: %v", err)
		} else {
			defer repo.Close(ctx)
			p = p.WithGraph(repo)
		}
	}
	if cfg.Vector.Host != "" {
		repo, err := openVector(ctx, cfg)
		if err != nil {
			logger.Printf("warning: vector index unavailable: %v", err)
		} else {
			defer repo.Close()
			p = p.WithVector(repo)
		}
	}

	result, err := p.Run(ctx)
	if err != nil {
		if result != nil && result.Gates != nil && result.Gates.Status == check.GateFailed {
			fmt.Fprint(os.Stderr, check.FormatReport(result.Gates))
		}
		return err
	}

	if result.FromCache {
		fmt.Printf("Sources unchanged, %d diagrams already in %s\n", len(result.Diagrams), cfg.Output.Dir)
	} else {
		paths, err := pipeline.WriteDiagrams(cfg.Output.Dir, result.Diagrams)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d diagrams to %s\n", len(paths), cfg.Output.Dir)
	}
	if result.Incremental != nil && cfg.Output.PrintSummary && !jsonReport {
		fmt.Print(incrementalpkg.FormatReport(result.Incremental))
	}

	if cfg.Output.MetricsJSON != "" {
		data, err := result.Metrics.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Output.MetricsJSON, data, 0o644); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if jsonReport {
		data, _ := result.Metrics.JSON()
		fmt.Println(string(data))
	} else if cfg.Output.PrintSummary {
		result.Metrics.PrintSummary(os.Stdout)
		if result.Gates != nil {
			fmt.Print(check.FormatReport(result.Gates))
		}
	}
	return nil
}

func runExport(configPath, language, inputPath, format, outputFile string) error {
	cfg := loadConfig(configPath)
	applyFlags(cfg, language, inputPath, "")
	if format == "" {
		format = cfg.Output.GraphFormat
	}

	// Gates and sinks do not apply to a bare index export.
	cfg.Check.Enabled = false
	result, err := pipeline.New(newRegistry(), cfg, log.New(os.Stderr, "", 0)).Run(context.Background())
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case "dot":
		out = []byte(callindex.ExportDOT(result.Index))
	case "mermaid":
		out = []byte(callindex.ExportMermaid(result.Index))
	case "json":
		out, err = callindex.ExportJSON(result.Index)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q (want dot, mermaid or json)", format)
	}

	if outputFile == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputFile, out, 0o644)
}

func runDeps(configPath, language, inputPath, format, outputFile string) error {
	cfg := loadConfig(configPath)
	applyFlags(cfg, language, inputPath, "")

	// Gates and sinks do not apply to a structural analysis.
	cfg.Check.Enabled = false
	result, err := pipeline.New(newRegistry(), cfg, log.New(os.Stderr, "", 0)).Run(context.Background())
	if err != nil {
		return err
	}

	g := depgraph.Analyze(result.Model, result.Index)

	var out []byte
	switch format {
	case "stats":
		out = []byte(depgraph.FormatStats(g))
	case "dot":
		out = []byte(depgraph.ExportDOT(g))
	case "mermaid":
		out = []byte(depgraph.ExportMermaid(g))
	case "json":
		out, err = depgraph.ExportJSON(g)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown deps format %q (want stats, dot, mermaid or json)", format)
	}

	if outputFile == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputFile, out, 0o644)
}

func runSearch(configPath, query string, topK int) error {
	cfg := loadConfig(configPath)
	if cfg.Vector.Host == "" {
		return fmt.Errorf("vector host not configured")
	}

	ctx := context.Background()
	repo, err := openVector(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	results, err := repo.Search(ctx, vector.Embed(query), topK)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching diagrams")
		return nil
	}
	for _, r := range results {
		title := r.Metadata["title"]
		if title == "" {
			title = r.ID
		}
		fmt.Printf("%.3f  %s\n", r.Score, title)
	}
	return nil
}

func openGraph(ctx context.Context, cfg *config.Config) (graph.Repository, error) {
	return neo4jrepo.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
}

func openVector(ctx context.Context, cfg *config.Config) (*qdrantrepo.QdrantRepository, error) {
	repo, err := qdrantrepo.NewQdrant(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureCollection(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}
