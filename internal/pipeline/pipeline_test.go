package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/check"
	"github.com/efebarandurmaz/blueprint/internal/config"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
	"github.com/efebarandurmaz/blueprint/internal/plugins/source/csharp"
	"github.com/efebarandurmaz/blueprint/internal/vector"
)

const serviceSrc = `
namespace Shop
{
    public class OrderService
    {
        private readonly OrderRepository repo;

        public OrderService(OrderRepository r)
        {
            this.repo = r;
        }

        public void Place(Order order)
        {
            if (order == null)
            {
            }
            Validate(order);
            repo.Save(order);
        }

        private void Validate(Order order)
        {
        }
    }
}
`

const repoSrc = `
namespace Shop
{
    public class OrderRepository
    {
        public void Save(Order o)
        {
        }
    }

    public class Order
    {
        public decimal Total;
    }
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestPipeline(t *testing.T, root string) *Pipeline {
	t.Helper()
	reg := plugins.NewRegistry()
	reg.RegisterSource(csharp.New())
	cfg := config.Default()
	cfg.Source.Root = root
	cfg.Source.Workers = 2
	return New(reg, cfg, log.New(io.Discard, "", 0))
}

func TestRunEndToEnd(t *testing.T) {
	dir := writeTree(t, map[string]string{"svc.cs": serviceSrc, "repo.cs": repoSrc})
	p := newTestPipeline(t, dir)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Only the uncalled method draws; its empty conditional collapses and
	// both its calls appear with matching returns.
	want := []string{
		"@startuml",
		"title Shop_OrderService_Place",
		"autoactivate on",
		"hide footbox",
		"OrderService -> OrderService: Validate",
		"OrderService --> OrderService: void",
		"OrderService -> Shop.OrderRepository: Save",
		"Shop.OrderRepository --> OrderService: void",
		"@enduml",
	}
	got, ok := result.Diagrams["Shop_OrderService_Place"]
	if !ok {
		t.Fatalf("diagram missing; have %v", keys(result.Diagrams))
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diagram =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	if _, ok := result.Diagrams["Shop_OrderService_Validate"]; ok {
		t.Error("called method should not produce a diagram")
	}
	if len(result.Diagrams) != 1 {
		t.Errorf("diagrams = %v", keys(result.Diagrams))
	}

	if !reflect.DeepEqual(result.EntryPoints, []string{"Shop.OrderService.Place"}) {
		t.Errorf("entry points = %v", result.EntryPoints)
	}
	if result.Stats.GroupsCollapsed == 0 {
		t.Error("empty conditional should have collapsed")
	}
	if result.Gates == nil || result.Gates.Status != check.GatePassed {
		t.Errorf("gates = %+v", result.Gates)
	}
	if result.Metrics.Source.UnitCount != 2 {
		t.Errorf("metrics source = %+v", result.Metrics.Source)
	}
}

func keys(m map[string][]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

type captureVector struct {
	docs []vector.Document
	err  error
}

func (c *captureVector) Upsert(_ context.Context, docs []vector.Document) error {
	c.docs = append(c.docs, docs...)
	return c.err
}
func (c *captureVector) Search(context.Context, []float32, int) ([]vector.SearchResult, error) {
	return nil, nil
}
func (c *captureVector) Close() error { return nil }

type captureGraph struct {
	entryPoints []string
	edges       int
	err         error
}

func (c *captureGraph) StoreCallGraph(_ context.Context, ix *callindex.Index, entryPoints []string) error {
	c.entryPoints = entryPoints
	c.edges = len(ix.Edges())
	return c.err
}
func (c *captureGraph) QueryCallers(context.Context, string) ([]string, error) { return nil, nil }
func (c *captureGraph) QueryCallees(context.Context, string) ([]string, error) { return nil, nil }
func (c *captureGraph) Close(context.Context) error                           { return nil }

func TestRunExportsToSinks(t *testing.T) {
	dir := writeTree(t, map[string]string{"svc.cs": serviceSrc, "repo.cs": repoSrc})
	gsink := &captureGraph{}
	vsink := &captureVector{}
	p := newTestPipeline(t, dir).WithGraph(gsink).WithVector(vsink)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v", result.Warnings)
	}
	if !reflect.DeepEqual(gsink.entryPoints, []string{"Shop.OrderService.Place"}) {
		t.Errorf("graph sink entry points = %v", gsink.entryPoints)
	}
	if gsink.edges == 0 {
		t.Error("graph sink received no edges")
	}
	if len(vsink.docs) != 1 || vsink.docs[0].Metadata["title"] != "Shop_OrderService_Place" {
		t.Errorf("vector sink docs = %+v", vsink.docs)
	}
}

func TestRunSinkFailureIsWarning(t *testing.T) {
	dir := writeTree(t, map[string]string{"svc.cs": serviceSrc, "repo.cs": repoSrc})
	vsink := &captureVector{err: errors.New("qdrant down")}
	p := newTestPipeline(t, dir).WithVector(vsink)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("sink failure must not fail the run: %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "qdrant down") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestRunUnknownLanguage(t *testing.T) {
	dir := writeTree(t, map[string]string{"svc.cs": serviceSrc})
	p := newTestPipeline(t, dir)
	p.cfg.Source.Language = "cobol"

	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected error for unregistered language")
	}
}

func TestLoadSourceFilesFiltersExtensions(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.cs":       "class A {}",
		"notes.txt":  "skip me",
		"b.cs":       "class B {}",
		"readme.md":  "skip",
		"legacy.csx": "class C {}",
	})

	files, err := loadSourceFiles(dir, csharp.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("files = %d, want 2 (.cs only)", len(files))
	}

	files, err = loadSourceFiles(dir, csharp.New(), []string{".cs", ".csx"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Errorf("files = %d, want 3 with extension override", len(files))
	}
}

func TestRunIncrementalServesCache(t *testing.T) {
	dir := writeTree(t, map[string]string{"svc.cs": serviceSrc, "repo.cs": repoSrc})
	p := newTestPipeline(t, dir)
	p.cfg.Source.Incremental = true
	p.cfg.Output.Dir = t.TempDir()

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.FromCache {
		t.Error("first run cannot come from cache")
	}
	if first.Incremental == nil || !first.Incremental.IsFirstRun {
		t.Errorf("incremental = %+v", first.Incremental)
	}

	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.FromCache {
		t.Fatal("unchanged tree should serve cached output")
	}
	if !reflect.DeepEqual(second.Diagrams, first.Diagrams) {
		t.Error("cached diagrams differ from generated ones")
	}
	if !reflect.DeepEqual(second.EntryPoints, first.EntryPoints) {
		t.Errorf("cached entry points = %v", second.EntryPoints)
	}

	// Editing any file invalidates the whole cache.
	if err := os.WriteFile(filepath.Join(dir, "repo.cs"), []byte(repoSrc+"\n// touched"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.FromCache {
		t.Error("changed tree must regenerate")
	}
	if len(third.Incremental.ChangedFiles) != 1 {
		t.Errorf("changed files = %v", third.Incremental.ChangedFiles)
	}
}

func TestWriteDiagrams(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteDiagrams(filepath.Join(dir, "out"), map[string][]string{
		"Shop_OrderService_Place": {"@startuml", "@enduml"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "Shop_OrderService_Place.puml" {
		t.Fatalf("paths = %v", paths)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "@startuml\n@enduml\n" {
		t.Errorf("content = %q", data)
	}
}
