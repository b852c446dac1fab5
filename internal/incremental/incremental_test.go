package incremental

import (
	"strings"
	"testing"

	"github.com/efebarandurmaz/blueprint/internal/plugins"
	"github.com/efebarandurmaz/blueprint/internal/walker"
)

func sourceSet() []plugins.SourceFile {
	return []plugins.SourceFile{
		{Path: "src/Order.cs", Content: []byte("class Order {}")},
		{Path: "src/Service.cs", Content: []byte("class Service {}")},
	}
}

func TestTreeHashStableAcrossOrder(t *testing.T) {
	a := ComputeFingerprints(sourceSet())
	files := sourceSet()
	files[0], files[1] = files[1], files[0]
	b := ComputeFingerprints(files)

	if TreeHash(a) != TreeHash(b) {
		t.Error("tree hash should not depend on file order")
	}
}

func TestTreeHashChangesWithContent(t *testing.T) {
	a := ComputeFingerprints(sourceSet())
	files := sourceSet()
	files[0].Content = []byte("class Order { int Id; }")
	b := ComputeFingerprints(files)

	if TreeHash(a) == TreeHash(b) {
		t.Error("tree hash should change when file content changes")
	}
}

func TestAnalyzeFirstRun(t *testing.T) {
	tr := NewTracker(&Config{StateDir: t.TempDir(), Language: "csharp"})

	result, err := tr.Analyze(sourceSet())
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsFirstRun {
		t.Error("expected first run")
	}
	if result.UpToDate {
		t.Error("first run can never be up to date")
	}
	if len(result.NewFiles) != 2 {
		t.Errorf("new files = %v", result.NewFiles)
	}
}

func TestAnalyzeUpToDateAfterCommit(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(&Config{StateDir: dir, Language: "csharp"})

	files := sourceSet()
	diagrams := map[string][]string{"Shop_Service_Run": {"@startuml", "@enduml"}}
	stats := walker.Stats{DiagramsKept: 1, EntryPoints: 1}
	if err := tr.Commit(files, diagrams, stats, []string{"Shop.Service.Run"}); err != nil {
		t.Fatal(err)
	}

	result, err := tr.Analyze(files)
	if err != nil {
		t.Fatal(err)
	}
	if !result.UpToDate {
		t.Fatalf("expected up to date, got %+v", result)
	}
	if len(result.UnchangedFiles) != 2 {
		t.Errorf("unchanged = %v", result.UnchangedFiles)
	}

	cached, cachedStats, entryPoints, ok := tr.Cached(result)
	if !ok {
		t.Fatal("expected cached output")
	}
	if len(cached["Shop_Service_Run"]) != 2 {
		t.Errorf("cached diagrams = %v", cached)
	}
	if cachedStats.DiagramsKept != 1 {
		t.Errorf("cached stats = %+v", cachedStats)
	}
	if len(entryPoints) != 1 || entryPoints[0] != "Shop.Service.Run" {
		t.Errorf("entry points = %v", entryPoints)
	}
}

func TestAnalyzeDetectsChangeAndDelete(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(&Config{StateDir: dir, Language: "csharp"})

	if err := tr.Commit(sourceSet(), nil, walker.Stats{}, nil); err != nil {
		t.Fatal(err)
	}

	// Order.cs edited, Service.cs deleted, Mailer.cs added.
	files := []plugins.SourceFile{
		{Path: "src/Order.cs", Content: []byte("class Order { int Id; }")},
		{Path: "src/Mailer.cs", Content: []byte("class Mailer {}")},
	}
	result, err := tr.Analyze(files)
	if err != nil {
		t.Fatal(err)
	}

	if result.UpToDate {
		t.Error("changed tree reported up to date")
	}
	if len(result.ChangedFiles) != 1 || result.ChangedFiles[0] != "src/Order.cs" {
		t.Errorf("changed = %v", result.ChangedFiles)
	}
	if len(result.NewFiles) != 1 || result.NewFiles[0] != "src/Mailer.cs" {
		t.Errorf("new = %v", result.NewFiles)
	}
	if len(result.DeletedFiles) != 1 || result.DeletedFiles[0] != "src/Service.cs" {
		t.Errorf("deleted = %v", result.DeletedFiles)
	}

	if _, _, _, ok := tr.Cached(result); ok {
		t.Error("cache should not be served for a changed tree")
	}
}

func TestAnalyzeForceIgnoresCache(t *testing.T) {
	dir := t.TempDir()
	if err := NewTracker(&Config{StateDir: dir, Language: "csharp"}).Commit(sourceSet(), nil, walker.Stats{}, nil); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(&Config{StateDir: dir, Language: "csharp", Force: true})
	result, err := tr.Analyze(sourceSet())
	if err != nil {
		t.Fatal(err)
	}
	if !result.ForcedFull || result.UpToDate {
		t.Errorf("result = %+v", result)
	}
}

func TestAnalyzeLanguageSwitchInvalidates(t *testing.T) {
	dir := t.TempDir()
	if err := NewTracker(&Config{StateDir: dir, Language: "csharp"}).Commit(sourceSet(), nil, walker.Stats{}, nil); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(&Config{StateDir: dir, Language: "java"})
	result, err := tr.Analyze(sourceSet())
	if err != nil {
		t.Fatal(err)
	}
	if result.UpToDate {
		t.Error("language switch should invalidate the cache")
	}
}

func TestFormatReport(t *testing.T) {
	out := FormatReport(&Result{
		TotalFiles:   3,
		ChangedFiles: []string{"src/Order.cs"},
		NewFiles:     []string{"src/Mailer.cs"},
		DeletedFiles: []string{"src/Service.cs"},
	})

	for _, want := range []string{"Incremental Generation Report", "~ src/Order.cs", "+ src/Mailer.cs", "- src/Service.cs"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	cached := FormatReport(&Result{TotalFiles: 3, UpToDate: true})
	if !strings.Contains(cached, "Up To Date") {
		t.Errorf("report:\n%s", cached)
	}
}
