package temporal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/efebarandurmaz/blueprint/internal/config"
	"github.com/efebarandurmaz/blueprint/internal/plugins"
	"github.com/efebarandurmaz/blueprint/internal/plugins/source/csharp"
)

func setupTestDeps() {
	reg := plugins.NewRegistry()
	reg.RegisterSource(csharp.New())
	SetDependencies(&Dependencies{Registry: reg, Config: config.Default()})
}

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := []byte(`
namespace Billing
{
    public class Invoicer
    {
        public void Send(int id)
        {
            Render(id);
            Render(id);
            Deliver(id);
        }

        private void Render(int id) { }
        private void Deliver(int id) { }
    }
}
`)
	if err := os.WriteFile(filepath.Join(dir, "invoicer.cs"), src, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestSetDependencies(t *testing.T) {
	reg := plugins.NewRegistry()
	SetDependencies(&Dependencies{Registry: reg, Config: config.Default()})

	if deps == nil {
		t.Fatal("SetDependencies failed: deps is nil")
	}
	if deps.Registry != reg {
		t.Error("SetDependencies did not set registry correctly")
	}
}

func TestGenerateActivity(t *testing.T) {
	setupTestDeps()
	dir := writeSource(t)

	result, err := GenerateActivity(context.Background(), GenerationInput{
		Language:  "csharp",
		InputPath: dir,
	})
	if err != nil {
		t.Fatalf("GenerateActivity failed: %v", err)
	}

	if result.DiagramCount != 1 {
		t.Errorf("diagram count = %d, want 1", result.DiagramCount)
	}
	if len(result.EntryPoints) != 1 || result.EntryPoints[0] != "Billing.Invoicer.Send" {
		t.Errorf("entry points = %v", result.EntryPoints)
	}

	var diagrams map[string][]string
	if err := json.Unmarshal([]byte(result.DiagramsJSON), &diagrams); err != nil {
		t.Fatalf("DiagramsJSON is not valid JSON: %v", err)
	}
	if _, ok := diagrams["Billing_Invoicer_Send"]; !ok {
		t.Errorf("diagrams = %v", diagrams)
	}
}

func TestGenerateActivity_UnknownLanguage(t *testing.T) {
	setupTestDeps()

	_, err := GenerateActivity(context.Background(), GenerationInput{
		Language:  "fortran",
		InputPath: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error when source plugin is missing")
	}
}

func TestGenerateActivity_NoDependencies(t *testing.T) {
	SetDependencies(nil)

	_, err := GenerateActivity(context.Background(), GenerationInput{Language: "csharp"})
	if err == nil {
		t.Fatal("expected error when dependencies are not configured")
	}
}

func TestWriteDiagramsActivity(t *testing.T) {
	dir := t.TempDir()
	diagramsJSON, _ := json.Marshal(map[string][]string{
		"Billing_Invoicer_Send": {"@startuml", "@enduml"},
	})

	paths, err := WriteDiagramsActivity(context.Background(), dir, string(diagramsJSON))
	if err != nil {
		t.Fatalf("WriteDiagramsActivity failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v", paths)
	}
	if _, err := os.Stat(paths[0]); err != nil {
		t.Errorf("written file missing: %v", err)
	}
}

func TestWriteDiagramsActivity_BadJSON(t *testing.T) {
	if _, err := WriteDiagramsActivity(context.Background(), t.TempDir(), "{not json"); err == nil {
		t.Fatal("expected error for malformed diagram payload")
	}
}
