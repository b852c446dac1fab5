package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_NegativeWorkers(t *testing.T) {
	cfg := &Config{Source: SourceConfig{Workers: -2}}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "workers") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected warning about negative workers")
	}
}

func TestValidate_GraphFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   bool // true = should warn
	}{
		{"empty", "", false},
		{"dot", "dot", false},
		{"mermaid", "mermaid", false},
		{"json", "json", false},
		{"unknown", "svg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Output: OutputConfig{GraphFormat: tt.format}}
			warnings := cfg.Validate()
			hasWarn := false
			for _, w := range warnings {
				if strings.Contains(w, "graph format") {
					hasWarn = true
				}
			}
			if hasWarn != tt.want {
				t.Errorf("format=%q: hasWarn=%v, want=%v", tt.format, hasWarn, tt.want)
			}
		})
	}
}

func TestValidate_TraceEndpoint(t *testing.T) {
	cfg := &Config{Trace: TraceConfig{Enabled: true}}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "endpoint") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about empty trace endpoint")
	}

	// Disabled tracing with no endpoint is fine.
	cfg = &Config{}
	for _, w := range cfg.Validate() {
		if strings.Contains(w, "endpoint") {
			t.Error("disabled tracing should not warn about endpoint")
		}
	}
}

func TestResolveForLanguage(t *testing.T) {
	cfg := SourceConfig{
		Language: "csharp",
		Root:     "/src",
		Languages: map[string]SourceOverride{
			"csharp": {Root: "/src/legacy", Extensions: []string{".cs", ".csx"}},
		},
	}

	resolved := cfg.ResolveForLanguage("csharp")
	if resolved.Root != "/src/legacy" {
		t.Errorf("expected root=/src/legacy, got %s", resolved.Root)
	}
	if exts := cfg.Extensions("csharp"); len(exts) != 2 {
		t.Errorf("extensions = %v", exts)
	}

	// Unknown language returns the base config, no extension override.
	base := cfg.ResolveForLanguage("basic")
	if base.Root != "/src" {
		t.Errorf("expected base root=/src, got %s", base.Root)
	}
	if cfg.Extensions("basic") != nil {
		t.Error("unknown language should have no extension override")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.yaml")
	content := `
source:
  language: csharp
  root: /repo
  workers: 4
output:
  dir: out
  graph_format: mermaid
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.Language != "csharp" || cfg.Source.Workers != 4 {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Output.Dir != "out" || cfg.Output.GraphFormat != "mermaid" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
