package plugins

import (
	"context"
	"reflect"
	"testing"

	"github.com/efebarandurmaz/blueprint/internal/ir"
)

type mockSource struct{ lang string }

func (m *mockSource) Language() string { return m.lang }
func (m *mockSource) Parse(_ context.Context, _ []SourceFile) (*ir.Model, error) {
	return &ir.Model{Language: m.lang}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.RegisterSource(&mockSource{lang: "mock"})

	if _, err := r.Source("mock"); err != nil {
		t.Errorf("expected source, got error: %v", err)
	}
	if _, err := r.Source("unknown"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestRegistry_Languages(t *testing.T) {
	r := NewRegistry()
	r.RegisterSource(&mockSource{lang: "csharp"})
	r.RegisterSource(&mockSource{lang: "basic"})

	if got := r.Languages(); !reflect.DeepEqual(got, []string{"basic", "csharp"}) {
		t.Errorf("languages = %v", got)
	}
}
