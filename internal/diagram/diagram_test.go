package diagram

import (
	"reflect"
	"testing"
)

func TestBuffer_AppendAndLast(t *testing.T) {
	b := NewBuffer()
	if _, ok := b.Last(); ok {
		t.Error("empty buffer should have no last line")
	}
	b.Append("one")
	b.Append("two")
	if b.Len() != 2 {
		t.Errorf("expected 2 lines, got %d", b.Len())
	}
	last, ok := b.Last()
	if !ok || last != "two" {
		t.Errorf("expected last line \"two\", got %q", last)
	}
}

func TestBuffer_RetractIfLast(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		retract string
		want    bool
		wantLen int
	}{
		{"matches_last", []string{"a", "group if"}, "group if", true, 1},
		{"does_not_match", []string{"a", "b"}, "a", false, 2},
		{"empty_buffer", nil, "x", false, 0},
		{"only_single_lookback", []string{"group if", "call"}, "group if", false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer()
			for _, l := range tt.lines {
				b.Append(l)
			}
			got := b.RetractIfLast(tt.retract)
			if got != tt.want {
				t.Errorf("RetractIfLast=%v, want %v", got, tt.want)
			}
			if b.Len() != tt.wantLen {
				t.Errorf("len=%d, want %d", b.Len(), tt.wantLen)
			}
		})
	}
}

func TestBuffer_LinesIsCopy(t *testing.T) {
	b := NewBuffer()
	b.Append("a")
	lines := b.Lines()
	lines[0] = "mutated"
	got, _ := b.Last()
	if got != "a" {
		t.Error("Lines() must return a copy")
	}
}

func TestStore_BeginOrReuse(t *testing.T) {
	s := NewStore()
	b1 := s.BeginOrReuse("Asm_Foo_M")
	b1.Append("@startuml")
	b2 := s.BeginOrReuse("Asm_Foo_M")
	if b1 != b2 {
		t.Error("same title must reuse the same buffer")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 diagram, got %d", s.Len())
	}
}

func TestStore_FinalizeKeepsPastHeader(t *testing.T) {
	s := NewStore()
	b := s.BeginOrReuse("t")
	for _, l := range []string{"@startuml", "title t", "autoactivate on", "hide footbox", "Foo -> Foo: Bar"} {
		b.Append(l)
	}
	if !s.Finalize("t") {
		t.Fatal("diagram with content past the header must be kept")
	}
	want := []string{"@startuml", "title t", "autoactivate on", "hide footbox", "Foo -> Foo: Bar", "@enduml"}
	if got := s.Diagrams()["t"]; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStore_FinalizeDiscardsHeaderOnly(t *testing.T) {
	s := NewStore()
	b := s.BeginOrReuse("t")
	for _, l := range []string{"@startuml", "title t", "autoactivate on", "hide footbox"} {
		b.Append(l)
	}
	if s.Finalize("t") {
		t.Error("header-only diagram must be discarded")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d diagrams", s.Len())
	}
}

func TestStore_FinalizeIsIdempotent(t *testing.T) {
	s := NewStore()
	b := s.BeginOrReuse("t")
	for _, l := range []string{"@startuml", "title t", "autoactivate on", "hide footbox", "Foo -> Foo: Bar"} {
		b.Append(l)
	}
	if !s.Finalize("t") {
		t.Fatal("expected diagram kept")
	}
	if !s.Finalized("t") {
		t.Error("kept diagram must report finalized")
	}
	if !s.Finalize("t") {
		t.Error("second finalize must still report kept")
	}
	lines := s.Diagrams()["t"]
	ends := 0
	for _, l := range lines {
		if l == "@enduml" {
			ends++
		}
	}
	if ends != 1 {
		t.Errorf("expected exactly one end marker, lines: %v", lines)
	}
}

func TestStore_DiscardedTitleNotFinalized(t *testing.T) {
	s := NewStore()
	b := s.BeginOrReuse("t")
	for _, l := range []string{"@startuml", "title t", "autoactivate on", "hide footbox"} {
		b.Append(l)
	}
	s.Finalize("t")
	if s.Finalized("t") {
		t.Error("a discarded title can be begun again and must not read as finalized")
	}
}

func TestStore_FinalizeUnknownTitle(t *testing.T) {
	s := NewStore()
	if s.Finalize("missing") {
		t.Error("finalizing an unknown title must be a no-op")
	}
}

func TestStore_Merge(t *testing.T) {
	a := NewStore()
	a.BeginOrReuse("one").Append("x")
	b := NewStore()
	b.BeginOrReuse("two").Append("y")
	b.BeginOrReuse("one").Append("stale")

	a.Merge(b)
	if a.Len() != 2 {
		t.Fatalf("expected 2 diagrams after merge, got %d", a.Len())
	}
	if got := a.Diagrams()["one"][0]; got != "x" {
		t.Errorf("existing title must win on merge, got %q", got)
	}
	if got := a.Titles(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("titles = %v", got)
	}
}
