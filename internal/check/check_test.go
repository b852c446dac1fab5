package check

import (
	"strings"
	"testing"
)

func validDiagram(title string) []string {
	return []string{
		"@startuml",
		"title " + title,
		"autoactivate on",
		"hide footbox",
		"Svc -> Svc: Step",
		"Svc --> Svc: void",
		"@enduml",
	}
}

func groupedDiagram(title string) []string {
	return []string{
		"@startuml",
		"title " + title,
		"autoactivate on",
		"hide footbox",
		"group if",
		"  Svc -> Svc: Step",
		"  Svc --> Svc: void",
		"end",
		"@enduml",
	}
}

func ctxWith(diagrams map[string][]string) *EvalContext {
	return &EvalContext{Diagrams: diagrams, Units: 1}
}

func TestHeaderGate(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantStatus GateStatus
	}{
		{
			name:       "valid header",
			lines:      validDiagram("app_Svc_Run"),
			wantStatus: GatePassed,
		},
		{
			name: "wrong title line",
			lines: []string{
				"@startuml", "title something_else", "autoactivate on", "hide footbox", "@enduml",
			},
			wantStatus: GateFailed,
		},
		{
			name:       "truncated diagram",
			lines:      []string{"@startuml", "title app_Svc_Run"},
			wantStatus: GateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewHeaderGate(SeverityCritical)
			result, err := gate.Evaluate(ctxWith(map[string][]string{"app_Svc_Run": tt.lines}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("got status %v, want %v (details %v)", result.Status, tt.wantStatus, result.Details)
			}
		})
	}
}

func TestTerminatorGate(t *testing.T) {
	gate := NewTerminatorGate(SeverityRequired)

	result, _ := gate.Evaluate(ctxWith(map[string][]string{"d": validDiagram("d")}))
	if result.Status != GatePassed {
		t.Errorf("valid diagram failed: %v", result.Details)
	}

	missing := validDiagram("d")[:6]
	result, _ = gate.Evaluate(ctxWith(map[string][]string{"d": missing}))
	if result.Status != GateFailed {
		t.Error("missing @enduml should fail")
	}
}

func TestGroupBalanceGate(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantStatus GateStatus
	}{
		{"balanced", groupedDiagram("d"), GatePassed},
		{
			"missing end",
			[]string{"@startuml", "title d", "autoactivate on", "hide footbox", "group if", "@enduml"},
			GateFailed,
		},
		{
			"stray end",
			[]string{"@startuml", "title d", "autoactivate on", "hide footbox", "end", "@enduml"},
			GateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGroupBalanceGate(SeverityRequired)
			result, _ := gate.Evaluate(ctxWith(map[string][]string{"d": tt.lines}))
			if result.Status != tt.wantStatus {
				t.Errorf("got %v, want %v", result.Status, tt.wantStatus)
			}
		})
	}
}

func TestIndentGate(t *testing.T) {
	gate := NewIndentGate(SeverityRequired)

	result, _ := gate.Evaluate(ctxWith(map[string][]string{"d": groupedDiagram("d")}))
	if result.Status != GatePassed {
		t.Errorf("grouped diagram failed: %v", result.Details)
	}

	drifted := groupedDiagram("d")
	drifted[5] = "Svc -> Svc: Step" // should be indented under the group
	result, _ = gate.Evaluate(ctxWith(map[string][]string{"d": drifted}))
	if result.Status != GateFailed {
		t.Error("indentation drift should fail")
	}
}

func TestCallReturnGate(t *testing.T) {
	gate := NewCallReturnGate(SeverityRequired)

	result, _ := gate.Evaluate(ctxWith(map[string][]string{"d": validDiagram("d")}))
	if result.Status != GatePassed {
		t.Errorf("paired diagram failed: %v", result.Details)
	}

	unpaired := append(validDiagram("d")[:5], "@enduml")
	result, _ = gate.Evaluate(ctxWith(map[string][]string{"d": unpaired}))
	if result.Status != GateFailed {
		t.Error("unpaired call should fail")
	}
}

func TestMinDiagramsGate(t *testing.T) {
	gate := NewMinDiagramsGate(2, SeverityAdvisory)

	result, _ := gate.Evaluate(&EvalContext{Diagrams: map[string][]string{}, Units: 0})
	if result.Status != GateSkipped {
		t.Errorf("no units should skip, got %v", result.Status)
	}

	result, _ = gate.Evaluate(ctxWith(map[string][]string{"d": validDiagram("d")}))
	if result.Status != GateWarning {
		t.Errorf("low yield should warn, got %v", result.Status)
	}

	result, _ = gate.Evaluate(ctxWith(map[string][]string{
		"a": validDiagram("a"),
		"b": validDiagram("b"),
	}))
	if result.Status != GatePassed {
		t.Errorf("sufficient yield should pass, got %v", result.Status)
	}
}

func TestPipelineCriticalAborts(t *testing.T) {
	p := BuildPipeline(DefaultConfig())
	broken := map[string][]string{"d": {"not a diagram"}}

	result := p.Run(ctxWith(broken))
	if result.Status != GateFailed {
		t.Fatal("broken diagram should fail the pipeline")
	}
	// Header gate is critical: everything after it is skipped.
	if result.SkippedCount == 0 {
		t.Error("gates after a critical failure should be skipped")
	}
}

func TestPipelinePasses(t *testing.T) {
	p := BuildPipeline(DefaultConfig())
	result := p.Run(ctxWith(map[string][]string{
		"app_Svc_Run": groupedDiagram("app_Svc_Run"),
	}))
	if result.Status != GatePassed {
		t.Fatalf("pipeline failed: %s", FormatReport(result))
	}
	if result.FailedCount != 0 {
		t.Errorf("failed count = %d", result.FailedCount)
	}
}

func TestFormatReport(t *testing.T) {
	p := BuildPipeline(nil)
	result := p.Run(ctxWith(map[string][]string{"d": validDiagram("d")}))
	report := FormatReport(result)

	if !strings.Contains(report, "Diagram Gate Report") {
		t.Error("report missing title")
	}
	if !strings.Contains(report, "Result: PASSED") {
		t.Errorf("report missing result:\n%s", report)
	}
}
