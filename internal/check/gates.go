package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/diagram"
)

// sortedTitles keeps gate detail output stable.
func sortedTitles(ctx *EvalContext) []string {
	titles := make([]string, 0, len(ctx.Diagrams))
	for t := range ctx.Diagrams {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// HeaderGate checks that every diagram opens with the fixed header block:
// @startuml, its title, autoactivate and footbox settings.
type HeaderGate struct {
	severity GateSeverity
}

func NewHeaderGate(severity GateSeverity) *HeaderGate {
	return &HeaderGate{severity: severity}
}

func (g *HeaderGate) Name() string           { return "header" }
func (g *HeaderGate) Severity() GateSeverity { return g.severity }
func (g *HeaderGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{Name: g.Name(), Severity: g.severity, Checked: len(ctx.Diagrams)}
	for _, title := range sortedTitles(ctx) {
		lines := ctx.Diagrams[title]
		switch {
		case len(lines) < diagram.HeaderLen:
			r.Details = append(r.Details, fmt.Sprintf("%s: only %d lines", title, len(lines)))
		case lines[0] != "@startuml":
			r.Details = append(r.Details, title+": missing @startuml")
		case lines[1] != "title "+title:
			r.Details = append(r.Details, title+": title line mismatch")
		case lines[2] != "autoactivate on" || lines[3] != "hide footbox":
			r.Details = append(r.Details, title+": settings lines mismatch")
		}
	}
	if len(r.Details) == 0 {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("%d diagram headers intact", len(ctx.Diagrams))
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d diagrams with broken headers", len(r.Details))
	}
	return r, nil
}

// TerminatorGate checks that every diagram ends with exactly one @enduml.
type TerminatorGate struct {
	severity GateSeverity
}

func NewTerminatorGate(severity GateSeverity) *TerminatorGate {
	return &TerminatorGate{severity: severity}
}

func (g *TerminatorGate) Name() string           { return "terminator" }
func (g *TerminatorGate) Severity() GateSeverity { return g.severity }
func (g *TerminatorGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{Name: g.Name(), Severity: g.severity, Checked: len(ctx.Diagrams)}
	for _, title := range sortedTitles(ctx) {
		lines := ctx.Diagrams[title]
		if len(lines) == 0 || lines[len(lines)-1] != "@enduml" {
			r.Details = append(r.Details, title+": missing trailing @enduml")
			continue
		}
		for _, l := range lines[:len(lines)-1] {
			if l == "@enduml" {
				r.Details = append(r.Details, title+": @enduml before the last line")
				break
			}
		}
	}
	if len(r.Details) == 0 {
		r.Status = GatePassed
		r.Message = "all diagrams terminated"
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d diagrams with termination problems", len(r.Details))
	}
	return r, nil
}

// GroupBalanceGate checks that group and end lines pair up and nesting never
// goes negative.
type GroupBalanceGate struct {
	severity GateSeverity
}

func NewGroupBalanceGate(severity GateSeverity) *GroupBalanceGate {
	return &GroupBalanceGate{severity: severity}
}

func (g *GroupBalanceGate) Name() string           { return "groups" }
func (g *GroupBalanceGate) Severity() GateSeverity { return g.severity }
func (g *GroupBalanceGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{Name: g.Name(), Severity: g.severity, Checked: len(ctx.Diagrams)}
	for _, title := range sortedTitles(ctx) {
		depth := 0
		broken := false
		for _, line := range ctx.Diagrams[title] {
			switch trimmed := strings.TrimLeft(line, " "); {
			case strings.HasPrefix(trimmed, "group "):
				depth++
			case trimmed == "end":
				depth--
				if depth < 0 {
					broken = true
				}
			}
		}
		if broken || depth != 0 {
			r.Details = append(r.Details, fmt.Sprintf("%s: unbalanced groups (depth %d at end)", title, depth))
		}
	}
	if len(r.Details) == 0 {
		r.Status = GatePassed
		r.Message = "all groups balanced"
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d diagrams with unbalanced groups", len(r.Details))
	}
	return r, nil
}

// IndentGate checks that every line is indented two spaces per enclosing
// group.
type IndentGate struct {
	severity GateSeverity
}

func NewIndentGate(severity GateSeverity) *IndentGate {
	return &IndentGate{severity: severity}
}

func (g *IndentGate) Name() string           { return "indent" }
func (g *IndentGate) Severity() GateSeverity { return g.severity }
func (g *IndentGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{Name: g.Name(), Severity: g.severity, Checked: len(ctx.Diagrams)}
	for _, title := range sortedTitles(ctx) {
		depth := 0
		for i, line := range ctx.Diagrams[title] {
			trimmed := strings.TrimLeft(line, " ")
			if trimmed == "end" {
				depth--
			}
			if want := 2 * depth; len(line)-len(trimmed) != want {
				r.Details = append(r.Details,
					fmt.Sprintf("%s: line %d indented %d, want %d", title, i+1, len(line)-len(trimmed), want))
				break
			}
			if strings.HasPrefix(trimmed, "group ") {
				depth++
			}
		}
	}
	if len(r.Details) == 0 {
		r.Status = GatePassed
		r.Message = "indentation consistent"
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d diagrams with indentation drift", len(r.Details))
	}
	return r, nil
}

// CallReturnGate checks that every call line has a matching return line.
type CallReturnGate struct {
	severity GateSeverity
}

func NewCallReturnGate(severity GateSeverity) *CallReturnGate {
	return &CallReturnGate{severity: severity}
}

func (g *CallReturnGate) Name() string           { return "callreturn" }
func (g *CallReturnGate) Severity() GateSeverity { return g.severity }
func (g *CallReturnGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{Name: g.Name(), Severity: g.severity, Checked: len(ctx.Diagrams)}
	for _, title := range sortedTitles(ctx) {
		calls, returns := 0, 0
		for _, line := range ctx.Diagrams[title] {
			trimmed := strings.TrimLeft(line, " ")
			switch {
			case strings.Contains(trimmed, " --> "):
				returns++
			case strings.Contains(trimmed, " -> "):
				calls++
			}
		}
		if calls != returns {
			r.Details = append(r.Details, fmt.Sprintf("%s: %d calls, %d returns", title, calls, returns))
		}
	}
	if len(r.Details) == 0 {
		r.Status = GatePassed
		r.Message = "calls and returns paired"
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d diagrams with unpaired calls", len(r.Details))
	}
	return r, nil
}

// MinDiagramsGate warns when a walked program produced fewer diagrams than
// expected. Advisory by default: empty programs are legitimate.
type MinDiagramsGate struct {
	Min      int
	severity GateSeverity
}

func NewMinDiagramsGate(min int, severity GateSeverity) *MinDiagramsGate {
	return &MinDiagramsGate{Min: min, severity: severity}
}

func (g *MinDiagramsGate) Name() string           { return "yield" }
func (g *MinDiagramsGate) Severity() GateSeverity { return g.severity }
func (g *MinDiagramsGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{Name: g.Name(), Severity: g.severity, Checked: len(ctx.Diagrams)}
	if ctx.Units == 0 {
		r.Status = GateSkipped
		r.Message = "no compilation units walked"
		return r, nil
	}
	if len(ctx.Diagrams) >= g.Min {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("%d diagrams from %d units", len(ctx.Diagrams), ctx.Units)
	} else {
		r.Status = GateWarning
		r.Message = fmt.Sprintf("only %d diagrams from %d units (expected at least %d)",
			len(ctx.Diagrams), ctx.Units, g.Min)
	}
	return r, nil
}
