package check

import "fmt"

// GateConfig defines which diagram gates run and how strict they are.
type GateConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	HeaderRequired     bool `mapstructure:"header_required" json:"header_required"`
	TerminatorRequired bool `mapstructure:"terminator_required" json:"terminator_required"`
	GroupsRequired     bool `mapstructure:"groups_required" json:"groups_required"`
	IndentRequired     bool `mapstructure:"indent_required" json:"indent_required"`
	CallReturnRequired bool `mapstructure:"callreturn_required" json:"callreturn_required"`

	MinDiagrams         int    `mapstructure:"min_diagrams" json:"min_diagrams"`
	MinDiagramsSeverity string `mapstructure:"min_diagrams_severity" json:"min_diagrams_severity"`
}

// DefaultConfig returns the default gate configuration.
func DefaultConfig() *GateConfig {
	return &GateConfig{
		Enabled:             true,
		HeaderRequired:      true,
		TerminatorRequired:  true,
		GroupsRequired:      true,
		IndentRequired:      true,
		CallReturnRequired:  true,
		MinDiagrams:         0, // disabled by default
		MinDiagramsSeverity: "advisory",
	}
}

// parseSeverity converts a string to GateSeverity.
func parseSeverity(s string) GateSeverity {
	switch s {
	case "critical":
		return SeverityCritical
	case "required":
		return SeverityRequired
	case "advisory":
		return SeverityAdvisory
	default:
		return SeverityRequired
	}
}

// BuildPipeline constructs a gate pipeline from configuration.
func BuildPipeline(cfg *GateConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := NewPipeline()

	if cfg.HeaderRequired {
		p.AddGate(NewHeaderGate(SeverityCritical))
	}
	if cfg.TerminatorRequired {
		p.AddGate(NewTerminatorGate(SeverityRequired))
	}
	if cfg.GroupsRequired {
		p.AddGate(NewGroupBalanceGate(SeverityRequired))
	}
	if cfg.IndentRequired {
		p.AddGate(NewIndentGate(SeverityRequired))
	}
	if cfg.CallReturnRequired {
		p.AddGate(NewCallReturnGate(SeverityRequired))
	}
	if cfg.MinDiagrams > 0 {
		p.AddGate(NewMinDiagramsGate(cfg.MinDiagrams, parseSeverity(cfg.MinDiagramsSeverity)))
	}

	return p
}

// FormatReport returns a human-readable gate report.
func FormatReport(result *PipelineResult) string {
	var s string
	s += "╔══════════════════════════════════════════╗\n"
	s += "║        Diagram Gate Report               ║\n"
	s += "╠══════════════════════════════════════════╣\n"

	for _, gr := range result.Gates {
		icon := "✓"
		switch gr.Status {
		case GateFailed:
			icon = "✗"
		case GateSkipped:
			icon = "○"
		case GateWarning:
			icon = "⚠"
		}

		severity := ""
		switch gr.Severity {
		case SeverityCritical:
			severity = "[CRITICAL]"
		case SeverityRequired:
			severity = "[REQUIRED]"
		case SeverityAdvisory:
			severity = "[ADVISORY]"
		}

		s += fmt.Sprintf("║ %s %-14s %-10s %s\n", icon, gr.Name, severity, gr.Message)
		for _, d := range gr.Details {
			s += fmt.Sprintf("║   → %s\n", d)
		}
	}

	s += "╠══════════════════════════════════════════╣\n"
	status := "PASSED"
	if result.Status == GateFailed {
		status = "FAILED"
	}
	s += fmt.Sprintf("║ Result: %s (%s)\n", status, result.Summary)
	s += "╚══════════════════════════════════════════╝\n"

	return s
}
