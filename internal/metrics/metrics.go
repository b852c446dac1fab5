// Package metrics collects statistics for a full generation run: source
// model size, caller index shape, walk outcomes and output volume.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/ir"
	"github.com/efebarandurmaz/blueprint/internal/walker"
)

// RunMetrics collects statistics for a full generation run.
type RunMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Source     SourceMetrics  `json:"source"`
	Walk       walker.Stats   `json:"walk"`
	Output     OutputMetrics  `json:"output"`
	Stages     []StageMetrics `json:"stages"`
	Errors     []string       `json:"errors,omitempty"`
}

type SourceMetrics struct {
	Language      string `json:"language"`
	FileCount     int    `json:"file_count"`
	UnitCount     int    `json:"unit_count"`
	CalledSymbols int    `json:"called_symbols"`
	CallEdgeCount int    `json:"call_edge_count"`
}

type OutputMetrics struct {
	DiagramsWritten int `json:"diagrams_written"`
	TotalBytes      int `json:"total_bytes"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Errors   int           `json:"errors"`
}

// New starts tracking a generation run.
func New() *RunMetrics {
	return &RunMetrics{StartedAt: time.Now()}
}

// CollectSource computes source-side metrics from the parsed model and the
// caller index.
func (m *RunMetrics) CollectSource(lang string, fileCount int, model *ir.Model, ix *callindex.Index) {
	m.Source.Language = lang
	m.Source.FileCount = fileCount
	if model != nil {
		m.Source.UnitCount = len(model.Units)
	}
	if ix != nil {
		m.Source.CalledSymbols = ix.Size()
		m.Source.CallEdgeCount = len(ix.Edges())
	}
}

// CollectWalk records the walker's counters.
func (m *RunMetrics) CollectWalk(stats walker.Stats) {
	m.Walk = stats
}

// CollectOutput records what was written out.
func (m *RunMetrics) CollectOutput(diagrams map[string][]string) {
	m.Output.DiagramsWritten = len(diagrams)
	for _, lines := range diagrams {
		for _, l := range lines {
			m.Output.TotalBytes += len(l) + 1
		}
	}
}

// AddStage records a single stage's timing and status.
func (m *RunMetrics) AddStage(name string, d time.Duration, errCount int) {
	m.Stages = append(m.Stages, StageMetrics{
		Name:     name,
		Duration: d,
		Errors:   errCount,
	})
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish(errs []string) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Errors = errs
}

// PrintSummary writes a human-readable summary.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║       BLUEPRINT RUN REPORT           ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ SOURCE (%s)\n", m.Source.Language)
	fmt.Fprintf(w, "║   Files:          %d\n", m.Source.FileCount)
	fmt.Fprintf(w, "║   Units:          %d\n", m.Source.UnitCount)
	fmt.Fprintf(w, "║   Called Symbols: %d\n", m.Source.CalledSymbols)
	fmt.Fprintf(w, "║   Call Edges:     %d\n", m.Source.CallEdgeCount)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ WALK\n")
	fmt.Fprintf(w, "║   Methods Seen:   %d\n", m.Walk.MethodsSeen)
	fmt.Fprintf(w, "║   Entry Points:   %d\n", m.Walk.EntryPoints)
	fmt.Fprintf(w, "║   Suppressed:     %d\n", m.Walk.Suppressed)
	fmt.Fprintf(w, "║   Edges Emitted:  %d\n", m.Walk.EdgesEmitted)
	fmt.Fprintf(w, "║   Unresolved:     %d\n", m.Walk.UnresolvedCalls)
	fmt.Fprintf(w, "║   Kept:           %d\n", m.Walk.DiagramsKept)
	fmt.Fprintf(w, "║   Discarded:      %d\n", m.Walk.DiagramsDiscarded)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ OUTPUT\n")
	fmt.Fprintf(w, "║   Diagrams:       %d\n", m.Output.DiagramsWritten)
	fmt.Fprintf(w, "║   Total Size:     %s\n", formatBytes(m.Output.TotalBytes))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		status := "OK"
		if s.Errors > 0 {
			status = fmt.Sprintf("%d errors", s.Errors)
		}
		fmt.Fprintf(w, "║   %-14s %8s  %s\n", s.Name, s.Duration.Round(time.Millisecond), status)
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range m.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func formatBytes(b int) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
