package depgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the graph.
func ExportDOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	// Group nodes by namespace using subgraphs
	for _, ns := range namespaceOrder(g) {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(ns)))
		b.WriteString(fmt.Sprintf("    label=\"%s\";\n", ns))
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, n := range g.Nodes {
			if n.Module != ns || n.Kind == NodeNamespace {
				continue
			}
			shape := nodeShape(n.Kind)
			color := nodeColor(n)
			b.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\" shape=%s style=filled fillcolor=\"%s\"];\n",
				n.ID, n.Name, shape, color))
		}
		b.WriteString("  }\n\n")
	}

	for _, e := range g.Edges {
		style := edgeStyle(e.Kind)
		color := edgeColor(e.Kind)
		label := ""
		if e.Kind == EdgeCalls && e.Weight > 1 {
			label = fmt.Sprintf(" label=\"%d\"", e.Weight)
		}
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=%s color=\"%s\"%s];\n",
			e.From, e.To, style, color, label))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the graph.
func ExportMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, ns := range namespaceOrder(g) {
		b.WriteString(fmt.Sprintf("  subgraph %s\n", sanitizeID(ns)))
		for _, n := range g.Nodes {
			if n.Module != ns || n.Kind == NodeNamespace {
				continue
			}
			b.WriteString(fmt.Sprintf("    %s%s\n", sanitizeID(n.ID), mermaidNodeShape(n)))
		}
		b.WriteString("  end\n")
	}

	for _, e := range g.Edges {
		arrow := mermaidArrow(e.Kind)
		label := ""
		if e.Kind == EdgeCalls && e.Weight > 1 {
			label = fmt.Sprintf("|%d|", e.Weight)
		}
		b.WriteString(fmt.Sprintf("  %s %s%s %s\n",
			sanitizeID(e.From), arrow, label, sanitizeID(e.To)))
	}

	return b.String()
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(g *Graph) string {
	var b strings.Builder
	b.WriteString("Dependency Graph Statistics\n")
	b.WriteString("==========================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:        %d total\n", g.Stats.TotalNodes))
	b.WriteString(fmt.Sprintf("  Namespaces: %d\n", g.Stats.NamespaceCount))
	b.WriteString(fmt.Sprintf("  Types:      %d\n", g.Stats.TypeCount))
	b.WriteString(fmt.Sprintf("  Methods:    %d\n", g.Stats.MethodCount))
	b.WriteString(fmt.Sprintf("Edges:        %d total\n", g.Stats.TotalEdges))
	b.WriteString(fmt.Sprintf("Entry Points: %d\n", g.Stats.EntryPointCount))
	b.WriteString(fmt.Sprintf("Max Fan-Out:  %d (%s)\n", g.Stats.MaxFanOut, g.Stats.HotspotNode))
	b.WriteString(fmt.Sprintf("Max Fan-In:   %d\n", g.Stats.MaxFanIn))
	b.WriteString(fmt.Sprintf("Components:   %d\n", g.Stats.ConnectedComponents))

	if len(g.Stats.CyclicDeps) > 0 {
		b.WriteString(fmt.Sprintf("\nCyclic Dependencies: %d\n", len(g.Stats.CyclicDeps)))
		for i, cycle := range g.Stats.CyclicDeps {
			b.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.Join(cycle, " -> ")))
		}
	}

	if len(g.Stats.TypeFanOut) > 0 {
		b.WriteString("\nType Dependencies:\n")
		types := make([]string, 0, len(g.Stats.TypeFanOut))
		for t := range g.Stats.TypeFanOut {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			b.WriteString(fmt.Sprintf("  %s: %d outgoing\n", t, g.Stats.TypeFanOut[t]))
		}
	}

	return b.String()
}

// namespaceOrder returns the distinct namespaces of non-namespace nodes,
// sorted for deterministic output.
func namespaceOrder(g *Graph) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range g.Nodes {
		if n.Kind == NodeNamespace || n.Module == "" {
			continue
		}
		if !seen[n.Module] {
			seen[n.Module] = true
			out = append(out, n.Module)
		}
	}
	sort.Strings(out)
	return out
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeShape(kind NodeKind) string {
	switch kind {
	case NodeNamespace:
		return "box3d"
	case NodeType:
		return "box"
	case NodeMethod:
		return "ellipse"
	default:
		return "box"
	}
}

func nodeColor(n Node) string {
	if n.Metadata["entry_point"] == "true" {
		return "#d29922"
	}
	switch n.Kind {
	case NodeNamespace:
		return "#1f6feb"
	case NodeType:
		return "#238636"
	case NodeMethod:
		return "#8957e5"
	default:
		return "#30363d"
	}
}

func edgeStyle(kind EdgeKind) string {
	switch kind {
	case EdgeCalls:
		return "solid"
	case EdgeContains:
		return "dashed"
	case EdgeDependsOn:
		return "bold"
	default:
		return "solid"
	}
}

func edgeColor(kind EdgeKind) string {
	switch kind {
	case EdgeCalls:
		return "#3fb950"
	case EdgeContains:
		return "#8b949e"
	case EdgeDependsOn:
		return "#f85149"
	default:
		return "#c9d1d9"
	}
}

func mermaidNodeShape(n Node) string {
	switch n.Kind {
	case NodeNamespace:
		return fmt.Sprintf("[[\"%s\"]]", n.Name)
	case NodeType:
		return fmt.Sprintf("[\"%s\"]", n.Name)
	case NodeMethod:
		return fmt.Sprintf("([\"%s\"])", n.Name)
	default:
		return fmt.Sprintf("[\"%s\"]", n.Name)
	}
}

func mermaidArrow(kind EdgeKind) string {
	switch kind {
	case EdgeCalls:
		return "-->"
	case EdgeContains:
		return "-.->"
	case EdgeDependsOn:
		return "===>"
	default:
		return "-->"
	}
}
