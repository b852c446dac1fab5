package callindex

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the caller index.
func ExportDOT(ix *Index) string {
	var b strings.Builder
	b.WriteString("digraph calls {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\" shape=box];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for _, id := range nodeIDs(ix) {
		b.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\"];\n", id, id))
	}
	b.WriteString("\n")
	for _, e := range ix.Edges() {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", e.CallerID, e.CalleeID))
	}
	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid flowchart of the caller index.
func ExportMermaid(ix *Index) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, id := range nodeIDs(ix) {
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", sanitizeMermaidID(id), id))
	}
	for _, e := range ix.Edges() {
		b.WriteString(fmt.Sprintf("  %s --> %s\n",
			sanitizeMermaidID(e.CallerID), sanitizeMermaidID(e.CalleeID)))
	}
	return b.String()
}

// ExportJSON serializes the caller edges to JSON.
func ExportJSON(ix *Index) ([]byte, error) {
	return json.MarshalIndent(struct {
		Edges []Edge `json:"edges"`
	}{Edges: ix.Edges()}, "", "  ")
}

func nodeIDs(ix *Index) []string {
	seen := make(map[string]bool)
	for _, e := range ix.Edges() {
		seen[e.CallerID] = true
		seen[e.CalleeID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sanitizeMermaidID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}
