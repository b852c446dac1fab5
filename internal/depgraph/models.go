// Package depgraph builds a structural dependency graph from the source
// model and the caller index: namespaces contain types, types contain
// methods, methods call methods. It answers the coarse questions the
// per-method sequence diagrams do not, such as which type everything leans
// on and whether namespaces depend on each other in cycles.
package depgraph

// Node represents a node in the dependency graph
type Node struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     NodeKind          `json:"kind"`      // namespace, type, method
	Module   string            `json:"module"`    // containing namespace
	Language string            `json:"language"`  // source language
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NodeKind classifies graph nodes
type NodeKind string

const (
	NodeNamespace NodeKind = "namespace"
	NodeType      NodeKind = "type"
	NodeMethod    NodeKind = "method"
)

// Edge represents a directed edge between two nodes
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Weight int      `json:"weight,omitempty"` // call site count for call edges
}

// EdgeKind classifies relationships
type EdgeKind string

const (
	EdgeCalls     EdgeKind = "calls"      // method calls method
	EdgeContains  EdgeKind = "contains"   // namespace contains type, type contains method
	EdgeDependsOn EdgeKind = "depends_on" // type depends on type
)

// Graph is the full dependency graph
type Graph struct {
	Nodes []Node     `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// GraphStats holds computed metrics about the graph
type GraphStats struct {
	TotalNodes          int            `json:"total_nodes"`
	TotalEdges          int            `json:"total_edges"`
	NamespaceCount      int            `json:"namespace_count"`
	TypeCount           int            `json:"type_count"`
	MethodCount         int            `json:"method_count"`
	EntryPointCount     int            `json:"entry_point_count"`
	MaxFanOut           int            `json:"max_fan_out"` // most outgoing call edges
	MaxFanIn            int            `json:"max_fan_in"`  // most incoming call edges
	HotspotNode         string         `json:"hotspot_node"`
	ConnectedComponents int            `json:"connected_components"`
	CyclicDeps          [][]string     `json:"cyclic_deps,omitempty"`
	TypeFanOut          map[string]int `json:"type_fan_out"` // per-type outgoing dependency count
}
