package depgraph

import (
	"sort"
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
	"github.com/efebarandurmaz/blueprint/internal/ir"
)

// Analyze builds a dependency graph from the source model and caller index.
func Analyze(m *ir.Model, ix *callindex.Index) *Graph {
	g := &Graph{}
	if m == nil || m.Semantics == nil {
		g.computeStats()
		return g
	}

	nodeMap := make(map[string]bool)
	addNode := func(n Node) {
		if !nodeMap[n.ID] {
			g.Nodes = append(g.Nodes, n)
			nodeMap[n.ID] = true
		}
	}

	// Declaration structure: every bound type and method becomes a node,
	// linked to its container with contains edges.
	for _, unit := range m.Units {
		if unit.Root == nil {
			continue
		}
		var walk func(n *ir.Node)
		walk = func(n *ir.Node) {
			if sym := m.Semantics.DeclaredSymbol(n); sym != nil {
				switch sym.Kind {
				case ir.SymbolType:
					addNode(Node{
						ID:       "type:" + sym.ID,
						Name:     sym.Name,
						Kind:     NodeType,
						Module:   sym.Module,
						Language: m.Language,
					})
					if sym.Module != "" {
						addNode(Node{
							ID:       "ns:" + sym.Module,
							Name:     sym.Module,
							Kind:     NodeNamespace,
							Module:   sym.Module,
							Language: m.Language,
						})
						g.Edges = append(g.Edges, Edge{
							From: "ns:" + sym.Module,
							To:   "type:" + sym.ID,
							Kind: EdgeContains,
						})
					}
				case ir.SymbolMethod, ir.SymbolConstructor:
					addNode(Node{
						ID:       "fn:" + sym.ID,
						Name:     sym.Name,
						Kind:     NodeMethod,
						Module:   sym.Module,
						Language: m.Language,
					})
					g.Edges = append(g.Edges, Edge{
						From: "type:" + sym.Type.Qualified,
						To:   "fn:" + sym.ID,
						Kind: EdgeContains,
					})
					addNode(Node{
						ID:       "type:" + sym.Type.Qualified,
						Name:     sym.Type.Simple(),
						Kind:     NodeType,
						Module:   sym.Module,
						Language: m.Language,
					})
				}
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(unit.Root)
	}

	// Call edges, weighted by call site count.
	if ix != nil {
		weights := make(map[[2]string]int)
		var order [][2]string
		for _, e := range ix.Edges() {
			key := [2]string{"fn:" + e.CallerID, "fn:" + e.CalleeID}
			if weights[key] == 0 {
				order = append(order, key)
			}
			weights[key]++
		}
		for _, key := range order {
			from, to := key[0], key[1]
			// Targets resolved by receiver type may not be declared in the
			// parsed tree; keep the edge and synthesize the node.
			if !nodeMap[to] {
				id := strings.TrimPrefix(to, "fn:")
				addNode(Node{
					ID:       to,
					Name:     lastSegment(id),
					Kind:     NodeMethod,
					Module:   firstSegment(id),
					Language: m.Language,
				})
			}
			g.Edges = append(g.Edges, Edge{
				From:   from,
				To:     to,
				Kind:   EdgeCalls,
				Weight: weights[key],
			})
		}
	}

	// Mark entry points so exports can style them.
	if ix != nil {
		for _, id := range ix.EntryPoints(m) {
			for i := range g.Nodes {
				if g.Nodes[i].ID == "fn:"+id {
					if g.Nodes[i].Metadata == nil {
						g.Nodes[i].Metadata = map[string]string{}
					}
					g.Nodes[i].Metadata["entry_point"] = "true"
					g.Stats.EntryPointCount++
				}
			}
		}
	}

	g.addTypeDependencies()
	g.computeStats()
	return g
}

// stripKind removes the node kind prefix from an ID.
func stripKind(nodeID string) string {
	for _, prefix := range []string{"fn:", "type:", "ns:"} {
		if strings.HasPrefix(nodeID, prefix) {
			return nodeID[len(prefix):]
		}
	}
	return nodeID
}

// enclosingType extracts the declaring type from a method node ID like
// "fn:Shop.OrderService.Place".
func enclosingType(nodeID string) string {
	id := stripKind(nodeID)
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i]
	}
	return id
}

func lastSegment(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}

func firstSegment(id string) string {
	if i := strings.Index(id, "."); i > 0 {
		return id[:i]
	}
	return ""
}

// addTypeDependencies computes type-to-type edges from cross-type calls.
func (g *Graph) addTypeDependencies() {
	typeDeps := make(map[string]map[string]bool)
	for _, e := range g.Edges {
		if e.Kind != EdgeCalls {
			continue
		}
		fromType := enclosingType(e.From)
		toType := enclosingType(e.To)
		if fromType != "" && toType != "" && fromType != toType {
			if typeDeps[fromType] == nil {
				typeDeps[fromType] = make(map[string]bool)
			}
			typeDeps[fromType][toType] = true
		}
	}

	froms := make([]string, 0, len(typeDeps))
	for from := range typeDeps {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		tos := make([]string, 0, len(typeDeps[from]))
		for to := range typeDeps[from] {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		for _, to := range tos {
			g.Edges = append(g.Edges, Edge{
				From: "type:" + from,
				To:   "type:" + to,
				Kind: EdgeDependsOn,
			})
		}
	}
}

// computeStats computes graph metrics
func (g *Graph) computeStats() {
	g.Stats.TotalNodes = len(g.Nodes)
	g.Stats.TotalEdges = len(g.Edges)
	g.Stats.TypeFanOut = make(map[string]int)

	for _, n := range g.Nodes {
		switch n.Kind {
		case NodeNamespace:
			g.Stats.NamespaceCount++
		case NodeType:
			g.Stats.TypeCount++
		case NodeMethod:
			g.Stats.MethodCount++
		}
	}

	fanOut := make(map[string]int)
	fanIn := make(map[string]int)
	for _, e := range g.Edges {
		if e.Kind == EdgeCalls {
			fanOut[e.From] += e.Weight
			fanIn[e.To] += e.Weight
		}
		if e.Kind == EdgeDependsOn {
			g.Stats.TypeFanOut[stripKind(e.From)]++
		}
	}

	hotspots := make([]string, 0, len(fanOut))
	for id := range fanOut {
		hotspots = append(hotspots, id)
	}
	sort.Strings(hotspots)
	for _, id := range hotspots {
		if fanOut[id] > g.Stats.MaxFanOut {
			g.Stats.MaxFanOut = fanOut[id]
			g.Stats.HotspotNode = id
		}
	}
	for _, count := range fanIn {
		if count > g.Stats.MaxFanIn {
			g.Stats.MaxFanIn = count
		}
	}

	g.Stats.ConnectedComponents = g.countComponents()
	g.Stats.CyclicDeps = g.detectCycles()
}

// countComponents counts connected components via union-find
func (g *Graph) countComponents() int {
	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		fa, fb := find(a), find(b)
		if fa != fb {
			parent[fa] = fb
		}
	}

	for _, n := range g.Nodes {
		find(n.ID)
	}
	for _, e := range g.Edges {
		union(e.From, e.To)
	}

	roots := make(map[string]bool)
	for _, n := range g.Nodes {
		roots[find(n.ID)] = true
	}
	return len(roots)
}

// detectCycles finds cycles using DFS on type-level dependency edges
func (g *Graph) detectCycles() [][]string {
	adj := make(map[string][]string)
	types := make(map[string]bool)

	for _, e := range g.Edges {
		if e.Kind == EdgeDependsOn {
			from := stripKind(e.From)
			to := stripKind(e.To)
			adj[from] = append(adj[from], to)
			types[from] = true
			types[to] = true
		}
	}

	var cycles [][]string
	visited := make(map[string]int) // 0=unvisited, 1=in-progress, 2=done
	path := make([]string, 0)

	var dfs func(node string)
	dfs = func(node string) {
		if visited[node] == 2 {
			return
		}
		if visited[node] == 1 {
			cycle := make([]string, 0)
			for i := len(path) - 1; i >= 0; i-- {
				cycle = append(cycle, path[i])
				if path[i] == node {
					break
				}
			}
			for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
				cycle[i], cycle[j] = cycle[j], cycle[i]
			}
			cycles = append(cycles, cycle)
			return
		}
		visited[node] = 1
		path = append(path, node)
		for _, next := range adj[node] {
			dfs(next)
		}
		path = path[:len(path)-1]
		visited[node] = 2
	}

	sortedTypes := make([]string, 0, len(types))
	for t := range types {
		sortedTypes = append(sortedTypes, t)
	}
	sort.Strings(sortedTypes)

	for _, t := range sortedTypes {
		if visited[t] == 0 {
			dfs(t)
		}
	}

	return cycles
}
