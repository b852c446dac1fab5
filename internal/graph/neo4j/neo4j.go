// Package neo4j stores the resolved call graph in Neo4j.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
)

// Neo4jRepository implements graph.Repository using Neo4j.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) StoreCallGraph(ctx context.Context, ix *callindex.Index, entryPoints []string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, e := range ix.Edges() {
			_, err := tx.Run(ctx,
				"MERGE (a:Symbol {id: $caller}) SET a.module = $module "+
					"MERGE (b:Symbol {id: $callee}) "+
					"MERGE (a)-[:CALLS]->(b)",
				map[string]any{"caller": e.CallerID, "callee": e.CalleeID, "module": e.Module})
			if err != nil {
				return nil, err
			}
		}
		for _, id := range entryPoints {
			_, err := tx.Run(ctx,
				"MERGE (s:Symbol {id: $id}) SET s.entry_point = true",
				map[string]any{"id": id})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store call graph: %w", err)
	}
	return nil
}

func (r *Neo4jRepository) QueryCallers(ctx context.Context, symbolID string) ([]string, error) {
	return r.queryNeighbors(ctx,
		"MATCH (caller:Symbol)-[:CALLS]->(:Symbol {id: $id}) RETURN caller.id AS id ORDER BY id",
		symbolID)
}

func (r *Neo4jRepository) QueryCallees(ctx context.Context, symbolID string) ([]string, error) {
	return r.queryNeighbors(ctx,
		"MATCH (:Symbol {id: $id})-[:CALLS]->(callee:Symbol) RETURN callee.id AS id ORDER BY id",
		symbolID)
}

func (r *Neo4jRepository) queryNeighbors(ctx context.Context, query, symbolID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, map[string]any{"id": symbolID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			v, _ := records.Record().Get("id")
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}
