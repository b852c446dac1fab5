// Package graph defines the storage surface for the resolved call graph.
package graph

import (
	"context"

	"github.com/efebarandurmaz/blueprint/internal/callindex"
)

// Repository provides graph storage for the caller index.
type Repository interface {
	// StoreCallGraph persists the resolved call edges. Symbols in
	// entryPoints are flagged so downstream queries can start from them.
	StoreCallGraph(ctx context.Context, ix *callindex.Index, entryPoints []string) error
	// QueryCallers returns the symbols calling the given symbol.
	QueryCallers(ctx context.Context, symbolID string) ([]string, error)
	// QueryCallees returns the symbols the given symbol calls.
	QueryCallees(ctx context.Context, symbolID string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
