// Package retrieval declares the external search service the engine
// treats as a read-only collaborator: semantic + lexical search over
// the working repo, returning ranked snippets. Index maintenance
// (build/watch) lives entirely outside this package.
package retrieval

import "context"

// Snippet is one ranked search hit.
type Snippet struct {
	Path    string
	StartLine int
	EndLine   int
	Text    string
	Score   float64
}

// Index is the interface the rag_search subagent tool calls. The
// engine never constructs an Index itself; one is injected at wiring
// time by whatever owns .rag_index/ on disk.
type Index interface {
	Search(ctx context.Context, query string, limit int) ([]Snippet, error)
}

// NullIndex returns no results for every query. Useful when no index
// has been built yet, or in tests that don't exercise retrieval.
type NullIndex struct{}

func (NullIndex) Search(ctx context.Context, query string, limit int) ([]Snippet, error) {
	return nil, nil
}
