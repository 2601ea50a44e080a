// Package retrieval runs expanded queries against a search engine in batches and collects ranked result lists.
package retrieval

import (
	"context"
	"fmt"

	"github.com/hscells/trecresults"
)

// Query is a query as submitted to the search engine.
type Query struct {
	ID   string
	Text string
}

// Hit is one retrieved document.
type Hit struct {
	DocID string
	Score float64
}

// Searcher is a search engine that can execute several queries in one call. The returned hits for each query id
// must be in rank order. threads is a hint for how much parallelism the engine may use for the call.
type Searcher interface {
	BatchSearch(ctx context.Context, queries, qids []string, k, threads int) (map[string][]Hit, error)
}

// ResultsHandler is the interface for operations on result lists.
type ResultsHandler interface {
	Handle(list *trecresults.ResultList) error
}

// RetrievalError is raised when the search engine fails a batch. Batches are numbered from zero and cover the
// queries [From, To).
type RetrievalError struct {
	Batch    int
	From, To int
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("batch %d (queries %d-%d): %v", e.Batch, e.From, e.To, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
