// Package stats provides implementations of the search engines queries are executed on.
package stats

import (
	"github.com/hscells/q2d/retrieval"
	"github.com/pkg/errors"
)

// IDField is the stored field that holds the external id of an indexed passage.
const IDField = "_id"

// DefaultField is the field passages are indexed into and searched on when none is configured.
const DefaultField = "body"

var (
	_ retrieval.Searcher = (*BlugeSearcher)(nil)
	_ retrieval.Searcher = (*ElasticsearchSearcher)(nil)
)

func checkBatch(queries, qids []string) error {
	if len(queries) != len(qids) {
		return errors.Errorf("batch has %d queries but %d query ids", len(queries), len(qids))
	}
	return nil
}

func collect(qids []string, hits [][]retrieval.Hit) map[string][]retrieval.Hit {
	results := make(map[string][]retrieval.Hit, len(qids))
	for i, qid := range qids {
		results[qid] = hits[i]
	}
	return results
}
