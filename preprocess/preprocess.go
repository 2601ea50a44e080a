// Package preprocess turns dataset records into the query strings submitted to the search engine.
package preprocess

import (
	"strings"

	"github.com/hscells/q2d/query"
	"github.com/hscells/q2d/retrieval"
)

// DefaultRepetitions is how many times the original query is repeated in front of the pseudo-document.
const DefaultRepetitions = 5

// Expand builds the expanded query for a record: the query text repeated, followed by the pseudo-document. Repeating
// the query keeps its terms weighted above the expansion terms. Nothing is trimmed, so an empty pseudo-document
// leaves a trailing space.
func Expand(record query.Record, repetitions int) string {
	queries := make([]string, repetitions)
	for i := range queries {
		queries[i] = record.Query
	}
	return strings.Join(queries, " ") + " " + record.PseudoDoc
}

// Expander expands whole splits.
type Expander struct {
	Repetitions int
}

// NewExpander creates an expander with the default number of repetitions.
func NewExpander() Expander {
	return Expander{Repetitions: DefaultRepetitions}
}

// Expand builds a retrieval query for every record, keeping dataset order.
func (e Expander) Expand(records []query.Record) []retrieval.Query {
	queries := make([]retrieval.Query, len(records))
	for i, r := range records {
		queries[i] = retrieval.Query{
			ID:   r.QueryID,
			Text: Expand(r, e.Repetitions),
		}
	}
	return queries
}
