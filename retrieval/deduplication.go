package retrieval

import (
	"github.com/hscells/trecresults"
)

// Deduplicator removes repeated documents from a result list, keeping the highest ranked occurrence, and renumbers
// the ranks. After it runs, a list can be treated as a mapping from document id to score.
type Deduplicator struct{}

// Handle deduplicates list in place.
func (Deduplicator) Handle(list *trecresults.ResultList) error {
	seen := make(map[string]struct{}, len(*list))
	a := (*list)[:0]
	for _, res := range *list {
		if _, ok := seen[res.DocId]; ok {
			continue
		}
		seen[res.DocId] = struct{}{}
		res.Rank = int64(len(a) + 1)
		a = append(a, res)
	}
	for i := len(a); i < len(*list); i++ {
		(*list)[i] = nil
	}
	*list = a
	return nil
}

// NewDeduplicator creates a deduplicating results handler.
func NewDeduplicator() Deduplicator {
	return Deduplicator{}
}
