package retrieval

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
)

// CachingSearcher remembers the hits of recently executed query strings so that a query repeated within a split, or
// across splits evaluated by the same process, is only searched once.
type CachingSearcher struct {
	Searcher
	cache *lru.Cache
}

// NewCachingSearcher wraps s with a cache holding the hits of up to size queries.
func NewCachingSearcher(s Searcher, size int) (*CachingSearcher, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachingSearcher{Searcher: s, cache: c}, nil
}

func cacheKey(query string, k int) string {
	return strconv.Itoa(k) + "\x00" + query
}

// BatchSearch answers what it can from the cache and sends the remaining queries to the wrapped searcher.
func (c *CachingSearcher) BatchSearch(ctx context.Context, queries, qids []string, k, threads int) (map[string][]Hit, error) {
	results := make(map[string][]Hit, len(qids))
	var missQueries, missIDs []string
	for i, q := range queries {
		if v, ok := c.cache.Get(cacheKey(q, k)); ok {
			results[qids[i]] = v.([]Hit)
			continue
		}
		missQueries = append(missQueries, q)
		missIDs = append(missIDs, qids[i])
	}
	if len(missQueries) == 0 {
		return results, nil
	}

	hits, err := c.Searcher.BatchSearch(ctx, missQueries, missIDs, k, threads)
	if err != nil {
		return nil, err
	}
	for i, qid := range missIDs {
		h, ok := hits[qid]
		if !ok {
			continue
		}
		c.cache.Add(cacheKey(missQueries[i], k), h)
		results[qid] = h
	}
	return results, nil
}
