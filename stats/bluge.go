package stats

import (
	"context"

	"github.com/blugelabs/bluge"
	"github.com/hscells/q2d/retrieval"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BlugeSearcher executes queries on a local bluge index using its default BM25 similarity.
type BlugeSearcher struct {
	reader *bluge.Reader
	fields []string
}

// BlugeFields sets the fields a query is matched against. A document's score is the sum of its field scores.
func BlugeFields(fields ...string) func(*BlugeSearcher) {
	return func(b *BlugeSearcher) {
		b.fields = fields
	}
}

// NewBlugeSearcher opens the index at path for searching.
func NewBlugeSearcher(path string, options ...func(*BlugeSearcher)) (*BlugeSearcher, error) {
	reader, err := bluge.OpenReader(bluge.DefaultConfig(path))
	if err != nil {
		return nil, errors.Wrapf(err, "opening bluge index %s", path)
	}
	b := &BlugeSearcher{
		reader: reader,
		fields: []string{DefaultField},
	}
	for _, option := range options {
		option(b)
	}
	if len(b.fields) == 0 {
		b.fields = []string{DefaultField}
	}
	logrus.WithFields(logrus.Fields{"index": path, "fields": b.fields}).Debug("opened bluge index")
	return b, nil
}

// Close releases the index.
func (b *BlugeSearcher) Close() error {
	return b.reader.Close()
}

// BatchSearch runs every query of the batch, at most threads at a time.
func (b *BlugeSearcher) BatchSearch(ctx context.Context, queries, qids []string, k, threads int) (map[string][]retrieval.Hit, error) {
	if err := checkBatch(queries, qids); err != nil {
		return nil, err
	}
	if threads < 1 {
		threads = 1
	}

	hits := make([][]retrieval.Hit, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := range queries {
		i := i
		g.Go(func() error {
			h, err := b.search(ctx, queries[i], k)
			if err != nil {
				return errors.Wrapf(err, "query %s", qids[i])
			}
			hits[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collect(qids, hits), nil
}

func (b *BlugeSearcher) query(text string) bluge.Query {
	if len(b.fields) == 1 {
		return bluge.NewMatchQuery(text).SetField(b.fields[0])
	}
	boolean := bluge.NewBooleanQuery()
	for _, field := range b.fields {
		boolean.AddShould(bluge.NewMatchQuery(text).SetField(field))
	}
	return boolean
}

func (b *BlugeSearcher) search(ctx context.Context, text string, k int) ([]retrieval.Hit, error) {
	it, err := b.reader.Search(ctx, bluge.NewTopNSearch(k, b.query(text)))
	if err != nil {
		return nil, err
	}

	var hits []retrieval.Hit
	for {
		match, err := it.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var docID string
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == IDField {
				docID = string(value)
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if docID == "" {
			return nil, errors.Errorf("hit %d has no stored %s field", match.Number, IDField)
		}
		hits = append(hits, retrieval.Hit{DocID: docID, Score: match.Score})
	}
	return hits, nil
}
