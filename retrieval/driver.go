package retrieval

import (
	"context"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/hscells/trecresults"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBatchSize is how many queries are sent to the engine per call.
	DefaultBatchSize = 64
	// DefaultDepth is how many documents are retrieved per query.
	DefaultDepth = 1000
	// DefaultThreads is the parallelism hint passed to the engine.
	DefaultThreads = 8
)

// Driver submits queries to a Searcher one batch at a time.
type Driver struct {
	Searcher  Searcher
	BatchSize int
	Depth     int
	Threads   int
	RunName   string
	Handlers  []ResultsHandler
	// Progress is where the progress bar is drawn; nil hides it.
	Progress io.Writer
}

// NewDriver creates a driver with the default batch size, depth, and thread hint, which deduplicates result lists
// and draws progress to stderr.
func NewDriver(s Searcher) Driver {
	return Driver{
		Searcher:  s,
		BatchSize: DefaultBatchSize,
		Depth:     DefaultDepth,
		Threads:   DefaultThreads,
		RunName:   "q2d",
		Handlers:  []ResultsHandler{NewDeduplicator()},
		Progress:  os.Stderr,
	}
}

// Batch is the half-open range of queries [From, To).
type Batch struct {
	From, To int
}

// Batches partitions n queries into consecutive batches of size; the last may be shorter.
func Batches(n, size int) []Batch {
	if size <= 0 {
		size = 1
	}
	batches := make([]Batch, 0, (n+size-1)/size)
	for from := 0; from < n; from += size {
		to := from + size
		if to > n {
			to = n
		}
		batches = append(batches, Batch{From: from, To: to})
	}
	return batches
}

// Run executes every query and returns the ranked results keyed by query id. Batches are submitted strictly in order
// and synchronously; the first failing batch aborts the run with a *RetrievalError.
func (d Driver) Run(ctx context.Context, queries []Query) (map[string]trecresults.ResultList, error) {
	batches := Batches(len(queries), d.BatchSize)

	w := d.Progress
	if w == nil {
		w = io.Discard
	}
	bar := pb.New(len(batches)).SetWriter(w)
	bar.Start()
	defer bar.Finish()

	results := make(map[string]trecresults.ResultList, len(queries))
	for i, b := range batches {
		texts := make([]string, b.To-b.From)
		qids := make([]string, b.To-b.From)
		for j, q := range queries[b.From:b.To] {
			texts[j] = q.Text
			qids[j] = q.ID
		}

		hits, err := d.Searcher.BatchSearch(ctx, texts, qids, d.Depth, d.Threads)
		if err != nil {
			return nil, &RetrievalError{Batch: i, From: b.From, To: b.To, Err: err}
		}

		for _, qid := range qids {
			h, ok := hits[qid]
			if !ok {
				continue
			}
			list, err := d.resultList(qid, h)
			if err != nil {
				return nil, &RetrievalError{Batch: i, From: b.From, To: b.To, Err: err}
			}
			results[qid] = list
			delete(hits, qid)
		}
		for qid := range hits {
			logrus.WithFields(logrus.Fields{
				"batch": i,
				"topic": qid,
			}).Warn("search engine returned results for a query that was not in the batch")
		}

		bar.Increment()
	}

	logrus.WithFields(logrus.Fields{
		"queries": len(queries),
		"batches": len(batches),
		"ranked":  len(results),
	}).Info("retrieval complete")
	return results, nil
}

// resultList converts hits into a result list in engine order, cut at the driver depth.
func (d Driver) resultList(qid string, hits []Hit) (trecresults.ResultList, error) {
	if d.Depth > 0 && len(hits) > d.Depth {
		hits = hits[:d.Depth]
	}
	list := make(trecresults.ResultList, len(hits))
	for i, hit := range hits {
		list[i] = &trecresults.Result{
			Topic:     qid,
			Iteration: "Q0",
			DocId:     hit.DocID,
			Rank:      int64(i + 1),
			Score:     hit.Score,
			RunName:   d.RunName,
		}
	}
	for _, h := range d.Handlers {
		if err := h.Handle(&list); err != nil {
			return nil, err
		}
	}
	return list, nil
}
