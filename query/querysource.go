// Package query provides sources for loading the expanded-query datasets, one split at a time.
package query

import (
	"context"
	"sort"
)

// DefaultBase is where the query2doc MS MARCO split files are published.
const DefaultBase = "https://huggingface.co/datasets/intfloat/query2doc_msmarco/resolve/main"

// Splits of the query2doc MS MARCO dataset, and the file each one is stored in. The validation split is the
// dev file under the name the dataset builder exposes it as.
var splitFiles = map[string]string{
	"train":       "train.jsonl",
	"dev":         "dev.jsonl",
	"test":        "test.jsonl",
	"trec_dl2019": "trec_dl2019.jsonl",
	"trec_dl2020": "trec_dl2020.jsonl",
	"validation":  "dev.jsonl",
}

// QueriesSource represents a source for queries and how to load them.
type QueriesSource interface {
	// Load reads every record of a split, in dataset order.
	Load(ctx context.Context, split string) ([]Record, error)
}

// Splits lists the split names a source understands.
func Splits() []string {
	s := make([]string, 0, len(splitFiles))
	for split := range splitFiles {
		s = append(s, split)
	}
	sort.Strings(s)
	return s
}

// SplitFile returns the file name a split is stored in.
func SplitFile(split string) (string, bool) {
	f, ok := splitFiles[split]
	return f, ok
}

// QueryIDs projects the query_id column of records[from:to]. The range is clamped to the records.
func QueryIDs(records []Record, from, to int) []string {
	if to > len(records) {
		to = len(records)
	}
	if from > to {
		from = to
	}
	ids := make([]string, to-from)
	for i, r := range records[from:to] {
		ids[i] = r.QueryID
	}
	return ids
}
