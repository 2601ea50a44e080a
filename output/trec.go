package output

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/hscells/trecresults"
)

// TrecResults represents the output format for trec results.
type TrecResults struct {
	Path    string
	Results map[string]trecresults.ResultList
}

// Write saves the results as a run file, one `topic Q0 docid rank score run` line per result, topics sorted.
func (t TrecResults) Write() error {
	topics := make([]string, 0, len(t.Results))
	for topic := range t.Results {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, topic := range topics {
		for _, r := range t.Results[topic] {
			fmt.Fprintf(w, "%s %s %s %d %s %s\n",
				r.Topic, r.Iteration, r.DocId, r.Rank, strconv.FormatFloat(r.Score, 'f', -1, 64), r.RunName)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return WriteFileAtomic(t.Path, buf.Bytes())
}
