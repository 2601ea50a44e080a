package eval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hscells/q2d/fetch"
	"github.com/hscells/trecresults"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FormatError is raised for a line of a qrels file that is not `topic iteration docid grade`.
type FormatError struct {
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("qrels line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ParseQrels reads relevance assessments in trec format. Every line must have exactly four whitespace separated
// fields; the second (the iteration) is kept but never used.
func ParseQrels(r io.Reader) (trecresults.QrelsFile, error) {
	f := trecresults.QrelsFile{Qrels: make(map[string]trecresults.Qrels)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return trecresults.QrelsFile{}, &FormatError{
				Line:   line,
				Text:   text,
				Reason: fmt.Sprintf("expected 4 fields, got %d", len(fields)),
			}
		}
		grade, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return trecresults.QrelsFile{}, &FormatError{
				Line:   line,
				Text:   text,
				Reason: "relevance grade is not an integer",
			}
		}

		topic, docID := fields[0], fields[2]
		if _, ok := f.Qrels[topic]; !ok {
			f.Qrels[topic] = make(trecresults.Qrels)
		}
		f.Qrels[topic][docID] = &trecresults.Qrel{
			Topic:     topic,
			Iteration: fields[1],
			DocId:     docID,
			Score:     grade,
		}
	}
	if err := sc.Err(); err != nil {
		return trecresults.QrelsFile{}, err
	}
	return f, nil
}

// NumAssessments is the total number of (topic, document) pairs assessed.
func NumAssessments(f trecresults.QrelsFile) int {
	n := 0
	for _, q := range f.Qrels {
		n += len(q)
	}
	return n
}

// LoadQrels opens and parses the relevance assessments at source, a path or URL.
func LoadQrels(ctx context.Context, opener fetch.Opener, source string) (trecresults.QrelsFile, error) {
	r, err := opener.Open(ctx, source)
	if err != nil {
		return trecresults.QrelsFile{}, err
	}
	defer r.Close()

	f, err := ParseQrels(r)
	if err != nil {
		return trecresults.QrelsFile{}, errors.Wrapf(err, "parsing %s", source)
	}

	logrus.WithFields(logrus.Fields{
		"source":  source,
		"queries": len(f.Qrels),
		"qrels":   NumAssessments(f),
	}).Info("loaded relevance assessments")
	return f, nil
}
