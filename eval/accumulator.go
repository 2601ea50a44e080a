package eval

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultPrecision is the number of decimal places reported means are rounded to.
const DefaultPrecision = 5

// ErrNoScoredQueries is returned when a run shares no topics with the relevance assessments.
var ErrNoScoredQueries = errors.New("no query has both results and relevance assessments")

// Measurement is the value of one evaluation measure.
type Measurement struct {
	Name  string
	Value float64
}

// Summary is a list of measurements in reporting order.
type Summary []Measurement

// Get looks up a measurement by name.
func (s Summary) Get(name string) (float64, bool) {
	for _, m := range s {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// Accumulator collects per-topic scores and averages them. The mean of each measure is taken over the topics added,
// which is the number of scored topics rather than the number of queries issued.
type Accumulator struct {
	names  []string
	values map[string][]float64
	n      int
}

// NewAccumulator creates an empty accumulator for the measures computed by evaluators.
func NewAccumulator(evaluators []Evaluator) *Accumulator {
	a := &Accumulator{
		names:  make([]string, len(evaluators)),
		values: make(map[string][]float64, len(evaluators)),
	}
	for i, e := range evaluators {
		a.names[i] = e.Name()
	}
	return a
}

// Add records the scores of one topic. A measure missing from scores counts as zero for that topic.
func (a *Accumulator) Add(scores map[string]float64) {
	for _, name := range a.names {
		a.values[name] = append(a.values[name], scores[name])
	}
	a.n++
}

// Len is the number of topics added.
func (a *Accumulator) Len() int {
	return a.n
}

// Summary averages every measure over the topics added and rounds the means to precision decimal places.
func (a *Accumulator) Summary(precision int) (Summary, error) {
	if a.n == 0 {
		return nil, ErrNoScoredQueries
	}
	s := make(Summary, len(a.names))
	for i, name := range a.names {
		s[i] = Measurement{
			Name:  name,
			Value: floats.Round(stat.Mean(a.values[name], nil), precision),
		}
	}
	return s, nil
}

// Summarise averages per-topic scores, as produced by Evaluate, into a summary. Topics are added in sorted order so
// that the floating point sums, and therefore the rounded means, are the same on every run.
func Summarise(evaluators []Evaluator, scores map[string]map[string]float64, precision int) (Summary, error) {
	topics := make([]string, 0, len(scores))
	for topic := range scores {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	a := NewAccumulator(evaluators)
	for _, topic := range topics {
		a.Add(scores[topic])
	}
	return a.Summary(precision)
}
