package q2d

import (
	"github.com/hscells/q2d/eval"
	"github.com/hscells/trecresults"
)

// Result is the outcome of evaluating a split.
type Result struct {
	Split string
	// Queries is the number of queries searched; only those with results and assessments are in Scores.
	Queries int
	Summary eval.Summary
	Scores  map[string]map[string]float64
	Results map[string]trecresults.ResultList
	// OutputErrors are the outputs that could not be saved.
	OutputErrors []error
}
