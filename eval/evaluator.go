// Package eval scores ranked result lists against relevance assessments using trec_eval style measures, and
// averages those scores over the queries of a run.
package eval

import (
	"sort"

	"github.com/hscells/trecresults"
)

// RelevanceGrade is the grade a document must exceed to be considered relevant by binary measures.
const RelevanceGrade int64 = 0

// DefaultCutoffs are the ranks each measure is reported at.
var DefaultCutoffs = []int{10, 50, 100, 200, 1000}

// Evaluator is an interface for evaluating a retrieved list of documents.
type Evaluator interface {
	Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64
	Name() string
}

// Measures creates NDCG, MAP and Recall evaluators at every cutoff. The order of the returned evaluators, every
// NDCG cutoff then every MAP cutoff then every Recall cutoff, is the order measures are reported in.
func Measures(cutoffs ...int) []Evaluator {
	evaluators := make([]Evaluator, 0, 3*len(cutoffs))
	for _, k := range cutoffs {
		evaluators = append(evaluators, NDCG{K: k})
	}
	for _, k := range cutoffs {
		evaluators = append(evaluators, AP{K: k})
	}
	for _, k := range cutoffs {
		evaluators = append(evaluators, Recall{K: k})
	}
	return evaluators
}

// Evaluate scores the results of each topic using the supplied evaluation measures. Only topics that have both
// assessments and a non-empty result list are scored; every other topic is left out, as trec_eval does. Each list
// is scored in trec_eval order (see TrecOrder), not in the order it was retrieved in.
func Evaluate(evaluators []Evaluator, results map[string]trecresults.ResultList, qrels trecresults.QrelsFile) map[string]map[string]float64 {
	scores := make(map[string]map[string]float64)
	for topic, resultList := range results {
		q, ok := qrels.Qrels[topic]
		if !ok || len(resultList) == 0 {
			continue
		}
		list := TrecOrder(resultList)
		scores[topic] = make(map[string]float64, len(evaluators))
		for _, evaluator := range evaluators {
			scores[topic][evaluator.Name()] = evaluator.Score(&list, q)
		}
	}
	return scores
}

// TrecOrder returns a copy of list ranked the way trec_eval ranks a run: by score, highest first, with ties broken by
// document id in descending order. The input list is left untouched.
func TrecOrder(list trecresults.ResultList) trecresults.ResultList {
	sorted := make(trecresults.ResultList, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].DocId > sorted[j].DocId
	})
	return sorted
}

func relevant(qrels trecresults.Qrels, docID string) bool {
	qrel, ok := qrels[docID]
	return ok && qrel.Score > RelevanceGrade
}
