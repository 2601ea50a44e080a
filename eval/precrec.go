package eval

import (
	"fmt"

	"github.com/hscells/trecresults"
)

// Recall is the fraction of the relevant documents for a topic retrieved in the first K results.
type Recall struct{ K int }

type numRel struct{}
type numRelRet struct{}

var (
	// NumRel is the number of relevant documents.
	NumRel = numRel{}
	// NumRelRet is the number of relevant documents retrieved.
	NumRelRet = numRelRet{}
)

func (rec Recall) Name() string {
	if rec.K > 0 {
		return fmt.Sprintf("Recall@%d", rec.K)
	}
	return "Recall"
}

func (rec Recall) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	numRel := NumRel.Score(results, qrels)
	if numRel == 0 {
		return 0.0
	}
	list := cut(results, rec.K)
	return NumRelRet.Score(&list, qrels) / numRel
}

func (numRel) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	n := 0.0
	for _, qrel := range qrels {
		if qrel.Score > RelevanceGrade {
			n++
		}
	}
	return n
}

func (numRel) Name() string {
	return "NumRel"
}

func (numRelRet) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	n := 0.0
	for _, result := range *results {
		if relevant(qrels, result.DocId) {
			n++
		}
	}
	return n
}

func (numRelRet) Name() string {
	return "NumRelRet"
}
