package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/hscells/trecresults"
)

// DCG is discounted cumulative gain over the first K results, using the relevance grade as the gain.
type DCG struct{ K int }

// NDCG is DCG normalised by the DCG of the ideal ordering of the assessed documents.
type NDCG struct{ K int }

// AP is average precision over the first K results, reported as MAP once averaged over topics. As in trec_eval's
// map_cut, it is normalised by every relevant document for the topic, not only those that fit in the cutoff.
type AP struct{ K int }

func cut(results *trecresults.ResultList, k int) trecresults.ResultList {
	list := *results
	if k > 0 && len(list) > k {
		return list[:k]
	}
	return list
}

func (e DCG) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	var score float64
	for i, item := range cut(results, e.K) {
		if qrel, ok := qrels[item.DocId]; ok && qrel.Score > RelevanceGrade {
			score += float64(qrel.Score) / math.Log2(float64(i)+2)
		}
	}
	return score
}

func (e DCG) Name() string {
	if e.K > 0 {
		return fmt.Sprintf("DCG@%d", e.K)
	}
	return "DCG"
}

// idealDCG is the DCG of the assessed documents sorted by grade.
func idealDCG(qrels trecresults.Qrels, k int) float64 {
	grades := make([]int64, 0, len(qrels))
	for _, rel := range qrels {
		if rel.Score > RelevanceGrade {
			grades = append(grades, rel.Score)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		return grades[i] > grades[j]
	})
	if k > 0 && len(grades) > k {
		grades = grades[:k]
	}

	var score float64
	for i, g := range grades {
		score += float64(g) / math.Log2(float64(i)+2)
	}
	return score
}

func (e NDCG) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	idcg := idealDCG(qrels, e.K)
	if idcg == 0 {
		return 0
	}
	return DCG{K: e.K}.Score(results, qrels) / idcg
}

func (e NDCG) Name() string {
	if e.K > 0 {
		return fmt.Sprintf("NDCG@%d", e.K)
	}
	return "NDCG"
}

func (e AP) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	R := NumRel.Score(results, qrels)
	if R == 0 {
		return 0
	}
	var sum, relRet float64
	for i, res := range cut(results, e.K) {
		if relevant(qrels, res.DocId) {
			relRet++
			sum += relRet / float64(i+1)
		}
	}
	return sum / R
}

func (e AP) Name() string {
	if e.K > 0 {
		return fmt.Sprintf("MAP@%d", e.K)
	}
	return "MAP"
}
