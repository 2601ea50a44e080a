package eval_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/hscells/q2d/eval"
	"github.com/hscells/trecresults"
)

func run(lists map[string][]string) map[string]trecresults.ResultList {
	results := make(map[string]trecresults.ResultList, len(lists))
	for topic, docs := range lists {
		results[topic] = *listOf(topic, docs...)
	}
	return results
}

func assessments() trecresults.QrelsFile {
	return trecresults.QrelsFile{Qrels: map[string]trecresults.Qrels{
		"q1": qrelsOf("q1", map[string]int64{"d1": 1, "d2": 0}),
		"q2": qrelsOf("q2", map[string]int64{"d5": 2, "d6": 1}),
		"q3": qrelsOf("q3", map[string]int64{"d9": 1}),
	}}
}

func summarise(t *testing.T, results map[string]trecresults.ResultList) eval.Summary {
	t.Helper()
	evaluators := eval.Measures(eval.DefaultCutoffs...)
	s, err := eval.Summarise(evaluators, eval.Evaluate(evaluators, results, assessments()), eval.DefaultPrecision)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEvaluateScenario(t *testing.T) {
	results := run(map[string][]string{"q1": {"d1", "d2", "d3"}})
	s := summarise(t, results)
	if len(s) != 15 {
		t.Fatalf("expected 15 measurements, got %d", len(s))
	}
	for _, name := range []string{"Recall@10", "NDCG@10", "MAP@10"} {
		if v, ok := s.Get(name); !ok || v != 1 {
			t.Errorf("%s = %v, want 1", name, v)
		}
	}

	swapped := summarise(t, run(map[string][]string{"q1": {"d2", "d1"}}))
	if v, _ := swapped.Get("MAP@10"); v != 0.5 {
		t.Errorf("MAP@10 = %v, want 0.5", v)
	}
	if v, _ := swapped.Get("Recall@10"); v != 1 {
		t.Errorf("Recall@10 = %v, want 1", v)
	}
	if v, _ := swapped.Get("NDCG@10"); v >= 1 || v != 0.63093 {
		t.Errorf("NDCG@10 = %v, want 0.63093", v)
	}
}

func TestEvaluateExcludesUnassessedTopics(t *testing.T) {
	base := map[string][]string{
		"q1": {"d2", "d1"},
		"q2": {"d6", "x", "d5"},
	}
	want := summarise(t, run(base))

	base["synthetic"] = []string{"d1", "d5", "d9"}
	got := summarise(t, run(base))

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("adding an unassessed topic changed %s from %v to %v", want[i].Name, want[i].Value, got[i].Value)
		}
	}
}

func TestEvaluateSkipsTopicsWithoutResults(t *testing.T) {
	evaluators := eval.Measures(eval.DefaultCutoffs...)
	results := run(map[string][]string{"q1": {"d1"}, "q2": {}})
	scores := eval.Evaluate(evaluators, results, assessments())
	if len(scores) != 1 {
		t.Fatalf("expected only q1 to be scored, got %v", scores)
	}
	if _, ok := scores["q3"]; ok {
		t.Fatal("q3 was never retrieved for and must not be scored")
	}
}

func TestEvaluateDividesByScoredTopics(t *testing.T) {
	// q1 is perfect and q2 retrieves nothing relevant; q3 is never searched, so the mean is over two topics.
	s := summarise(t, run(map[string][]string{"q1": {"d1"}, "q2": {"x", "y"}}))
	if v, _ := s.Get("Recall@1000"); v != 0.5 {
		t.Fatalf("Recall@1000 = %v, want 0.5", v)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	results := run(map[string][]string{
		"q1": {"d3", "d1", "d2"},
		"q2": {"d6", "d7", "d8", "d5"},
		"q3": {"d1"},
	})
	first := summarise(t, results)
	for i := 0; i < 5; i++ {
		again := summarise(t, results)
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: %v != %v", i, again[j], first[j])
			}
		}
	}
}

func TestAccumulator(t *testing.T) {
	evaluators := []eval.Evaluator{eval.Recall{K: 10}, eval.AP{K: 10}}
	a := eval.NewAccumulator(evaluators)
	if _, err := a.Summary(eval.DefaultPrecision); err != eval.ErrNoScoredQueries {
		t.Fatalf("expected ErrNoScoredQueries, got %v", err)
	}

	a.Add(map[string]float64{"Recall@10": 1, "MAP@10": 1.0 / 3})
	a.Add(map[string]float64{"Recall@10": 0})
	a.Add(map[string]float64{"Recall@10": 0, "MAP@10": 0})
	if a.Len() != 3 {
		t.Fatalf("expected 3 topics, got %d", a.Len())
	}

	s, err := a.Summary(eval.DefaultPrecision)
	if err != nil {
		t.Fatal(err)
	}
	if s[0].Name != "Recall@10" || s[0].Value != 0.33333 {
		t.Errorf("unexpected first measurement %+v", s[0])
	}
	if s[1].Name != "MAP@10" || s[1].Value != 0.11111 {
		t.Errorf("unexpected second measurement %+v", s[1])
	}
	if _, ok := s.Get("NDCG@10"); ok {
		t.Error("summary has a measure that was never accumulated")
	}
}

func scored(topic string, hits ...interface{}) trecresults.ResultList {
	var l trecresults.ResultList
	for i := 0; i < len(hits); i += 2 {
		l = append(l, &trecresults.Result{
			Topic:     topic,
			Iteration: "Q0",
			DocId:     hits[i].(string),
			Rank:      int64(i/2 + 1),
			Score:     hits[i+1].(float64),
		})
	}
	return l
}

func TestEvaluateRanksByScore(t *testing.T) {
	evaluators := []eval.Evaluator{eval.AP{K: 10}, eval.NDCG{K: 10}}
	qrels := trecresults.QrelsFile{Qrels: map[string]trecresults.Qrels{
		"q1": qrelsOf("q1", map[string]int64{"d1": 1}),
	}}

	tests := []struct {
		name     string
		list     trecresults.ResultList
		ap, ndcg float64
	}{
		{"unsorted scores", scored("q1", "d2", 1.0, "d1", 5.0), 1, 1},
		{"tied scores break on descending id", scored("q1", "d1", 3.0, "d2", 3.0), 0.5, 1 / math.Log2(3)},
		{"tie lost by a smaller id", scored("q1", "d0", 2.0, "d1", 2.0, "d3", 1.0), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := eval.Evaluate(evaluators, map[string]trecresults.ResultList{"q1": tt.list}, qrels)
			if !approx(scores["q1"]["MAP@10"], tt.ap) {
				t.Errorf("MAP@10 = %v, want %v", scores["q1"]["MAP@10"], tt.ap)
			}
			if !approx(scores["q1"]["NDCG@10"], tt.ndcg) {
				t.Errorf("NDCG@10 = %v, want %v", scores["q1"]["NDCG@10"], tt.ndcg)
			}
		})
	}
}

func TestTrecOrderLeavesInputUntouched(t *testing.T) {
	list := scored("q1", "a", 1.0, "c", 2.0, "b", 2.0)
	sorted := eval.TrecOrder(list)
	if sorted[0].DocId != "c" || sorted[1].DocId != "b" || sorted[2].DocId != "a" {
		t.Fatalf("unexpected order %s %s %s", sorted[0].DocId, sorted[1].DocId, sorted[2].DocId)
	}
	if list[0].DocId != "a" || list[1].DocId != "c" || list[2].DocId != "b" {
		t.Fatal("the retrieved order was changed")
	}
}

func TestSummariseIsOrderIndependent(t *testing.T) {
	evaluators := []eval.Evaluator{eval.Recall{K: 10}}
	scores := make(map[string]map[string]float64)
	values := []float64{0.1, 0.2, 0.3, 0.7, 1e-9, 0.33333333, 0.9, 1e8, -1e8, 0.4}
	for i := 0; i < 200; i++ {
		scores[fmt.Sprintf("q%03d", i)] = map[string]float64{"Recall@10": values[i%len(values)]}
	}

	// Unrounded, so that any difference in the order of the sums shows.
	first, err := eval.Summarise(evaluators, scores, 15)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := eval.Summarise(evaluators, scores, 15)
		if err != nil {
			t.Fatal(err)
		}
		if again[0].Value != first[0].Value {
			t.Fatalf("run %d: mean %v differs from %v", i, again[0].Value, first[0].Value)
		}
	}
}
