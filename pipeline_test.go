package q2d_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hscells/q2d"
	"github.com/hscells/q2d/eval"
	"github.com/hscells/q2d/fetch"
	"github.com/hscells/q2d/output"
	"github.com/hscells/q2d/query"
	"github.com/hscells/q2d/retrieval"
)

const split = `{"query_id": "1", "query": "cat", "pseudo_doc": "cats purr"}
{"query_id": "2", "query": "dog", "pseudo_doc": "dogs bark"}
{"query_id": "3", "query": "unjudged", "pseudo_doc": "nothing"}
`

const qrels = `1 0 d1 1
1 0 d2 0
2 0 d5 2
4 0 d9 1
`

// fixedSearcher answers each query id with a fixed ranking and records the query text it was sent.
type fixedSearcher struct {
	hits  map[string][]retrieval.Hit
	texts map[string]string
	err   error
}

func (s *fixedSearcher) BatchSearch(ctx context.Context, queries, qids []string, k, threads int) (map[string][]retrieval.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := make(map[string][]retrieval.Hit)
	for i, qid := range qids {
		s.texts[qid] = queries[i]
		res[qid] = s.hits[qid]
	}
	return res, nil
}

type fixture struct {
	dir      string
	searcher *fixedSearcher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dev.jsonl"), []byte(split), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "qrels.dev.tsv"), []byte(qrels), 0644); err != nil {
		t.Fatal(err)
	}
	return fixture{
		dir: dir,
		searcher: &fixedSearcher{
			hits: map[string][]retrieval.Hit{
				"1": {{DocID: "d2", Score: 3}, {DocID: "d1", Score: 2}},
				"2": {{DocID: "d5", Score: 9}},
				"3": {{DocID: "d1", Score: 1}},
			},
			texts: make(map[string]string),
		},
	}
}

func (f fixture) pipeline(components ...func() interface{}) q2d.Pipeline {
	opener := fetch.New(fetch.Progress(nil))
	driver := retrieval.NewDriver(f.searcher)
	driver.Progress = nil
	components = append([]func() interface{}{
		q2d.Judgements(opener, func(split string) (string, error) {
			return filepath.Join(f.dir, "qrels.dev.tsv"), nil
		}),
	}, components...)
	return q2d.NewPipeline(query.NewJSONLQuerySource(opener, f.dir), driver, components...)
}

func TestPipelineExecute(t *testing.T) {
	f := newFixture(t)
	artifacts := t.TempDir()
	var console strings.Builder
	p := f.pipeline(
		q2d.EvaluationOutput(output.Console(&console), output.Artifact(artifacts)),
		q2d.TrecOutput(filepath.Join(artifacts, "run.txt")),
		q2d.MeasurementOutput(filepath.Join(artifacts, "per_query.csv"), output.CsvMeasurementFormatter))

	r, err := p.Execute(context.Background(), "validation")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.OutputErrors) > 0 {
		t.Fatalf("unexpected output errors %v", r.OutputErrors)
	}
	if r.Queries != 3 || len(r.Scores) != 2 {
		t.Fatalf("expected 3 queries with 2 scored, got %d and %d", r.Queries, len(r.Scores))
	}
	if f.searcher.texts["1"] != "cat cat cat cat cat cats purr" {
		t.Fatalf("query 1 was not expanded, got %q", f.searcher.texts["1"])
	}
	if len(r.Summary) != 15 {
		t.Fatalf("expected 15 measurements, got %d", len(r.Summary))
	}

	// Query 1 has its relevant document at rank 2, query 2 at rank 1.
	if v, _ := r.Summary.Get("MAP@10"); v != 0.75 {
		t.Errorf("MAP@10 = %v, want 0.75", v)
	}
	if v, _ := r.Summary.Get("Recall@1000"); v != 1 {
		t.Errorf("Recall@1000 = %v, want 1", v)
	}
	if v, _ := r.Summary.Get("NDCG@10"); v != 0.81546 {
		t.Errorf("NDCG@10 = %v, want 0.81546", v)
	}

	if !strings.HasPrefix(console.String(), "Evaluation results for validation split:\n{\n    \"NDCG@10\": ") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	b, err := os.ReadFile(filepath.Join(artifacts, "evaluation_results_validation.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"MAP@10": 0.75`) || strings.Count(string(b), ":") != 15 {
		t.Fatalf("unexpected artifact %s", b)
	}
	run, err := os.ReadFile(filepath.Join(artifacts, "run.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(run), "1 Q0 d2 1 3 q2d\n1 Q0 d1 2 2 q2d\n") {
		t.Fatalf("unexpected run file %q", run)
	}
	perQuery, err := os.ReadFile(filepath.Join(artifacts, "per_query.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(perQuery)), "\n"); len(lines) != 3 {
		t.Fatalf("expected a header and 2 scored queries, got %q", perQuery)
	}
}

func TestPipelineArtifactFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(q2d.EvaluationOutput(output.Artifact(filepath.Join(f.dir, "missing", "dir"))))

	r, err := p.Execute(context.Background(), "dev")
	if err != nil {
		t.Fatalf("an unwritable artifact failed the run: %v", err)
	}
	if len(r.OutputErrors) != 1 {
		t.Fatalf("expected one output error, got %v", r.OutputErrors)
	}
	var se *q2d.StageError
	if !errors.As(r.OutputErrors[0], &se) || se.Stage != q2d.StageArtifactWrite {
		t.Fatalf("expected an artifact write error, got %v", r.OutputErrors[0])
	}
	if len(r.Summary) != 15 {
		t.Fatal("the summary was not computed")
	}
}

func TestPipelineStageErrors(t *testing.T) {
	tests := []struct {
		name  string
		split string
		setup func(f *fixture) []func() interface{}
		stage string
	}{
		{
			name:  "missing assessments",
			split: "dev",
			setup: func(f *fixture) []func() interface{} {
				return []func() interface{}{q2d.Judgements(fetch.New(fetch.Progress(nil)), func(string) (string, error) {
					return filepath.Join(f.dir, "absent.tsv"), nil
				})}
			},
			stage: q2d.StageJudgmentLoad,
		},
		{
			name:  "malformed assessments",
			split: "dev",
			setup: func(f *fixture) []func() interface{} {
				_ = os.WriteFile(filepath.Join(f.dir, "qrels.dev.tsv"), []byte("1 0 d1\n"), 0644)
				return nil
			},
			stage: q2d.StageJudgmentLoad,
		},
		{
			name:  "unknown split",
			split: "holdout",
			stage: q2d.StageDatasetLoad,
		},
		{
			name:  "engine failure",
			split: "dev",
			setup: func(f *fixture) []func() interface{} {
				f.searcher.err = errors.New("index unavailable")
				return nil
			},
			stage: q2d.StageBatchSearch,
		},
		{
			name:  "nothing scored",
			split: "dev",
			setup: func(f *fixture) []func() interface{} {
				f.searcher.hits = map[string][]retrieval.Hit{}
				return nil
			},
			stage: q2d.StageEvaluation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var components []func() interface{}
			if tt.setup != nil {
				components = tt.setup(&f)
			}
			_, err := f.pipeline(components...).Execute(context.Background(), tt.split)
			var se *q2d.StageError
			if !errors.As(err, &se) {
				t.Fatalf("expected a StageError, got %v", err)
			}
			if se.Stage != tt.stage {
				t.Fatalf("failed in stage %q, want %q: %v", se.Stage, tt.stage, err)
			}
		})
	}
}

func TestPipelineNothingScored(t *testing.T) {
	f := newFixture(t)
	f.searcher.hits = map[string][]retrieval.Hit{}
	_, err := f.pipeline().Execute(context.Background(), "dev")
	if !errors.Is(err, eval.ErrNoScoredQueries) {
		t.Fatalf("expected ErrNoScoredQueries, got %v", err)
	}
}

func TestPipelineBatchError(t *testing.T) {
	f := newFixture(t)
	f.searcher.err = errors.New("index unavailable")
	_, err := f.pipeline().Execute(context.Background(), "dev")
	var re *retrieval.RetrievalError
	if !errors.As(err, &re) || re.Batch != 0 || re.From != 0 || re.To != 3 {
		t.Fatalf("expected the first batch to fail, got %v", err)
	}
}
