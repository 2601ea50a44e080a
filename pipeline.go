// Package q2d evaluates expanded queries: each query of a split is expanded with its pseudo-document, searched with
// BM25, and the rankings are scored against the relevance assessments of the split.
package q2d

import (
	"context"

	"github.com/hscells/q2d/eval"
	"github.com/hscells/q2d/fetch"
	"github.com/hscells/q2d/output"
	"github.com/hscells/q2d/preprocess"
	"github.com/hscells/q2d/query"
	"github.com/hscells/q2d/retrieval"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Pipeline contains all the information for evaluating a split.
type Pipeline struct {
	QueriesSource     query.QueriesSource
	Driver            retrieval.Driver
	Expander          preprocess.Expander
	Judgements        JudgementSource
	Evaluations       []eval.Evaluator
	Precision         Precision
	EvaluationWriters []output.EvaluationWriter
	OutputTrec        output.TrecResults
	MeasurementOutput MeasurementOutputFormat
}

// JudgementSource is where the relevance assessments of each split are read from.
type JudgementSource struct {
	Opener fetch.Opener
	// Qrels returns the location of the assessments of a split.
	Qrels func(split string) (string, error)
}

// Precision is the number of decimal places reported means are rounded to.
type Precision int

// MeasurementOutputFormat specifies how per-query scores should be saved.
type MeasurementOutputFormat struct {
	Path      string
	Formatter output.MeasurementFormatter
}

// Expansion sets how many times each query is repeated in front of its pseudo-document.
func Expansion(repetitions int) func() interface{} {
	return func() interface{} {
		return preprocess.Expander{Repetitions: repetitions}
	}
}

// Judgements configures where relevance assessments are read from.
func Judgements(opener fetch.Opener, qrels func(split string) (string, error)) func() interface{} {
	return func() interface{} {
		return JudgementSource{Opener: opener, Qrels: qrels}
	}
}

// Evaluation sets the evaluation measures of the pipeline.
func Evaluation(measures ...eval.Evaluator) func() interface{} {
	return func() interface{} {
		return measures
	}
}

// Rounding sets the number of decimal places reported means are rounded to.
func Rounding(precision int) func() interface{} {
	return func() interface{} {
		return Precision(precision)
	}
}

// EvaluationOutput adds places the evaluation summary is reported to.
func EvaluationOutput(writers ...output.EvaluationWriter) func() interface{} {
	return func() interface{} {
		return writers
	}
}

// TrecOutput configures trec output.
func TrecOutput(path string) func() interface{} {
	return func() interface{} {
		return output.TrecResults{
			Path: path,
		}
	}
}

// MeasurementOutput saves the per-query scores to path in the format of formatter.
func MeasurementOutput(path string, formatter output.MeasurementFormatter) func() interface{} {
	return func() interface{} {
		return MeasurementOutputFormat{
			Path:      path,
			Formatter: formatter,
		}
	}
}

// NewPipeline creates a new pipeline. The query source and the retrieval driver are required. Additional components
// are provided via the optional functional arguments; by default queries are expanded with five repetitions, scored
// with NDCG, MAP and Recall at the default cutoffs, and the summary is reported nowhere.
func NewPipeline(qs query.QueriesSource, driver retrieval.Driver, components ...func() interface{}) Pipeline {
	p := Pipeline{
		QueriesSource: qs,
		Driver:        driver,
		Expander:      preprocess.NewExpander(),
		Evaluations:   eval.Measures(eval.DefaultCutoffs...),
		Precision:     eval.DefaultPrecision,
	}

	for _, component := range components {
		val := component()
		switch v := val.(type) {
		case preprocess.Expander:
			p.Expander = v
		case JudgementSource:
			p.Judgements = v
		case []eval.Evaluator:
			p.Evaluations = v
		case Precision:
			p.Precision = v
		case []output.EvaluationWriter:
			p.EvaluationWriters = append(p.EvaluationWriters, v...)
		case output.TrecResults:
			p.OutputTrec = v
		case MeasurementOutputFormat:
			p.MeasurementOutput = v
		default:
			logrus.Warnf("ignoring unknown pipeline component %T", v)
		}
	}

	return p
}

// Execute evaluates one split. Relevance assessments are loaded before anything is searched, so that a split
// without assessments fails before any retrieval work. A failure to save outputs is logged and recorded in the
// result, but does not fail the run.
func (p Pipeline) Execute(ctx context.Context, split string) (Result, error) {
	if p.Judgements.Opener == nil || p.Judgements.Qrels == nil {
		return Result{}, &StageError{Stage: StageJudgmentLoad, Err: errors.New("no relevance assessments configured")}
	}
	source, err := p.Judgements.Qrels(split)
	if err != nil {
		return Result{}, &StageError{Stage: StageJudgmentLoad, Err: err}
	}
	qrels, err := eval.LoadQrels(ctx, p.Judgements.Opener, source)
	if err != nil {
		return Result{}, &StageError{Stage: StageJudgmentLoad, Err: errors.Wrapf(err, "split %s", split)}
	}

	records, err := p.QueriesSource.Load(ctx, split)
	if err != nil {
		return Result{}, &StageError{Stage: StageDatasetLoad, Err: errors.Wrapf(err, "split %s", split)}
	}
	queries := p.Expander.Expand(records)
	logrus.WithFields(logrus.Fields{"split": split, "queries": len(queries)}).Info("expanded queries")

	results, err := p.Driver.Run(ctx, queries)
	if err != nil {
		return Result{}, &StageError{Stage: StageBatchSearch, Err: err}
	}

	scores := eval.Evaluate(p.Evaluations, results, qrels)
	summary, err := eval.Summarise(p.Evaluations, scores, int(p.Precision))
	if err != nil {
		return Result{}, &StageError{Stage: StageEvaluation, Err: errors.Wrapf(err, "split %s", split)}
	}
	logrus.WithFields(logrus.Fields{
		"split":   split,
		"queries": len(queries),
		"scored":  len(scores),
	}).Info("evaluated run")

	r := Result{
		Split:   split,
		Queries: len(queries),
		Summary: summary,
		Scores:  scores,
		Results: results,
	}
	p.save(&r)
	return r, nil
}

// save writes every configured output, recording failures in the result.
func (p Pipeline) save(r *Result) {
	failed := func(err error) {
		err = &StageError{Stage: StageArtifactWrite, Err: err}
		logrus.WithField("stage", StageArtifactWrite).WithError(err).Error("could not save output")
		r.OutputErrors = append(r.OutputErrors, err)
	}

	for _, w := range p.EvaluationWriters {
		if err := w.WriteEvaluation(r.Split, r.Summary); err != nil {
			failed(err)
		}
	}

	if len(p.OutputTrec.Path) > 0 {
		trec := output.TrecResults{Path: p.OutputTrec.Path, Results: r.Results}
		if err := trec.Write(); err != nil {
			failed(err)
		}
	}

	if len(p.MeasurementOutput.Path) > 0 && p.MeasurementOutput.Formatter != nil {
		names := make([]string, len(p.Evaluations))
		for i, e := range p.Evaluations {
			names[i] = e.Name()
		}
		v, err := p.MeasurementOutput.Formatter(r.Scores, names)
		if err == nil {
			err = output.WriteFileAtomic(p.MeasurementOutput.Path, []byte(v))
		}
		if err != nil {
			failed(errors.Wrapf(err, "saving per-query scores to %s", p.MeasurementOutput.Path))
		}
	}
}
