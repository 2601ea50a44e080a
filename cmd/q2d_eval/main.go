package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/hscells/q2d"
	"github.com/hscells/q2d/config"
	"github.com/hscells/q2d/eval"
	"github.com/hscells/q2d/fetch"
	"github.com/hscells/q2d/output"
	"github.com/hscells/q2d/query"
	"github.com/hscells/q2d/retrieval"
	"github.com/hscells/q2d/stats"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	name    = "q2d_eval"
	version = "17.Oct.2026"
)

type args struct {
	Config   string `help:"Path to a .properties configuration file" arg:"-c"`
	Qrels    string `help:"Path or URL of the relevance assessments, overriding the configured ones" arg:"-q"`
	Run      string `help:"Save the ranked results as a trec run file" arg:"-r"`
	PerQuery string `help:"Save per-query scores; .json files are written as JSON, anything else as CSV" arg:"-p"`
	Output   string `help:"Directory the evaluation results are saved to" arg:"-o"`
	Quiet    bool   `help:"Do not draw progress bars"`
	Debug    bool   `help:"Log debugging information"`
	Split    string `help:"Split to evaluate: train, dev, test, trec_dl2019, trec_dl2020 or validation" arg:"positional"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
Evaluates BM25 retrieval of queries expanded with their pseudo-documents.`, name)
}

func searcher(c config.Config) (retrieval.Searcher, func() error, error) {
	switch c.Engine {
	case config.Elasticsearch:
		es, err := stats.NewElasticsearchSearcher(
			stats.ElasticsearchHosts(c.ElasticsearchURLs...),
			stats.ElasticsearchIndex(c.ElasticsearchIndex),
			stats.ElasticsearchField(c.ElasticsearchField),
			stats.ElasticsearchRequestsPerSecond(c.ElasticsearchRPS))
		return es, func() error { return nil }, err
	default:
		b, err := stats.NewBlugeSearcher(c.BlugeIndex, stats.BlugeFields(c.BlugeFields...))
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
}

func main() {
	var args args
	args.Split = "validation"
	arg.MustParse(&args)

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if args.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	c, err := config.Load(args.Config)
	if err != nil {
		logrus.Fatalln(err)
	}
	if len(args.Output) > 0 {
		c.OutputDir = args.Output
	}
	if _, ok := query.SplitFile(args.Split); !ok {
		logrus.Fatalf("unknown split %q", args.Split)
	}

	var progress io.Writer = os.Stderr
	if args.Quiet {
		progress = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, closeSearcher, err := searcher(c)
	if err != nil {
		logrus.Fatalln(err)
	}
	defer closeSearcher()
	if c.CacheSize > 0 {
		s, err = retrieval.NewCachingSearcher(s, c.CacheSize)
		if err != nil {
			logrus.Fatalln(err)
		}
	}

	driver := retrieval.NewDriver(s)
	driver.BatchSize = c.BatchSize
	driver.Depth = c.Depth
	driver.Threads = c.Threads
	driver.RunName = c.RunName
	driver.Progress = progress

	opener := fetch.New(fetch.CacheDir(c.CacheDir), fetch.Progress(progress))
	qrels := c.Qrels
	if len(args.Qrels) > 0 {
		qrels = func(string) (string, error) { return args.Qrels, nil }
	}

	components := []func() interface{}{
		q2d.Expansion(c.Repetitions),
		q2d.Judgements(opener, qrels),
		q2d.Evaluation(eval.Measures(c.Cutoffs...)...),
		q2d.Rounding(c.Precision),
		q2d.EvaluationOutput(output.Console(os.Stdout), output.Artifact(c.OutputDir)),
	}
	if len(args.Run) > 0 {
		components = append(components, q2d.TrecOutput(args.Run))
	}
	if len(args.PerQuery) > 0 {
		formatter := output.CsvMeasurementFormatter
		if filepath.Ext(args.PerQuery) == ".json" {
			formatter = output.JsonMeasurementFormatter
		}
		components = append(components, q2d.MeasurementOutput(args.PerQuery, formatter))
	}

	p := q2d.NewPipeline(query.NewJSONLQuerySource(opener, c.DatasetBase), driver, components...)
	r, err := p.Execute(ctx, args.Split)
	if err != nil {
		var se *q2d.StageError
		if errors.As(err, &se) {
			logrus.WithField("stage", se.Stage).Errorln(se.Err)
		} else {
			logrus.Errorln(err)
		}
		closeSearcher()
		os.Exit(1)
	}

	logrus.WithFields(logrus.Fields{
		"split":   r.Split,
		"queries": r.Queries,
		"scored":  len(r.Scores),
	}).Info("done")
}
