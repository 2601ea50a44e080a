// Package config reads the settings of an evaluation run from a .properties file.
package config

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hscells/q2d/eval"
	"github.com/hscells/q2d/preprocess"
	"github.com/hscells/q2d/query"
	"github.com/hscells/q2d/retrieval"
	"github.com/hscells/q2d/stats"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

// Engines a run can search with.
const (
	Bluge         = "bluge"
	Elasticsearch = "elasticsearch"
)

// DefaultQrels are the relevance assessments of the splits that have public ones.
var DefaultQrels = map[string]string{
	"trec_dl2019": "https://trec.nist.gov/data/deep/2019qrels-pass.txt",
	"trec_dl2020": "https://trec.nist.gov/data/deep/2020qrels-pass.txt",
	"validation":  "https://msmarco.z22.web.core.windows.net/msmarcoranking/qrels.dev.tsv",
	"dev":         "https://msmarco.z22.web.core.windows.net/msmarcoranking/qrels.dev.tsv",
}

// Config holds the settings of a run.
type Config struct {
	Engine string

	BlugeIndex  string
	BlugeFields []string

	ElasticsearchURLs  []string
	ElasticsearchIndex string
	ElasticsearchField string
	ElasticsearchRPS   float64

	DatasetBase string

	BatchSize int
	Depth     int
	Threads   int
	CacheSize int
	RunName   string

	Repetitions int
	Cutoffs     []int
	Precision   int

	OutputDir string
	CacheDir  string

	qrels map[string]string
}

// Default is the configuration used when no file is given.
func Default() Config {
	qrels := make(map[string]string, len(DefaultQrels))
	for split, source := range DefaultQrels {
		qrels[split] = source
	}
	return Config{
		Engine:             Bluge,
		BlugeIndex:         "msmarco-passage",
		BlugeFields:        []string{stats.DefaultField},
		ElasticsearchURLs:  []string{stats.DefaultElasticsearchURL},
		ElasticsearchIndex: "msmarco-passage",
		ElasticsearchField: stats.DefaultField,
		DatasetBase:        query.DefaultBase,
		BatchSize:          retrieval.DefaultBatchSize,
		Depth:              retrieval.DefaultDepth,
		Threads:            retrieval.DefaultThreads,
		RunName:            "q2d",
		Repetitions:        preprocess.DefaultRepetitions,
		Cutoffs:            append([]int(nil), eval.DefaultCutoffs...),
		Precision:          eval.DefaultPrecision,
		OutputDir:          ".",
		qrels:              qrels,
	}
}

// Load reads the configuration file at path over the defaults. An empty path gives the defaults.
func Load(path string) (Config, error) {
	if len(path) == 0 {
		return Default(), nil
	}
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading configuration %s", path)
	}
	c, err := Parse(p)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading configuration %s", path)
	}
	return c, nil
}

// Parse reads the settings present in p over the defaults.
func Parse(p *properties.Properties) (Config, error) {
	c := Default()
	r := reader{p: p}

	c.Engine = r.getString("engine", c.Engine)
	c.BlugeIndex = r.getString("bluge.index", c.BlugeIndex)
	c.BlugeFields = r.getList("bluge.fields", c.BlugeFields)
	c.ElasticsearchURLs = r.getList("elasticsearch.url", c.ElasticsearchURLs)
	c.ElasticsearchIndex = r.getString("elasticsearch.index", c.ElasticsearchIndex)
	c.ElasticsearchField = r.getString("elasticsearch.field", c.ElasticsearchField)
	c.ElasticsearchRPS = r.getFloat("elasticsearch.requests_per_second", c.ElasticsearchRPS)
	c.DatasetBase = r.getString("dataset.base", c.DatasetBase)
	c.BatchSize = r.getInt("search.batch_size", c.BatchSize)
	c.Depth = r.getInt("search.depth", c.Depth)
	c.Threads = r.getInt("search.threads", c.Threads)
	c.CacheSize = r.getInt("search.cache_size", c.CacheSize)
	c.RunName = r.getString("search.run_name", c.RunName)
	c.Repetitions = r.getInt("expansion.repetitions", c.Repetitions)
	c.Cutoffs = r.getInts("eval.cutoffs", c.Cutoffs)
	c.Precision = r.getInt("eval.precision", c.Precision)
	c.OutputDir = r.getString("output.dir", c.OutputDir)
	c.CacheDir = r.getString("cache.dir", c.CacheDir)

	qrels := p.FilterStripPrefix("qrels.")
	for _, split := range qrels.Keys() {
		c.qrels[split] = qrels.MustGetString(split)
	}

	if r.err != nil {
		return Config{}, r.err
	}
	return c, c.Validate()
}

// Validate checks that the settings can be run with.
func (c Config) Validate() error {
	switch c.Engine {
	case Bluge, Elasticsearch:
	default:
		return errors.Errorf("engine must be %s or %s, not %q", Bluge, Elasticsearch, c.Engine)
	}
	for key, v := range map[string]int{
		"search.batch_size":     c.BatchSize,
		"search.depth":          c.Depth,
		"search.threads":        c.Threads,
		"expansion.repetitions": c.Repetitions,
	} {
		if v < 1 {
			return errors.Errorf("%s must be positive, got %d", key, v)
		}
	}
	if c.CacheSize < 0 {
		return errors.Errorf("search.cache_size must not be negative, got %d", c.CacheSize)
	}
	if c.Precision < 0 {
		return errors.Errorf("eval.precision must not be negative, got %d", c.Precision)
	}
	if len(c.Cutoffs) == 0 {
		return errors.New("eval.cutoffs must list at least one cutoff")
	}
	for _, k := range c.Cutoffs {
		if k < 1 {
			return errors.Errorf("eval.cutoffs must be positive, got %d", k)
		}
	}
	return nil
}

// Qrels is where the relevance assessments of split are read from.
func (c Config) Qrels(split string) (string, error) {
	if source, ok := c.qrels[split]; ok && len(source) > 0 {
		return source, nil
	}
	known := make([]string, 0, len(c.qrels))
	for s := range c.qrels {
		known = append(known, s)
	}
	sort.Strings(known)
	return "", errors.Errorf("no relevance assessments configured for split %q (have %s); set qrels.%s",
		split, strings.Join(known, ", "), split)
}

// reader keeps the first error met while reading typed values.
type reader struct {
	p   *properties.Properties
	err error
}

func (r *reader) getString(key, def string) string {
	if v, ok := r.p.Get(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) getList(key string, def []string) []string {
	v, ok := r.p.Get(key)
	if !ok {
		return def
	}
	var l []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); len(s) > 0 {
			l = append(l, s)
		}
	}
	return l
}

func (r *reader) getInt(key string, def int) int {
	v, ok := r.p.Get(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil && r.err == nil {
		r.err = errors.Errorf("%s must be an integer, got %q", key, v)
	}
	if err != nil {
		return def
	}
	return i
}

func (r *reader) getFloat(key string, def float64) float64 {
	v, ok := r.p.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		if r.err == nil {
			r.err = errors.Errorf("%s must be a number, got %q", key, v)
		}
		return def
	}
	return f
}

func (r *reader) getInts(key string, def []int) []int {
	if _, ok := r.p.Get(key); !ok {
		return def
	}
	var l []int
	for _, s := range r.getList(key, nil) {
		i, err := strconv.Atoi(s)
		if err != nil {
			if r.err == nil {
				r.err = errors.Errorf("%s must be a list of integers, got %q", key, s)
			}
			return def
		}
		l = append(l, i)
	}
	return l
}
