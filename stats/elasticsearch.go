package stats

import (
	"context"
	"net/http"

	"github.com/hscells/q2d/retrieval"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultElasticsearchURL is where the Elasticsearch client connects when no host is configured.
const DefaultElasticsearchURL = "http://localhost:9200"

// ElasticsearchSearcher executes queries on an Elasticsearch index as match queries over a single field. A batch is
// sent as one multi search request.
type ElasticsearchSearcher struct {
	client     *elastic.Client
	hosts      []string
	httpClient *http.Client
	index      string
	field      string
	limiter    *rate.Limiter
}

// ElasticsearchHosts sets the hosts for the Elasticsearch client.
func ElasticsearchHosts(hosts ...string) func(*ElasticsearchSearcher) {
	return func(es *ElasticsearchSearcher) {
		es.hosts = hosts
	}
}

// ElasticsearchHTTPClient sets the http client requests are sent with.
func ElasticsearchHTTPClient(client *http.Client) func(*ElasticsearchSearcher) {
	return func(es *ElasticsearchSearcher) {
		es.httpClient = client
	}
}

// ElasticsearchIndex sets the index for the Elasticsearch client.
func ElasticsearchIndex(index string) func(*ElasticsearchSearcher) {
	return func(es *ElasticsearchSearcher) {
		es.index = index
	}
}

// ElasticsearchField sets the field queries are matched against.
func ElasticsearchField(field string) func(*ElasticsearchSearcher) {
	return func(es *ElasticsearchSearcher) {
		es.field = field
	}
}

// ElasticsearchRequestsPerSecond limits how many multi search requests are sent per second. Zero or less is
// unlimited.
func ElasticsearchRequestsPerSecond(rps float64) func(*ElasticsearchSearcher) {
	return func(es *ElasticsearchSearcher) {
		if rps <= 0 {
			es.limiter = nil
			return
		}
		es.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewElasticsearchSearcher creates a new ElasticsearchSearcher using functional options. Sniffing and health checks
// are disabled so that a single node behind a proxy can be used.
func NewElasticsearchSearcher(options ...func(*ElasticsearchSearcher)) (*ElasticsearchSearcher, error) {
	es := &ElasticsearchSearcher{
		field: DefaultField,
	}
	for _, option := range options {
		option(es)
	}
	if len(es.index) == 0 {
		return nil, errors.New("no Elasticsearch index configured")
	}
	if len(es.hosts) == 0 {
		es.hosts = []string{DefaultElasticsearchURL}
	}

	clientOptions := []elastic.ClientOptionFunc{
		elastic.SetURL(es.hosts...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}
	if es.httpClient != nil {
		clientOptions = append(clientOptions, elastic.SetHttpClient(es.httpClient))
	}

	var err error
	es.client, err = elastic.NewClient(clientOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "creating Elasticsearch client")
	}
	logrus.WithFields(logrus.Fields{"hosts": es.hosts, "index": es.index, "field": es.field}).Debug("created Elasticsearch client")
	return es, nil
}

// BatchSearch sends every query of the batch in a single _msearch request, letting Elasticsearch run threads of them
// at a time.
func (es *ElasticsearchSearcher) BatchSearch(ctx context.Context, queries, qids []string, k, threads int) (map[string][]retrieval.Hit, error) {
	if err := checkBatch(queries, qids); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return map[string][]retrieval.Hit{}, nil
	}

	if es.limiter != nil {
		if err := es.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	svc := es.client.MultiSearch().Index(es.index)
	if threads > 0 {
		svc = svc.MaxConcurrentSearches(threads)
	}
	for _, q := range queries {
		svc = svc.Add(elastic.NewSearchRequest().
			Index(es.index).
			SearchSource(elastic.NewSearchSource().
				Query(elastic.NewMatchQuery(es.field, q)).
				Size(k).
				FetchSource(false)))
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "multi search")
	}
	if len(resp.Responses) != len(queries) {
		return nil, errors.Errorf("multi search returned %d responses for %d queries", len(resp.Responses), len(queries))
	}

	hits := make([][]retrieval.Hit, len(queries))
	for i, result := range resp.Responses {
		if result.Error != nil {
			return nil, errors.Errorf("query %s: %s: %s", qids[i], result.Error.Type, result.Error.Reason)
		}
		if result.Hits == nil {
			continue
		}
		hits[i] = make([]retrieval.Hit, 0, len(result.Hits.Hits))
		for _, hit := range result.Hits.Hits {
			score := 0.0
			if hit.Score != nil {
				score = *hit.Score
			}
			hits[i] = append(hits[i], retrieval.Hit{DocID: hit.Id, Score: score})
		}
	}
	return collect(qids, hits), nil
}
