package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/vireopay/agentdesk/internal/config"
)

// ElasticIndex adapts an Elasticsearch kNN index to the Index interface. The
// index documents carry the ingested corpus chunks under {text, url, title}
// with a dense_vector field "embedding"; ingestion itself is out of scope.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(cfg config.SearchConfig) (*ElasticIndex, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticIndex{
		client: es,
		index:  cfg.Index,
	}, nil
}

// Ping tests the index connection.
func (e *ElasticIndex) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

type searchHit struct {
	Score  float64 `json:"_score"`
	Source struct {
		Text  string `json:"text"`
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"_source"`
}

type searchResult struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

func (e *ElasticIndex) Search(ctx context.Context, vector []float64, k int) ([]Passage, error) {
	body := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 4,
		},
		"size":    k,
		"_source": []string{"text", "url", "title"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("knn search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("knn search error: %s", res.String())
	}

	var result searchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	passages := make([]Passage, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		passages = append(passages, Passage{
			Text:   hit.Source.Text,
			Source: hit.Source.URL,
			Title:  hit.Source.Title,
			Score:  hit.Score,
		})
	}

	slog.Debug("knn search completed", "index", e.index, "hits", len(passages))
	return passages, nil
}
