// Package retrieval turns a customer query into an ordered list of grounding
// passages. The embedding service and the vector index are external
// collaborators; this package only plumbs them together and caches results.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Passage is one retrieved excerpt. Score is the index relevance score,
// unbounded, higher is more relevant. Passages are not deduplicated here;
// merging identical sources is the knowledge responder's job.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Title  string  `json:"title,omitempty"`
	Score  float64 `json:"score"`
}

// Embedder is the slice of the generation service used here.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Index is the read path into the external vector index.
type Index interface {
	Search(ctx context.Context, vector []float64, k int) ([]Passage, error)
}

type Engine struct {
	embedder Embedder
	index    Index
	cache    *Cache // nil disables caching
}

func NewEngine(embedder Embedder, index Index, cache *Cache) *Engine {
	return &Engine{
		embedder: embedder,
		index:    index,
		cache:    cache,
	}
}

// Retrieve returns at most k passages ordered by descending relevance. An
// empty result is valid and signals no grounding, not a failure. Retrieval is
// language-agnostic: the query is embedded as-is and matched semantically.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	key := cacheKey(query, k)

	if e.cache != nil {
		if passages, ok := e.cache.Get(ctx, key); ok {
			slog.Debug("retrieval cache hit", "key", key)
			return passages, nil
		}
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	passages, err := e.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, passages)
	}
	return passages, nil
}

func cacheKey(query string, k int) string {
	return fmt.Sprintf("retrieval:%d:%s", k, strings.ToLower(strings.TrimSpace(query)))
}
