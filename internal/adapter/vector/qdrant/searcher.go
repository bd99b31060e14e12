package qdrant

import (
	"context"
	"fmt"

	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/domain"
)

// Searcher implements domain.Searcher: it embeds the query, builds the
// sparse companion vector with the same analyzer the seeder uses, and
// runs the fused query against one collection.
type Searcher struct {
	Embed  domain.Embedder
	Client *Client
}

func NewSearcher(embed domain.Embedder, client *Client) *Searcher {
	return &Searcher{Embed: embed, Client: client}
}

// HybridSearch returns up to limit hits for the query, filtered by the
// given payload equality filters (nil means unfiltered).
func (s *Searcher) HybridSearch(ctx context.Context, collection, query string, filters map[string]any, limit int) ([]domain.SearchHit, error) {
	vecs, err := s.Embed.Embed(ctx, []string{query})
	if err != nil {
		observability.VectorSearchesTotal.WithLabelValues(collection, "embed_error").Inc()
		return nil, fmt.Errorf("op=qdrant.hybrid_search: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("op=qdrant.hybrid_search: %w: embedder returned no vectors", domain.ErrInvalidResponse)
	}

	var filter Filter
	if len(filters) > 0 {
		filter = MustMatch(filters)
	}
	hits, err := s.Client.Query(ctx, collection, vecs[0], Sparsify(query), filter, limit)
	if err != nil {
		observability.VectorSearchesTotal.WithLabelValues(collection, "error").Inc()
		return nil, err
	}
	observability.VectorSearchesTotal.WithLabelValues(collection, "ok").Inc()

	out := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		hit := domain.SearchHit{ID: h.ID, Score: h.Score, Payload: h.Payload}
		if text, ok := h.Payload["text"].(string); ok {
			hit.Text = text
		}
		out = append(out, hit)
	}
	return out, nil
}
