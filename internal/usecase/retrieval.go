package usecase

import (
	"fmt"
	"strings"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// defaultSearchLimit is how many hits a search tool returns unless the
// builder configures otherwise.
const defaultSearchLimit = 5

// Retriever is one tenant-scoped search surface over a vector collection.
// Every query is pinned to the tenant's primary branch through the
// channel_id payload filter, so tenants never see each other's corpora.
type Retriever struct {
	Search     domain.Searcher
	Collection string
	ChannelID  int
	Limit      int
}

// NewRetriever constructs a Retriever for one collection and branch.
func NewRetriever(search domain.Searcher, collection string, channelID int) Retriever {
	return Retriever{Search: search, Collection: collection, ChannelID: channelID, Limit: defaultSearchLimit}
}

// Find runs a hybrid search for the query. Extra payload filters (e.g.
// catalogue enum fields) are merged on top of the tenant filter; empty
// values are dropped so the LLM can always pass every field.
func (r Retriever) Find(ctx domain.Context, query string, extra map[string]string) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query required", domain.ErrInvalidArgument)
	}
	limit := r.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	filters := map[string]any{"channel_id": r.ChannelID}
	for k, v := range extra {
		if v = strings.TrimSpace(v); v != "" {
			filters[k] = v
		}
	}

	hits, err := r.Search.HybridSearch(ctx, r.Collection, query, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("op=retrieval.find: %w", err)
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return hits, nil
}
