// Package qdrant provides a minimal Qdrant HTTP client for the hybrid
// retrieval collections.
//
// Collections carry a named dense vector ("dense", cosine, OpenAI
// embeddings) and a named sparse vector ("sparse", IDF-modified token
// hashes), and queries fuse both with reciprocal rank fusion on the
// server side.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"
	// prefetchLimit bounds each arm of the hybrid query before fusion.
	prefetchLimit = 20
)

// Client is a minimal Qdrant HTTP client used by the app.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New constructs a Qdrant client from the application config.
func New(cfg config.Config) *Client {
	return &Client{
		baseURL:    cfg.QdrantURL,
		apiKey:     cfg.QdrantAPIKey,
		httpClient: &http.Client{Timeout: cfg.QdrantTimeout()},
	}
}

// Point is one upsertable vector record.
type Point struct {
	ID      string
	Dense   []float32
	Sparse  SparseVector
	Payload map[string]any
}

// ScoredPoint is one query hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Filter is a Qdrant filter clause passed through verbatim.
type Filter map[string]any

// MustMatch builds a filter requiring every key to match its value.
func MustMatch(kv map[string]any) Filter {
	must := make([]map[string]any, 0, len(kv))
	for k, v := range kv {
		must = append(must, map[string]any{"key": k, "match": map[string]any{"value": v}})
	}
	return Filter{"must": must}
}

// Ping verifies the Qdrant instance is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("op=qdrant.ping: %w: %v", domain.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("op=qdrant.ping: status %d", resp.StatusCode)
	}
	return nil
}

// EnsureCollection creates the collection with the hybrid vector schema if
// it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, name string, denseSize int) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", c.baseURL, name), nil)
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("op=qdrant.ensure: %w: %v", domain.ErrNetwork, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	payload := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{"size": denseSize, "distance": "Cosine"},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{"modifier": "idf"},
		},
	}
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), payload, nil); err != nil {
		return fmt.Errorf("op=qdrant.ensure: %w", err)
	}
	return nil
}

// DeleteCollection drops the collection. Used by the seeder's -recreate flag.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", c.baseURL, name), nil)
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("op=qdrant.delete_collection: %w: %v", domain.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("op=qdrant.delete_collection: status %d", resp.StatusCode)
	}
	return nil
}

// UpsertPoints inserts or updates points in a collection.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	wire := make([]map[string]any, 0, len(points))
	for _, p := range points {
		vector := map[string]any{denseVectorName: p.Dense}
		if len(p.Sparse.Indices) > 0 {
			vector[sparseVectorName] = map[string]any{
				"indices": p.Sparse.Indices,
				"values":  p.Sparse.Values,
			}
		}
		wire = append(wire, map[string]any{
			"id":      p.ID,
			"vector":  vector,
			"payload": p.Payload,
		})
	}
	body := map[string]any{"points": wire}
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", collection), body, nil); err != nil {
		return fmt.Errorf("op=qdrant.upsert: %w", err)
	}
	return nil
}

// Query runs a hybrid search: dense and sparse prefetch arms fused with
// RRF. With an empty sparse vector it degrades to a plain dense search.
func (c *Client) Query(ctx context.Context, collection string, dense []float32, sparse SparseVector, filter Filter, limit int) ([]ScoredPoint, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if len(sparse.Indices) > 0 {
		body["prefetch"] = []map[string]any{
			{
				"query": dense,
				"using": denseVectorName,
				"limit": prefetchLimit,
			},
			{
				"query": map[string]any{"indices": sparse.Indices, "values": sparse.Values},
				"using": sparseVectorName,
				"limit": prefetchLimit,
			},
		}
		body["query"] = map[string]any{"fusion": "rrf"}
	} else {
		body["query"] = dense
		body["using"] = denseVectorName
	}
	if filter != nil {
		body["filter"] = filter
	}

	var out struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Score   float32        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/query", collection), body, &out); err != nil {
		return nil, fmt.Errorf("op=qdrant.query: %w", err)
	}
	hits := make([]ScoredPoint, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		hits = append(hits, ScoredPoint{
			ID:      fmt.Sprint(p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}
	return hits, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}
