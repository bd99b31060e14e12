// Package ai implements the embedding client backed by the OpenAI API.
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"log/slog"

	"github.com/ai2b/zena-toolserver/internal/adapter/ai/tokencount"
	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/domain"
)

// maxEmbedTokens is the input limit of the text-embedding-3 family. Longer
// inputs are rejected up front instead of burning a doomed API call.
const maxEmbedTokens = 8192

// Client implements domain.Embedder using the OpenAI embeddings endpoint.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	counter *tokencount.Counter
}

// New constructs an embedding client. OPENAI_PROXY_URL routes all traffic
// through a forward proxy, which some deployments need to reach the API.
func New(cfg config.Config) (*Client, error) {
	tr := &http.Transport{ForceAttemptHTTP2: true}
	if cfg.OpenAIProxyURL != "" {
		u, err := url.Parse(cfg.OpenAIProxyURL)
		if err != nil {
			return nil, fmt.Errorf("op=ai.new: %w: bad OPENAI_PROXY_URL: %v", domain.ErrInvalidArgument, err)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.OpenAITimeout(), Transport: tr},
		counter: tokencount.NewCounter(),
	}, nil
}

// readSnippet reads up to n bytes from r for log output.
func readSnippet(r io.Reader, n int) string {
	b, _ := io.ReadAll(io.LimitReader(r, int64(n)))
	return string(b)
}

// Embed returns one dense vector per input text, in input order.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if c.cfg.OpenAIAPIKey == "" {
		slog.Error("OpenAI API key missing", slog.String("provider", "openai"))
		return nil, fmt.Errorf("op=ai.embed: %w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("op=ai.embed: %w: no texts", domain.ErrInvalidArgument)
	}
	for i, t := range texts {
		if n := c.counter.Count(c.cfg.OpenAIModel, t); n > maxEmbedTokens {
			return nil, fmt.Errorf("op=ai.embed: %w: text %d is %d tokens, limit %d",
				domain.ErrInvalidArgument, i, n, maxEmbedTokens)
		}
	}

	body := map[string]any{
		"model": c.cfg.OpenAIModel,
		"input": texts,
	}
	b, _ := json.Marshal(body)
	endpoint := c.cfg.OpenAIBaseURL + "/embeddings"

	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	op := func() error {
		// Recreate request each attempt to avoid reusing consumed bodies.
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(r)
		if err != nil {
			observability.EmbeddingRequestsTotal.WithLabelValues("network").Inc()
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode == http.StatusTooManyRequests {
			observability.EmbeddingRequestsTotal.WithLabelValues("rate_limited").Inc()
			slog.Warn("embedding provider rate limited",
				slog.String("provider", "openai"),
				slog.String("openai_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("rate limited: 429")
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			observability.EmbeddingRequestsTotal.WithLabelValues("client_error").Inc()
			slog.Warn("embedding provider 4xx",
				slog.String("provider", "openai"),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.OpenAIModel),
				slog.String("body", readSnippet(resp.Body, 512)))
			return backoff.Permanent(fmt.Errorf("embed status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			observability.EmbeddingRequestsTotal.WithLabelValues("server_error").Inc()
			slog.Error("embedding provider non-2xx",
				slog.String("provider", "openai"),
				slog.Int("status", resp.StatusCode),
				slog.String("body", readSnippet(resp.Body, 512)))
			return fmt.Errorf("embed status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			observability.EmbeddingRequestsTotal.WithLabelValues("decode_error").Inc()
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err))
		}
		observability.EmbeddingRequestsTotal.WithLabelValues("ok").Inc()
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	expo.MaxInterval = 8 * time.Second
	expo.MaxElapsedTime = 2 * c.cfg.OpenAITimeout()
	bo := backoff.WithContext(expo, ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("op=ai.embed: %w", err)
	}

	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("op=ai.embed: %w: got %d vectors for %d texts",
			domain.ErrInvalidResponse, len(out.Data), len(texts))
	}
	res := make([][]float32, len(out.Data))
	for i := range out.Data {
		v := make([]float32, len(out.Data[i].Embedding))
		for j := range out.Data[i].Embedding {
			v[j] = float32(out.Data[i].Embedding[j])
		}
		res[i] = v
	}
	return res, nil
}
