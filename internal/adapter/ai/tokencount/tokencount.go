// Package tokencount counts and windows tokens for embedding inputs.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken library, so the
// guard in the embedding client and the chunker in the corpus seeder
// agree with what the API will actually count.
package tokencount

import (
	"strings"
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{
		encodingCache: make(map[string]*tiktoken.Tiktoken),
	}
}

// getEncodingForModel returns the tiktoken encoding for a model, cached.
func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	normalized := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalized]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[normalized]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalized)
	if err != nil {
		// cl100k_base covers the text-embedding-3 family and every
		// other model this server is configured with.
		slog.Debug("falling back to cl100k_base encoding",
			slog.String("model", model),
			slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}

	c.encodingCache[normalized] = enc
	return enc, nil
}

// normalizeModelName converts model IDs to tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if strings.HasPrefix(model, "text-embedding-3") {
		// tiktoken-go knows ada-002; the 3-series shares its encoding.
		return "text-embedding-ada-002"
	}
	return model
}

// Count returns the token count of text for the given model. When no
// encoding can be loaded it falls back to a rough ~4 chars per token
// estimate rather than failing the caller.
func (c *Counter) Count(model, text string) int {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		slog.Warn("token count falling back to estimate",
			slog.String("model", model),
			slog.Any("error", err))
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// Chunk splits text into windows of at most maxTokens tokens with the
// given token overlap between consecutive windows. Text already under
// the limit comes back as a single chunk.
func (c *Counter) Chunk(model, text string, maxTokens, overlap int) []string {
	if maxTokens <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= maxTokens {
		overlap = maxTokens / 4
	}
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return chunkByChars(text, maxTokens*4, overlap*4)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return []string{text}
	}
	step := maxTokens - overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, enc.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// chunkByChars is the estimate-based fallback when no encoding loads.
func chunkByChars(text string, maxChars, overlapChars int) []string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{text}
	}
	step := maxChars - overlapChars
	if step <= 0 {
		step = maxChars
	}
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
