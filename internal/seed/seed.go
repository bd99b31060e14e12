// Package seed loads YAML corpus files into the Qdrant retrieval
// collections: chunk, embed, sparse-encode, upsert. Used by cmd/corpusseed
// against the same collections the tenant search tools query.
package seed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ai2b/zena-toolserver/internal/adapter/ai/tokencount"
	qdrantcli "github.com/ai2b/zena-toolserver/internal/adapter/vector/qdrant"
	"github.com/ai2b/zena-toolserver/internal/domain"
)

const (
	// chunkTokens/chunkOverlap window long corpus texts; search snippets
	// work better under the embedding model's 8191-token ceiling anyway.
	chunkTokens  = 512
	chunkOverlap = 64
	batchSize    = 16
)

// idSpace namespaces the deterministic point ids so re-seeding a file
// updates points instead of duplicating them.
var idSpace = uuid.MustParse("8f0e7f36-8d47-4f6e-9e1a-6d1d2b9a4c55")

// Document is one corpus entry: the embeddable text plus the payload
// stored alongside it. Payload must carry channel_id for tenant filtering.
type Document struct {
	Text    string         `yaml:"text"`
	Payload map[string]any `yaml:"payload"`
}

type corpusYAML struct {
	Documents []Document `yaml:"documents"`
	Texts     []string   `yaml:"texts"`
}

// Seeder ingests corpus files into one Qdrant instance.
type Seeder struct {
	Qdrant  *qdrantcli.Client
	Embed   domain.Embedder
	Model   string
	counter *tokencount.Counter
}

// New constructs a Seeder.
func New(q *qdrantcli.Client, embed domain.Embedder, model string) *Seeder {
	return &Seeder{Qdrant: q, Embed: embed, Model: model, counter: tokencount.NewCounter()}
}

// SeedFile ingests one YAML file into the given collection. With recreate
// the collection is dropped first.
func (s *Seeder) SeedFile(ctx domain.Context, path, collection string, recreate bool) error {
	docs, err := loadCorpus(path)
	if err != nil {
		return fmt.Errorf("op=seed.SeedFile: %w", err)
	}
	if recreate {
		if err := s.Qdrant.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("op=seed.SeedFile: %w", err)
		}
	}
	return s.upsertAll(ctx, collection, docs)
}

// loadCorpus reads and normalizes one corpus file: path constrained to the
// working directory, documents deduplicated by text, bare texts accepted.
func loadCorpus(path string) ([]Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	abs, wd = filepath.Clean(abs), filepath.Clean(wd)
	if os.Getenv("CORPUSSEED_ALLOW_ABSPATHS") != "1" {
		if !strings.HasPrefix(abs, wd+string(os.PathSeparator)) && abs != wd {
			return nil, fmt.Errorf("disallowed path: %s", abs)
		}
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("corpus file not found: %s", path)
		}
		return nil, err
	}

	var doc corpusYAML
	if err := yaml.Unmarshal(b, &doc); err != nil {
		// Fallback: a plain list of strings.
		var ls []string
		if err2 := yaml.Unmarshal(b, &ls); err2 != nil {
			return nil, fmt.Errorf("yaml parse: %w", err)
		}
		for _, t := range ls {
			doc.Texts = append(doc.Texts, t)
		}
	}

	seen := make(map[string]struct{})
	out := make([]Document, 0, len(doc.Documents)+len(doc.Texts))
	add := func(d Document) {
		d.Text = strings.TrimSpace(d.Text)
		if d.Text == "" {
			return
		}
		if _, dup := seen[d.Text]; dup {
			return
		}
		seen[d.Text] = struct{}{}
		out = append(out, d)
	}
	for _, d := range doc.Documents {
		add(d)
	}
	for _, t := range doc.Texts {
		add(Document{Text: t})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no documents to seed in %s", path)
	}
	return out, nil
}

// upsertAll chunks, embeds and upserts the documents in batches. The first
// embedding fixes the dense vector size for EnsureCollection.
func (s *Seeder) upsertAll(ctx domain.Context, collection string, docs []Document) error {
	chunks := make([]Document, 0, len(docs))
	for _, d := range docs {
		parts := s.counter.Chunk(s.Model, d.Text, chunkTokens, chunkOverlap)
		for i, part := range parts {
			cd := Document{Text: part, Payload: clonePayload(d.Payload)}
			cd.Payload["text"] = part
			if len(parts) > 1 {
				cd.Payload["chunk"] = i
			}
			chunks = append(chunks, cd)
		}
	}

	ensured := false
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, d := range batch {
			texts[j] = d.Text
		}
		vecs, err := s.Embed.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("op=seed.upsertAll: embed: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("op=seed.upsertAll: %w: got %d vectors for %d texts", domain.ErrInvalidResponse, len(vecs), len(batch))
		}
		if !ensured {
			if err := s.Qdrant.EnsureCollection(ctx, collection, len(vecs[0])); err != nil {
				return fmt.Errorf("op=seed.upsertAll: %w", err)
			}
			ensured = true
		}

		points := make([]qdrantcli.Point, len(batch))
		for j, d := range batch {
			points[j] = qdrantcli.Point{
				ID:      PointID(collection, d.Text),
				Dense:   vecs[j],
				Sparse:  qdrantcli.Sparsify(d.Text),
				Payload: d.Payload,
			}
		}
		if err := s.Qdrant.UpsertPoints(ctx, collection, points); err != nil {
			return fmt.Errorf("op=seed.upsertAll: %w", err)
		}
	}
	return nil
}

// PointID derives the stable UUID for a text within a collection.
func PointID(collection, text string) string {
	return uuid.NewSHA1(idSpace, []byte(collection+":"+strings.TrimSpace(text))).String()
}

func clonePayload(p map[string]any) map[string]any {
	out := make(map[string]any, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}
