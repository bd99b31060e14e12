// Command corpusseed loads YAML corpus files into the Qdrant retrieval
// collections. With no flags it seeds every default corpus file under
// configs/corpus/.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ai2b/zena-toolserver/internal/adapter/ai"
	"github.com/ai2b/zena-toolserver/internal/adapter/observability"
	qdrantcli "github.com/ai2b/zena-toolserver/internal/adapter/vector/qdrant"
	"github.com/ai2b/zena-toolserver/internal/config"
	"github.com/ai2b/zena-toolserver/internal/seed"
)

func main() {
	os.Exit(run())
}

func run() int {
	collection := flag.String("collection", "", "target collection (faq|services|products|temp); empty seeds all defaults")
	file := flag.String("file", "", "corpus YAML file; defaults to configs/corpus/<collection>.yaml")
	recreate := flag.Bool("recreate", false, "drop the collection before seeding")
	flag.Parse()

	if os.Getenv("IS_DOCKER") != "1" {
		_ = godotenv.Load()
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		return 1
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	embedder, err := ai.New(cfg)
	if err != nil {
		slog.Error("embedding client init failed", slog.Any("error", err))
		return 1
	}
	seeder := seed.New(qdrantcli.New(cfg), embedder, cfg.OpenAIModel)

	targets := map[string]string{
		cfg.CollectionFAQ:      "configs/corpus/faq.yaml",
		cfg.CollectionServices: "configs/corpus/services.yaml",
		cfg.CollectionProducts: "configs/corpus/products.yaml",
	}
	if *collection != "" {
		path := *file
		if path == "" {
			path = fmt.Sprintf("configs/corpus/%s.yaml", *collection)
		}
		targets = map[string]string{*collection: path}
	}

	ctx := context.Background()
	for coll, path := range targets {
		if err := seeder.SeedFile(ctx, path, coll, *recreate); err != nil {
			slog.Error("seeding failed", slog.String("collection", coll), slog.String("file", path), slog.Any("error", err))
			return 1
		}
		slog.Info("collection seeded", slog.String("collection", coll), slog.String("file", path))
	}
	return 0
}
