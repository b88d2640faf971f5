// Command answercore is the CLI entrypoint. It wires configuration,
// storage, the index provider and the core services together, then hands
// control to the command layer.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evidentlabs/answercore/internal/adapters/driven/config/file"
	"github.com/evidentlabs/answercore/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/evidentlabs/answercore/internal/adapters/driven/embedding/openai"
	"github.com/evidentlabs/answercore/internal/adapters/driven/index/bolt"
	ollamallm "github.com/evidentlabs/answercore/internal/adapters/driven/llm/ollama"
	openaillm "github.com/evidentlabs/answercore/internal/adapters/driven/llm/openai"
	"github.com/evidentlabs/answercore/internal/adapters/driven/storage/sqlite"
	"github.com/evidentlabs/answercore/internal/adapters/driven/websearch/tavily"
	"github.com/evidentlabs/answercore/internal/adapters/driving/cli"
	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/core/services"
	"github.com/evidentlabs/answercore/internal/normalisers"
	"github.com/evidentlabs/answercore/internal/normalisers/markdown"
	"github.com/evidentlabs/answercore/internal/normalisers/plaintext"
	"github.com/evidentlabs/answercore/internal/postprocessors"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	dataDir := cfg.GetString("storage.data_dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".answercore", "data")
	}

	docStore, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer docStore.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	indexPath := cfg.GetString("index.path")
	if indexPath == "" {
		indexPath = filepath.Join(dataDir, "index.db")
	}
	provider, err := bolt.Open(indexPath, embedder)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer provider.Close()

	llm, err := buildLLM(cfg, promptStore)
	if err != nil {
		return err
	}

	web := tavily.New(tavily.Config{
		APIKey: firstNonEmpty(cfg.GetString("web.api_key"), os.Getenv("TAVILY_API_KEY")),
	})

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	cache := services.NewIndexCache(provider)

	uploadsRoot := cfg.GetString("uploads.dir")
	if uploadsRoot == "" {
		uploadsRoot = filepath.Join(dataDir, "uploads")
	}

	ingest := services.NewIngestService(
		docStore,
		registry,
		postprocessors.DefaultPipeline(),
		cache,
		provider,
		uploadsRoot,
	)

	router := services.NewRouter(
		llm,
		services.NewDocumentEvidence(cache),
		services.NewWebEvidence(web),
	)

	cli.SetServices(cli.Services{
		Chat:        router,
		Ingest:      ingest,
		Cache:       cache,
		LLM:         llm,
		Embedder:    embedder,
		UploadsRoot: uploadsRoot,
	})

	return cli.Execute(version)
}

// buildEmbedder constructs the embedding service from configuration.
// Defaults to Ollama, which needs no API key.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  firstNonEmpty(cfg.GetString("embedding.api_key"), os.Getenv("OPENAI_API_KEY")),
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildLLM constructs the LLM service from configuration and injects the
// prompt store so classify/synthesize templates are user-editable.
func buildLLM(cfg driven.ConfigStore, prompts driven.PromptStore) (driven.LLMService, error) {
	switch provider := cfg.GetString("llm.provider"); provider {
	case "openai":
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  firstNonEmpty(cfg.GetString("llm.api_key"), os.Getenv("OPENAI_API_KEY")),
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
		if err != nil {
			return nil, fmt.Errorf("configure llm: %w", err)
		}
		svc.SetPromptStore(prompts)
		return svc, nil
	case "", "ollama":
		svc := ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
		svc.SetPromptStore(prompts)
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
