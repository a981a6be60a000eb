package main

import (
	"flag"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"multirag/internal/answer"
	"multirag/internal/applog"
	"multirag/internal/config"
	"multirag/internal/docstore"
	embgemini "multirag/internal/embedding/gemini"
	"multirag/internal/index"
	llmgemini "multirag/internal/llm/gemini"
	"multirag/internal/partition"
	"multirag/internal/partition/localpdf"
	"multirag/internal/partition/unstructured"
	"multirag/internal/registry"
	"multirag/internal/retriever"
	"multirag/internal/service"
	"multirag/internal/summarizer"
	"multirag/internal/tui"
	"multirag/internal/vectorstore"
	"multirag/internal/vectorstore/local"
	"multirag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/multirag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := applog.Init(applog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	llm, err := llmgemini.NewClient(llmgemini.Config{
		BaseURL:     cfg.Model.BaseURL,
		APIKey:      cfg.APIKey(),
		Model:       cfg.Model.GenerationModel,
		Temperature: cfg.Model.Temperature,
		Timeout:     time.Duration(cfg.Model.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("gemini client init failed: %v", err)
	}

	emb, err := embgemini.NewClient(embgemini.Config{
		BaseURL: cfg.Model.BaseURL,
		APIKey:  cfg.APIKey(),
		Model:   cfg.Model.EmbeddingModel,
		Timeout: time.Duration(cfg.Model.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("gemini embedder init failed: %v", err)
	}

	var store vectorstore.Store
	switch cfg.VectorStore.Type {
	case "local", "":
		store, err = local.NewStore(cfg.VectorStore.Dir, emb)
		if err != nil {
			log.Fatalf("local vector store init failed: %v", err)
		}
	case "qdrant":
		store, err = qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}, emb)
		if err != nil {
			log.Fatalf("qdrant vector store init failed: %v", err)
		}
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var partitioner partition.Partitioner
	switch cfg.Partitioner.Type {
	case "local", "":
		partitioner = localpdf.New()
	case "unstructured":
		uc := cfg.Partitioner.Unstructured
		partitioner, err = unstructured.NewClient(unstructured.Config{
			URL:     uc.URL,
			APIKey:  apiKeyFromEnv(uc.APIKeyEnv),
			Timeout: time.Duration(uc.TimeoutSecs) * time.Second,
			Chunking: unstructured.Chunking{
				MaxChars:     cfg.Partitioner.Chunking.MaxChars,
				CombineUnder: cfg.Partitioner.Chunking.CombineUnder,
				NewAfter:     cfg.Partitioner.Chunking.NewAfter,
			},
		})
		if err != nil {
			log.Fatalf("partitioner init failed: %v", err)
		}
	default:
		log.Fatalf("unknown partitioner: %s", cfg.Partitioner.Type)
	}

	docs, err := docstore.Load(cfg.Paths.Docstore)
	if err != nil {
		log.Fatalf("failed to load docstore: %v", err)
	}
	reg, err := registry.Load(cfg.Paths.Registry)
	if err != nil {
		log.Fatalf("failed to load registry: %v", err)
	}
	logger.Info("stores loaded", "docstore_entries", docs.Len(), "ingested_docs", len(reg.Names()))

	idx := index.New(store, docs, logger)
	ret := retriever.New(store, docs, cfg.Retrieval.TopK)
	svc := service.New(service.Config{
		Partitioner:  partitioner,
		Summarizer:   summarizer.New(llm, logger),
		Index:        idx,
		Chain:        answer.New(ret, llm),
		Registry:     reg,
		DocstorePath: cfg.Paths.Docstore,
		Concurrency:  cfg.Summarizer.Concurrency,
		Logger:       logger,
	})

	if _, err := tea.NewProgram(tui.New(svc), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

func apiKeyFromEnv(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}
