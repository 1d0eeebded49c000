package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ziadkadry99/knowbase/internal/answer"
	"github.com/ziadkadry99/knowbase/internal/chat"
	"github.com/ziadkadry99/knowbase/internal/chunker"
	"github.com/ziadkadry99/knowbase/internal/config"
	"github.com/ziadkadry99/knowbase/internal/db"
	"github.com/ziadkadry99/knowbase/internal/embeddings"
	"github.com/ziadkadry99/knowbase/internal/enrich"
	"github.com/ziadkadry99/knowbase/internal/ingest"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/llm"
	"github.com/ziadkadry99/knowbase/internal/progress"
	"github.com/ziadkadry99/knowbase/internal/retrieval"
	"github.com/ziadkadry99/knowbase/internal/router"
	"github.com/ziadkadry99/knowbase/internal/vectordb"
)

// app bundles the fully wired application for commands to share.
type app struct {
	cfg      *config.Config
	database *db.DB
	kbStore  *kb.Store
	chats    *chat.Store
	vectors  *vectordb.ChromemStore
	embedder embeddings.Embedder
	provider llm.Provider
	engine   *retrieval.Engine
	composer *answer.Composer
	recorder *enrich.Recorder
	pipeline *ingest.Pipeline
	router   *router.Router
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `knowbase init` to create a config file", err)
	}
	return cfg, nil
}

// openApp builds the application from config: storage, vector index,
// providers and the pipelines on top of them. The vector index is
// loaded from disk when present; a missing index just means an empty
// knowledge base.
func openApp(reporter progress.Reporter) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}

	vectors, err := vectordb.NewChromemStore()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := vectors.Load(context.Background(), cfg.VectorDir()); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not load vector index from %s: %v\n", cfg.VectorDir(), err)
		}
	}

	kbStore := kb.NewStore(database)
	chats := chat.NewStore(database)
	processor := chunker.NewProcessor(cfg.Chunking)
	engine := retrieval.NewEngine(cfg.Retrieval, kbStore, embedder, vectors, retrieval.NewLexicalReranker())
	composer := answer.NewComposer(provider, cfg.Model)
	recorder := enrich.NewRecorder(kbStore, embedder, vectors, cfg.UploadsDir(), cfg.VectorDir())
	pipeline := ingest.NewPipeline(kbStore, processor, embedder, vectors, cfg.VectorDir(), reporter)

	msgRouter := router.New(router.Config{
		Chats:          chats,
		Provider:       provider,
		Model:          cfg.Model,
		Retriever:      engine,
		Answerer:       composer,
		Recorder:       recorder,
		Ingestor:       pipeline,
		HistoryWindow:  cfg.HistoryWindow,
		MaxAttachments: cfg.MaxAttachments,
	})

	return &app{
		cfg:      cfg,
		database: database,
		kbStore:  kbStore,
		chats:    chats,
		vectors:  vectors,
		embedder: embedder,
		provider: provider,
		engine:   engine,
		composer: composer,
		recorder: recorder,
		pipeline: pipeline,
		router:   msgRouter,
	}, nil
}

func (a *app) Close() {
	a.database.Close()
}

// printAnswer renders a structured answer for terminal output.
func printAnswer(ans *answer.StructuredAnswer) {
	fmt.Println(ans.Answer)
	fmt.Printf("\nConfidence: %s\n", ans.Confidence)

	if len(ans.MissingInfo) > 0 {
		fmt.Println("\nMissing information:")
		for _, m := range ans.MissingInfo {
			fmt.Println("  -", m)
		}
	}
	if len(ans.EnrichmentSuggestions) > 0 {
		fmt.Println("\nWhere to find it:")
		for _, e := range ans.EnrichmentSuggestions {
			fmt.Println("  -", e)
		}
	}
	if len(ans.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range ans.Sources {
			fmt.Println("  -", src)
		}
	}
}
