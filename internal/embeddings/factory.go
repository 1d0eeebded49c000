package embeddings

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/knowbase/internal/config"
	"github.com/ziadkadry99/knowbase/internal/llm"
)

// NewEmbedder builds an Embedder for the configured provider, wrapped
// with transient-failure retries.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return WithRetry(NewOpenAIEmbedder(apiKey, OpenAIModel(cfg.EmbeddingModel)), llm.DefaultRetryConfig()), nil
	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		return WithRetry(NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDims(), host), llm.DefaultRetryConfig()), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
