package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (KNOWBASE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: KNOWBASE_PROVIDER -> provider,
	// KNOWBASE_SERVER__PORT -> server.port, etc.
	if err := k.Load(env.Provider("KNOWBASE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "KNOWBASE_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	ch := c.Chunking
	if ch.MinChunkSize <= 0 || ch.MaxChunkSize <= 0 {
		return fmt.Errorf("chunk size bounds must be positive")
	}
	if ch.MinChunkSize >= ch.MaxChunkSize {
		return fmt.Errorf("min_chunk_size (%d) must be below max_chunk_size (%d)", ch.MinChunkSize, ch.MaxChunkSize)
	}
	if ch.SemanticChunkSize <= 0 || ch.FixedChunkSize <= 0 {
		return fmt.Errorf("semantic_chunk_size and fixed_chunk_size must be positive")
	}
	if ch.SemanticOverlap < 0 || ch.FixedOverlap < 0 {
		return fmt.Errorf("chunk overlaps must be non-negative")
	}
	if ch.SemanticOverlap >= ch.SemanticChunkSize || ch.FixedOverlap >= ch.FixedChunkSize {
		return fmt.Errorf("chunk overlap must be below the corresponding chunk size")
	}

	r := c.Retrieval
	if r.CandidateChunks <= 0 || r.TopDocuments <= 0 || r.TopKChunks <= 0 {
		return fmt.Errorf("retrieval limits must be positive")
	}
	if r.DocScoreWeight < 0 || r.DocScoreWeight > 1 {
		return fmt.Errorf("doc_score_weight must be in [0,1], got %v", r.DocScoreWeight)
	}
	if r.MinChunksPerDoc < 1 {
		return fmt.Errorf("min_chunks_per_doc must be at least 1")
	}

	if c.HistoryWindow < 0 {
		return fmt.Errorf("history_window must be non-negative")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider. Ollama needs no key.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
