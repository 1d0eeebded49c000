package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider openai, got %q", cfg.Provider)
	}
	if cfg.Chunking.MinChunkSize != 100 || cfg.Chunking.MaxChunkSize != 8000 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.CandidateChunks != 150 || cfg.Retrieval.DocScoreWeight != 0.6 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowbase.yml")
	content := "provider: ollama\nmodel: llama3\nretrieval:\n  top_documents: 5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("expected provider ollama, got %q", cfg.Provider)
	}
	if cfg.Retrieval.TopDocuments != 5 {
		t.Errorf("expected top_documents 5, got %d", cfg.Retrieval.TopDocuments)
	}
	// Untouched values keep their defaults.
	if cfg.Retrieval.TopKChunks != 30 {
		t.Errorf("expected top_k_chunks default 30, got %d", cfg.Retrieval.TopKChunks)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KNOWBASE_MODEL", "gpt-4o")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("expected env override gpt-4o, got %q", cfg.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "other" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"min above max", func(c *Config) { c.Chunking.MinChunkSize = 9000 }},
		{"bad weight", func(c *Config) { c.Retrieval.DocScoreWeight = 1.5 }},
		{"zero min chunks per doc", func(c *Config) { c.Retrieval.MinChunksPerDoc = 0 }},
		{"overlap above size", func(c *Config) { c.Chunking.SemanticOverlap = 5000 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yml")
	cfg := DefaultConfig()
	cfg.Model = "gpt-4o"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Model != "gpt-4o" {
		t.Errorf("expected gpt-4o after round trip, got %q", loaded.Model)
	}
}
