package config

import "path/filepath"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// ChunkingConfig holds the sizing parameters shared by all chunking strategies.
type ChunkingConfig struct {
	MinChunkSize      int `yaml:"min_chunk_size" koanf:"min_chunk_size"`
	MaxChunkSize      int `yaml:"max_chunk_size" koanf:"max_chunk_size"`
	SemanticChunkSize int `yaml:"semantic_chunk_size" koanf:"semantic_chunk_size"`
	SemanticOverlap   int `yaml:"semantic_overlap" koanf:"semantic_overlap"`
	FixedChunkSize    int `yaml:"fixed_chunk_size" koanf:"fixed_chunk_size"`
	FixedOverlap      int `yaml:"fixed_overlap" koanf:"fixed_overlap"`
}

// RetrievalConfig holds the knobs for two-stage document retrieval.
type RetrievalConfig struct {
	CandidateChunks int     `yaml:"candidate_chunks" koanf:"candidate_chunks"`
	TopDocuments    int     `yaml:"top_documents" koanf:"top_documents"`
	TopKChunks      int     `yaml:"top_k_chunks" koanf:"top_k_chunks"`
	DocScoreWeight  float64 `yaml:"doc_score_weight" koanf:"doc_score_weight"`
	MinChunksPerDoc int     `yaml:"min_chunks_per_doc" koanf:"min_chunks_per_doc"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// Config is the top-level knowbase configuration, corresponding to .knowbase.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	Chunking          ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Retrieval         RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	HistoryWindow     int             `yaml:"history_window" koanf:"history_window"`
	MaxAttachments    int             `yaml:"max_attachments" koanf:"max_attachments"`
	MaxChats          int             `yaml:"max_chats" koanf:"max_chats"`
	RequestsPerMinute int             `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
}

// UploadsDir is where ingested files (and the manual ledger) live.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// DatabasePath is the SQLite metadata database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "metadata.db")
}

// VectorDir is the directory the vector index is exported to.
func (c *Config) VectorDir() string {
	return filepath.Join(c.DataDir, "vectordb")
}

// EmbeddingDims returns the output dimensionality of the configured
// embedding model, falling back to 1536 for unknown models.
func (c *Config) EmbeddingDims() int {
	if d, ok := EmbeddingDimensions[c.EmbeddingModel]; ok {
		return d
	}
	return 1536
}
