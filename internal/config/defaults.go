package config

// EmbeddingDimensions maps known embedding models to their output dimensions.
var EmbeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"nomic-embed-text":       768,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           ".knowbase",
		Chunking: ChunkingConfig{
			MinChunkSize:      100,
			MaxChunkSize:      8000,
			SemanticChunkSize: 3000,
			SemanticOverlap:   300,
			FixedChunkSize:    2500,
			FixedOverlap:      250,
		},
		Retrieval: RetrievalConfig{
			CandidateChunks: 150,
			TopDocuments:    3,
			TopKChunks:      30,
			DocScoreWeight:  0.6,
			MinChunksPerDoc: 1,
		},
		HistoryWindow:     10,
		MaxAttachments:    3,
		MaxChats:          10,
		RequestsPerMinute: 60,
		Server: ServerConfig{
			Port: 8080,
		},
	}
}
