package vectordb

// Entry is a single chunk embedding stored in the vector index. The ID
// follows the doc_{documentID}_chunk_{chunkIndex} convention so vectors can
// be deleted alongside their relational rows.
type Entry struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// Metadata ties a vector entry back to its chunk and document rows.
type Metadata struct {
	DocumentID int64
	ChunkID    int64
	ChunkIndex int
	Filename   string
}

// SearchResult pairs a stored entry with its cosine similarity to the query.
type SearchResult struct {
	Entry      Entry
	Similarity float32
}
