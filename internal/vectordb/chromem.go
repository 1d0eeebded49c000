package vectordb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const (
	collectionName = "knowledge"
	indexFilename  = "chromem.gob.gz"
)

// ChromemStore implements Store using chromem-go. All vectors are supplied
// by callers, so the collection's embedding func is never invoked during
// normal operation.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore() (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := rejectEmbeddingFunc

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

// rejectEmbeddingFunc exists only to satisfy chromem's collection API.
func rejectEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("vectordb: entries must carry precomputed vectors")
}

func (s *ChromemStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %q has no vector", e.ID)
		}
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Vector,
			Metadata:  metadataToMap(e.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, docs, 1)
}

func (s *ChromemStore) QueryByVector(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Entry: Entry{
				ID:       r.ID,
				Text:     r.Content,
				Vector:   r.Embedding,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if s.collection.Count() == 0 {
		return nil
	}
	return s.collection.Delete(ctx, nil, nil, ids...)
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(filepath.Join(dir, indexFilename), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(filepath.Join(dir, indexFilename), "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// metadataToMap converts Metadata to the flat map[string]string chromem stores.
func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"document_id": strconv.FormatInt(m.DocumentID, 10),
		"chunk_id":    strconv.FormatInt(m.ChunkID, 10),
		"chunk_index": strconv.Itoa(m.ChunkIndex),
		"filename":    m.Filename,
	}
}

// mapToMetadata converts a flat map[string]string back to Metadata.
func mapToMetadata(m map[string]string) Metadata {
	docID, _ := strconv.ParseInt(m["document_id"], 10, 64)
	chunkID, _ := strconv.ParseInt(m["chunk_id"], 10, 64)
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])

	return Metadata{
		DocumentID: docID,
		ChunkID:    chunkID,
		ChunkIndex: chunkIndex,
		Filename:   m["filename"],
	}
}
