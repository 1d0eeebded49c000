package enrich

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziadkadry99/knowbase/internal/embeddings"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/vectordb"
)

// Recorder appends free-text statements to the manual-knowledge ledger.
// The relational ledger row is authoritative; the ledger file is a derived
// export that is kept in step for transparency and re-ingestion.
type Recorder struct {
	store     *kb.Store
	embedder  embeddings.Embedder
	vectors   vectordb.Store
	uploadDir string
	vectorDir string

	// now is swappable for tests.
	now func() time.Time
}

// NewRecorder creates a Recorder. uploadDir is where the ledger file
// lives; vectorDir is where the vector index is persisted after each
// record (empty disables persistence).
func NewRecorder(store *kb.Store, embedder embeddings.Embedder, vectors vectordb.Store, uploadDir, vectorDir string) *Recorder {
	return &Recorder{
		store:     store,
		embedder:  embedder,
		vectors:   vectors,
		uploadDir: uploadDir,
		vectorDir: vectorDir,
		now:       time.Now,
	}
}

// Result reports a successful record operation.
type Result struct {
	DocumentID int64
	ChunkIndex int
	Filename   string
}

// Record appends one statement to the ledger. The statement is stored as
// exactly one chunk and one vector entry regardless of its length; the
// bracketed timestamp goes only into the ledger file, never into the
// chunk text or the embedding. sourceQuery, when non-empty, is kept on
// the enrichment audit record.
func (r *Recorder) Record(ctx context.Context, statement, sourceQuery string) (*Result, error) {
	content := strings.TrimSpace(statement)
	if content == "" {
		return nil, fmt.Errorf("empty statement")
	}

	// Embed before touching storage so a provider failure leaves the
	// ledger untouched.
	vecs, err := r.embedder.Embed(ctx, []string{content})
	if err != nil {
		return nil, fmt.Errorf("embedding statement: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding statement: got %d vectors, want 1", len(vecs))
	}

	filePath := filepath.Join(r.uploadDir, kb.LedgerFilename)
	doc, _, err := r.store.GetOrCreateLedgerDocument(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving ledger document: %w", err)
	}

	if err := r.appendToFile(filePath, content); err != nil {
		return nil, err
	}

	index, err := r.store.NextChunkIndex(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("allocating chunk index: %w", err)
	}

	ref := kb.VectorID(doc.ID, index)
	chunkID, err := r.store.AddChunk(ctx, doc.ID, index, content, ref)
	if err != nil {
		return nil, fmt.Errorf("adding ledger chunk: %w", err)
	}

	entry := vectordb.Entry{
		ID:     ref,
		Text:   content,
		Vector: vecs[0],
		Metadata: vectordb.Metadata{
			DocumentID: doc.ID,
			ChunkID:    chunkID,
			ChunkIndex: index,
			Filename:   kb.LedgerFilename,
		},
	}
	if err := r.vectors.Upsert(ctx, []vectordb.Entry{entry}); err != nil {
		return nil, fmt.Errorf("upserting ledger vector: %w", err)
	}

	if _, err := r.store.AddEnrichment(ctx, sourceQuery, kb.EnrichmentManual, content, doc.ID); err != nil {
		return nil, fmt.Errorf("recording enrichment: %w", err)
	}

	if r.vectorDir != "" {
		if err := r.vectors.Persist(ctx, r.vectorDir); err != nil {
			return nil, fmt.Errorf("persisting vector index: %w", err)
		}
	}

	return &Result{DocumentID: doc.ID, ChunkIndex: index, Filename: kb.LedgerFilename}, nil
}

func (r *Recorder) appendToFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger file: %w", err)
	}
	defer f.Close()

	timestamp := r.now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(f, "[%s]\n%s\n\n", timestamp, content); err != nil {
		return fmt.Errorf("appending to ledger file: %w", err)
	}
	return nil
}
