package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/ziadkadry99/knowbase/internal/chunker"
	"github.com/ziadkadry99/knowbase/internal/embeddings"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/progress"
	"github.com/ziadkadry99/knowbase/internal/vectordb"
)

// Pipeline turns source files into persisted documents: chunk, embed,
// write relational rows and mirror one vector entry per chunk.
type Pipeline struct {
	store     *kb.Store
	processor *chunker.Processor
	embedder  embeddings.Embedder
	vectors   vectordb.Store
	vectorDir string
	reporter  progress.Reporter
}

// NewPipeline assembles an ingestion pipeline. vectorDir is where the
// vector index is persisted after a batch; empty disables persistence.
// A nil reporter falls back to SilentReporter.
func NewPipeline(store *kb.Store, processor *chunker.Processor, embedder embeddings.Embedder, vectors vectordb.Store, vectorDir string, reporter progress.Reporter) *Pipeline {
	if reporter == nil {
		reporter = progress.SilentReporter{}
	}
	return &Pipeline{
		store:     store,
		processor: processor,
		embedder:  embedder,
		vectors:   vectors,
		vectorDir: vectorDir,
		reporter:  reporter,
	}
}

// FileOutcome is the per-file result of a batch ingestion. A batch of N
// files yields N independent outcomes; one failure never aborts the rest.
type FileOutcome struct {
	Path       string
	Document   *kb.Document
	ChunkCount int
	Err        error
}

// IngestFile ingests a single file. Chunking and embedding run before any
// row is written, so a failure leaves no partial document behind.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*kb.Document, int, error) {
	result, err := p.processor.Process(path)
	if err != nil {
		return nil, 0, err
	}
	if len(result.Chunks) == 0 {
		return nil, 0, &chunker.ExtractionError{Path: path, Reason: "no chunks produced"}
	}

	vectors, err := p.embedder.Embed(ctx, result.Chunks)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding chunks for %s: %w", path, err)
	}
	if len(vectors) != len(result.Chunks) {
		return nil, 0, fmt.Errorf("embedding count mismatch for %s: %d vectors for %d chunks", path, len(vectors), len(result.Chunks))
	}

	docID, err := p.store.AddDocument(ctx, result.Filename, result.FilePath, string(result.FileType), false)
	if err != nil {
		return nil, 0, fmt.Errorf("adding document row: %w", err)
	}
	doc, err := p.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, 0, fmt.Errorf("reading back document row: %w", err)
	}

	entries := make([]vectordb.Entry, 0, len(result.Chunks))
	for i, text := range result.Chunks {
		ref := kb.VectorID(doc.ID, i)
		chunkID, err := p.store.AddChunk(ctx, doc.ID, i, text, ref)
		if err != nil {
			return nil, 0, fmt.Errorf("adding chunk %d: %w", i, err)
		}
		entries = append(entries, vectordb.Entry{
			ID:     ref,
			Text:   text,
			Vector: vectors[i],
			Metadata: vectordb.Metadata{
				DocumentID: doc.ID,
				ChunkID:    chunkID,
				ChunkIndex: i,
				Filename:   doc.Filename,
			},
		})
	}

	if err := p.vectors.Upsert(ctx, entries); err != nil {
		return nil, 0, fmt.Errorf("upserting vectors: %w", err)
	}

	return doc, len(entries), nil
}

// IngestFiles ingests a batch of files with per-file error isolation.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) []FileOutcome {
	outcomes := make([]FileOutcome, 0, len(paths))

	p.reporter.Start(len(paths))
	defer p.reporter.Finish()

	for i, path := range paths {
		p.reporter.Update(i, filepath.Base(path))

		doc, count, err := p.IngestFile(ctx, path)
		if err != nil {
			log.Printf("[ingest] %s: %v", path, err)
		}
		outcomes = append(outcomes, FileOutcome{Path: path, Document: doc, ChunkCount: count, Err: err})

		p.reporter.Update(i+1, filepath.Base(path))
	}

	if err := p.persistIndex(ctx); err != nil {
		log.Printf("[ingest] persisting vector index: %v", err)
	}
	return outcomes
}

// IngestDirectory scans root for ingestable files and processes them as a
// batch.
func (p *Pipeline) IngestDirectory(ctx context.Context, root string, include, exclude []string) ([]FileOutcome, error) {
	paths, err := ScanDirectory(root, include, exclude)
	if err != nil {
		return nil, err
	}
	return p.IngestFiles(ctx, paths), nil
}

// DeleteDocument removes a document's vector entries first, then its
// relational rows, so no dangling vector ids survive a partial failure.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID int64) error {
	chunks, err := p.store.ChunksByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading chunks for delete: %w", err)
	}

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ref := c.VectorRef
		if ref == "" {
			ref = kb.VectorID(documentID, c.ChunkIndex)
		}
		ids = append(ids, ref)
	}

	if err := p.vectors.Delete(ctx, ids); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if err := p.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document rows: %w", err)
	}
	return p.persistIndex(ctx)
}

func (p *Pipeline) persistIndex(ctx context.Context) error {
	if p.vectorDir == "" {
		return nil
	}
	return p.vectors.Persist(ctx, p.vectorDir)
}
