package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/ziadkadry99/knowbase/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestAddAndGetDocument(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.AddDocument(ctx, "notes.txt", "/data/uploads/notes.txt", ".txt", false)
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Filename != "notes.txt" || doc.FileType != ".txt" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.IsManualInput {
		t.Error("expected is_manual_input false")
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetDocument(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestChunksByDocumentOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docID, err := store.AddDocument(ctx, "a.txt", "/a.txt", ".txt", false)
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	// Insert out of order; reads must come back in chunk index order.
	for _, idx := range []int{2, 0, 1} {
		if _, err := store.AddChunk(ctx, docID, idx, "chunk text", VectorID(docID, idx)); err != nil {
			t.Fatalf("AddChunk %d: %v", idx, err)
		}
	}

	chunks, err := store.ChunksByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ChunksByDocument: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.ChunkIndex)
		}
		if c.Filename != "a.txt" {
			t.Errorf("chunk %d: expected joined filename, got %q", i, c.Filename)
		}
	}
}

func TestNextChunkIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docID, err := store.AddDocument(ctx, "a.txt", "/a.txt", ".txt", false)
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	next, err := store.NextChunkIndex(ctx, docID)
	if err != nil {
		t.Fatalf("NextChunkIndex: %v", err)
	}
	if next != 0 {
		t.Errorf("expected first index 0, got %d", next)
	}

	if _, err := store.AddChunk(ctx, docID, 0, "text", VectorID(docID, 0)); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if _, err := store.AddChunk(ctx, docID, 1, "text", VectorID(docID, 1)); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}

	next, err = store.NextChunkIndex(ctx, docID)
	if err != nil {
		t.Fatalf("NextChunkIndex: %v", err)
	}
	if next != 2 {
		t.Errorf("expected next index 2, got %d", next)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docID, err := store.AddDocument(ctx, "a.txt", "/a.txt", ".txt", false)
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if _, err := store.AddChunk(ctx, docID, 0, "text", VectorID(docID, 0)); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}

	if err := store.DeleteDocument(ctx, docID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	if _, err := store.GetDocument(ctx, docID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected document gone, got %v", err)
	}
	chunks, err := store.ChunksByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ChunksByDocument: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks after delete, got %d", len(chunks))
	}
}

func TestGetOrCreateLedgerDocument(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc, created, err := store.GetOrCreateLedgerDocument(ctx, "/uploads/"+LedgerFilename)
	if err != nil {
		t.Fatalf("GetOrCreateLedgerDocument: %v", err)
	}
	if !created {
		t.Error("expected first call to create the ledger")
	}
	if doc.Filename != LedgerFilename || !doc.IsManualInput {
		t.Errorf("unexpected ledger document: %+v", doc)
	}

	again, created, err := store.GetOrCreateLedgerDocument(ctx, "/uploads/"+LedgerFilename)
	if err != nil {
		t.Fatalf("second GetOrCreateLedgerDocument: %v", err)
	}
	if created {
		t.Error("second call must not create another ledger")
	}
	if again.ID != doc.ID {
		t.Errorf("expected same ledger id %d, got %d", doc.ID, again.ID)
	}
}

func TestAddEnrichment(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docID, err := store.AddDocument(ctx, LedgerFilename, "/l.txt", ".txt", true)
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	if _, err := store.AddEnrichment(ctx, "", EnrichmentManual, "Yash graduated from UCLA in 2023", docID); err != nil {
		t.Fatalf("AddEnrichment: %v", err)
	}

	list, err := store.EnrichmentsByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("EnrichmentsByDocument: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 enrichment, got %d", len(list))
	}
	if list[0].Type != EnrichmentManual {
		t.Errorf("expected manual type, got %q", list[0].Type)
	}
}

func TestVectorID(t *testing.T) {
	if got := VectorID(7, 3); got != "doc_7_chunk_3" {
		t.Errorf("VectorID = %q", got)
	}
}
