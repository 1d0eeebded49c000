package enrich

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ziadkadry99/knowbase/internal/chunker"
	"github.com/ziadkadry99/knowbase/internal/db"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/vectordb"
)

type stubEmbedder struct{ dims int }

func (s *stubEmbedder) Name() string    { return "stub" }
func (s *stubEmbedder) Dimensions() int { return s.dims }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, s.dims)
		for j, ch := range text {
			vec[(int(ch)+j)%s.dims] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		norm = math.Sqrt(norm)
		for j := range vec {
			vec[j] = float32(float64(vec[j]) / norm)
		}
		out[i] = vec
	}
	return out, nil
}

func testRecorder(t *testing.T) (*Recorder, *kb.Store, vectordb.Store, string) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := kb.NewStore(database)
	vectors, err := vectordb.NewChromemStore()
	if err != nil {
		t.Fatalf("creating vector store: %v", err)
	}
	dir := t.TempDir()
	return NewRecorder(store, &stubEmbedder{dims: 32}, vectors, dir, ""), store, vectors, dir
}

func TestRecord_CreatesLedgerAndChunk(t *testing.T) {
	r, store, vectors, dir := testRecorder(t)
	ctx := context.Background()

	result, err := r.Record(ctx, "The office wifi password is hunter2", "")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if result.ChunkIndex != 0 {
		t.Errorf("first chunk index = %d, want 0", result.ChunkIndex)
	}
	if result.Filename != kb.LedgerFilename {
		t.Errorf("filename = %q", result.Filename)
	}

	doc, err := store.GetLedgerDocument(ctx)
	if err != nil {
		t.Fatalf("ledger document missing: %v", err)
	}
	if !doc.IsManualInput {
		t.Error("ledger document not marked as manual input")
	}

	chunks, err := store.ChunksByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "The office wifi password is hunter2" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if chunks[0].VectorRef != kb.VectorID(doc.ID, 0) {
		t.Errorf("vector_ref = %q", chunks[0].VectorRef)
	}
	if vectors.Count() != 1 {
		t.Errorf("vector count = %d, want 1", vectors.Count())
	}

	if _, err := os.Stat(filepath.Join(dir, kb.LedgerFilename)); err != nil {
		t.Errorf("ledger file not written: %v", err)
	}
}

func TestRecord_ChunkIndexContinues(t *testing.T) {
	r, store, _, _ := testRecorder(t)
	ctx := context.Background()

	if _, err := r.Record(ctx, "First fact about the project", ""); err != nil {
		t.Fatal(err)
	}
	second, err := r.Record(ctx, "Second fact about the project", "")
	if err != nil {
		t.Fatal(err)
	}
	if second.ChunkIndex != 1 {
		t.Errorf("second chunk index = %d, want 1", second.ChunkIndex)
	}

	doc, err := store.GetLedgerDocument(ctx)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := store.ChunksByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Errorf("got %d chunks, want 2", len(chunks))
	}
}

func TestRecord_LedgerFileRoundTrip(t *testing.T) {
	r, _, _, dir := testRecorder(t)
	r.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	statement := "Budget for Q2 is $12,500 (approved)"
	if _, err := r.Record(context.Background(), statement, "what is the Q2 budget"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, kb.LedgerFilename))
	if err != nil {
		t.Fatal(err)
	}
	entries := chunker.ParseLedger(string(data))
	if len(entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(entries))
	}
	// The re-read entry must match the recorded statement exactly.
	if entries[0] != statement {
		t.Errorf("ledger entry = %q, want %q", entries[0], statement)
	}
}

func TestRecord_WritesEnrichmentAudit(t *testing.T) {
	r, store, _, _ := testRecorder(t)
	ctx := context.Background()

	if _, err := r.Record(ctx, "  The deadline moved to Friday\n", "when is the deadline"); err != nil {
		t.Fatal(err)
	}

	doc, err := store.GetLedgerDocument(ctx)
	if err != nil {
		t.Fatal(err)
	}
	enrichments, err := store.EnrichmentsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(enrichments) != 1 {
		t.Fatalf("got %d enrichments, want 1", len(enrichments))
	}
	if enrichments[0].Type != kb.EnrichmentManual {
		t.Errorf("enrichment type = %q", enrichments[0].Type)
	}
	if enrichments[0].QueryText != "when is the deadline" {
		t.Errorf("query text = %q", enrichments[0].QueryText)
	}

	// The audit record carries the same trimmed text as the chunk.
	if enrichments[0].Content != "The deadline moved to Friday" {
		t.Errorf("enrichment content = %q, want trimmed statement", enrichments[0].Content)
	}
	chunks, err := store.ChunksByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Text != enrichments[0].Content {
		t.Errorf("chunk text %q differs from audit content %q", chunks[0].Text, enrichments[0].Content)
	}
}

func TestRecord_RejectsEmptyStatement(t *testing.T) {
	r, _, _, _ := testRecorder(t)
	if _, err := r.Record(context.Background(), "   ", ""); err == nil {
		t.Error("expected error for empty statement")
	}
}
