package retrieval

import (
	"context"
	"math"
	"testing"

	"github.com/ziadkadry99/knowbase/internal/config"
	"github.com/ziadkadry99/knowbase/internal/db"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/vectordb"
)

type stubEmbedder struct{}

func (stubEmbedder) Name() string    { return "stub" }
func (stubEmbedder) Dimensions() int { return 4 }

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

type stubVectors struct {
	hits []vectordb.SearchResult
}

func (s *stubVectors) Upsert(context.Context, []vectordb.Entry) error { return nil }
func (s *stubVectors) Delete(context.Context, []string) error        { return nil }
func (s *stubVectors) Persist(context.Context, string) error         { return nil }
func (s *stubVectors) Load(context.Context, string) error            { return nil }
func (s *stubVectors) Count() int                                    { return len(s.hits) }

func (s *stubVectors) QueryByVector(context.Context, []float32, int) ([]vectordb.SearchResult, error) {
	return s.hits, nil
}

// stubReranker scores texts from a fixed table, defaulting to zero.
type stubReranker struct {
	scores map[string]float64
}

func (r stubReranker) Scores(_ context.Context, _ string, texts []string) ([]float64, error) {
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = r.scores[t]
	}
	return out, nil
}

func testConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		CandidateChunks: 150,
		TopDocuments:    3,
		TopKChunks:      30,
		DocScoreWeight:  0.6,
		MinChunksPerDoc: 1,
	}
}

func seedStore(t *testing.T) *kb.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return kb.NewStore(database)
}

func addDoc(t *testing.T, store *kb.Store, filename string, chunks []string) int64 {
	t.Helper()
	ctx := context.Background()
	docID, err := store.AddDocument(ctx, filename, "/uploads/"+filename, "text", false)
	if err != nil {
		t.Fatal(err)
	}
	for i, text := range chunks {
		if _, err := store.AddChunk(ctx, docID, i, text, kb.VectorID(docID, i)); err != nil {
			t.Fatal(err)
		}
	}
	return docID
}

func hit(docID int64, chunkIndex int, sim float64) vectordb.SearchResult {
	return vectordb.SearchResult{
		Entry: vectordb.Entry{
			ID:       kb.VectorID(docID, chunkIndex),
			Metadata: vectordb.Metadata{DocumentID: docID, ChunkIndex: chunkIndex},
		},
		Similarity: float32(sim),
	}
}

func TestRetrieve_DocumentScoreFormula(t *testing.T) {
	store := seedStore(t)
	docID := addDoc(t, store, "a.txt", []string{"alpha one", "alpha two"})

	vectors := &stubVectors{hits: []vectordb.SearchResult{
		hit(docID, 0, 0.9),
		hit(docID, 1, 0.5),
	}}
	engine := NewEngine(testConfig(), store, stubEmbedder{}, vectors, stubReranker{})

	result, err := engine.Retrieve(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	// score = 0.6*max + 0.4*avg = 0.6*0.9 + 0.4*0.7 = 0.82
	want := 0.82
	if math.Abs(result.MaxSimilarity-want) > 1e-9 {
		t.Errorf("MaxSimilarity = %v, want %v", result.MaxSimilarity, want)
	}
	for _, c := range result.Chunks {
		if math.Abs(c.DocumentScore-want) > 1e-9 {
			t.Errorf("chunk %d DocumentScore = %v, want %v", c.ChunkIndex, c.DocumentScore, want)
		}
	}
}

func TestRetrieve_MinChunksPerDocExcludes(t *testing.T) {
	store := seedStore(t)
	docA := addDoc(t, store, "a.txt", []string{"a chunk one", "a chunk two"})
	docB := addDoc(t, store, "b.txt", []string{"b chunk one"})

	vectors := &stubVectors{hits: []vectordb.SearchResult{
		hit(docB, 0, 0.95),
		hit(docA, 0, 0.9),
		hit(docA, 1, 0.8),
	}}
	cfg := testConfig()
	cfg.MinChunksPerDoc = 2
	engine := NewEngine(cfg, store, stubEmbedder{}, vectors, stubReranker{})

	result, err := engine.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	// docB's single 0.95 hit is insufficient evidence despite being highest.
	if len(result.TopDocuments) != 1 || result.TopDocuments[0] != docA {
		t.Errorf("TopDocuments = %v, want [%d]", result.TopDocuments, docA)
	}
	for _, c := range result.Chunks {
		if c.DocumentID == docB {
			t.Errorf("chunk from excluded document %d in result", docB)
		}
	}
}

func TestRetrieve_EmptyKnowledgeBase(t *testing.T) {
	store := seedStore(t)
	engine := NewEngine(testConfig(), store, stubEmbedder{}, &stubVectors{}, stubReranker{})

	result, err := engine.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.NumChunks != 0 {
		t.Errorf("NumChunks = %d, want 0", result.NumChunks)
	}
	if len(result.TopDocuments) != 0 {
		t.Errorf("TopDocuments = %v, want empty", result.TopDocuments)
	}
	if result.Quality != QualityNone {
		t.Errorf("Quality = %q, want %q", result.Quality, QualityNone)
	}
}

func TestRetrieve_AllChunksOfTopDocumentScored(t *testing.T) {
	store := seedStore(t)
	docID := addDoc(t, store, "a.txt", []string{"first part", "second part", "third part"})

	// Only one chunk reached the candidate pool.
	vectors := &stubVectors{hits: []vectordb.SearchResult{hit(docID, 1, 0.9)}}
	engine := NewEngine(testConfig(), store, stubEmbedder{}, vectors, stubReranker{})

	result, err := engine.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.NumChunks != 3 {
		t.Fatalf("NumChunks = %d, want all 3 chunks of the document", result.NumChunks)
	}

	for _, c := range result.Chunks {
		if c.ChunkIndex == 1 {
			if math.Abs(c.OriginalSimilarity-0.9) > 1e-9 {
				t.Errorf("candidate chunk OriginalSimilarity = %v, want 0.9", c.OriginalSimilarity)
			}
		} else if c.OriginalSimilarity != 0 {
			t.Errorf("non-candidate chunk %d OriginalSimilarity = %v, want 0", c.ChunkIndex, c.OriginalSimilarity)
		}
	}
}

func TestRetrieve_RerankOrdersAndTruncates(t *testing.T) {
	store := seedStore(t)
	docID := addDoc(t, store, "a.txt", []string{"low relevance", "high relevance", "mid relevance"})

	vectors := &stubVectors{hits: []vectordb.SearchResult{hit(docID, 0, 0.8)}}
	cfg := testConfig()
	cfg.TopKChunks = 2
	reranker := stubReranker{scores: map[string]float64{
		"low relevance":  0.2,
		"high relevance": 0.9,
		"mid relevance":  0.5,
	}}
	engine := NewEngine(cfg, store, stubEmbedder{}, vectors, reranker)

	result, err := engine.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.NumChunks != 2 {
		t.Fatalf("NumChunks = %d, want 2", result.NumChunks)
	}
	if result.Chunks[0].Text != "high relevance" || result.Chunks[1].Text != "mid relevance" {
		t.Errorf("rerank order wrong: %q, %q", result.Chunks[0].Text, result.Chunks[1].Text)
	}
	if result.Chunks[0].RerankScore != 0.9 {
		t.Errorf("RerankScore = %v, want 0.9", result.Chunks[0].RerankScore)
	}
}

func TestRetrieve_TieBreakKeepsCandidateOrder(t *testing.T) {
	store := seedStore(t)
	docA := addDoc(t, store, "a.txt", []string{"a text"})
	docB := addDoc(t, store, "b.txt", []string{"b text"})

	// Identical scores; docB appeared first in the candidate pool.
	vectors := &stubVectors{hits: []vectordb.SearchResult{
		hit(docB, 0, 0.8),
		hit(docA, 0, 0.8),
	}}
	cfg := testConfig()
	cfg.TopDocuments = 1
	engine := NewEngine(cfg, store, stubEmbedder{}, vectors, stubReranker{})

	result, err := engine.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.TopDocuments) != 1 || result.TopDocuments[0] != docB {
		t.Errorf("TopDocuments = %v, want [%d]", result.TopDocuments, docB)
	}
}

func TestLexicalReranker(t *testing.T) {
	r := NewLexicalReranker()
	texts := []string{
		"quantum computing uses qubits for parallel computation",
		"the cat sat on the mat all afternoon",
	}
	scores, err := r.Scores(context.Background(), "how does quantum computing work", texts)
	if err != nil {
		t.Fatalf("Scores() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	if scores[0] <= scores[1] {
		t.Errorf("relevant text scored %v, irrelevant %v; want relevant higher", scores[0], scores[1])
	}

	empty, err := r.Scores(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("Scores() on empty error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("got %d scores for empty input", len(empty))
	}
}
