package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/ziadkadry99/knowbase/internal/config"
	"github.com/ziadkadry99/knowbase/internal/embeddings"
	"github.com/ziadkadry99/knowbase/internal/kb"
	"github.com/ziadkadry99/knowbase/internal/vectordb"
)

// Engine performs two-stage retrieval: document scoring over a generous
// candidate pool of chunk hits, then a full rerank of every chunk in the
// selected documents. Flat top-k chunk retrieval over-represents documents
// with many near-duplicate chunks; scoring documents first keeps one
// strongly matching document from being drowned out.
type Engine struct {
	cfg      config.RetrievalConfig
	store    *kb.Store
	embedder embeddings.Embedder
	vectors  vectordb.Store
	reranker Reranker
}

// NewEngine assembles a retrieval engine.
func NewEngine(cfg config.RetrievalConfig, store *kb.Store, embedder embeddings.Embedder, vectors vectordb.Store, reranker Reranker) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		reranker: reranker,
	}
}

// docScore aggregates a document's candidate hits.
type docScore struct {
	id     int64
	maxSim float64
	sumSim float64
	count  int
	score  float64
}

// Retrieve runs both stages for a query. An empty knowledge base or a
// fully filtered candidate pool yields an explicit empty result, never an
// error.
func (e *Engine) Retrieve(ctx context.Context, query string) (*Result, error) {
	queryVecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors, want 1", len(queryVecs))
	}

	hits, err := e.vectors.QueryByVector(ctx, queryVecs[0], e.cfg.CandidateChunks)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}

	scores, simByRef := e.scoreDocuments(hits)
	if len(scores) == 0 {
		return emptyResult(nil), nil
	}

	topDocs := topDocuments(scores, e.cfg.TopDocuments)
	topIDs := make([]int64, len(topDocs))
	for i, d := range topDocs {
		topIDs[i] = d.id
	}

	// Stage two works on every chunk of each selected document, not just
	// the ones that happened to appear in the candidate pool.
	var candidates []ScoredChunk
	for _, d := range topDocs {
		chunks, err := e.store.ChunksByDocument(ctx, d.id)
		if err != nil {
			return nil, fmt.Errorf("loading chunks for document %d: %w", d.id, err)
		}
		for _, c := range chunks {
			candidates = append(candidates, ScoredChunk{
				Chunk:              c,
				DocumentScore:      d.score,
				OriginalSimilarity: simByRef[c.VectorRef],
			})
		}
	}
	if len(candidates) == 0 {
		return emptyResult(topIDs), nil
	}

	final, err := e.rerank(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	maxSimilarity := 0.0
	for _, c := range final {
		if c.DocumentScore > maxSimilarity {
			maxSimilarity = c.DocumentScore
		}
	}

	return &Result{
		Chunks:        final,
		MaxSimilarity: maxSimilarity,
		NumChunks:     len(final),
		TopDocuments:  topIDs,
	}, nil
}

// scoreDocuments groups candidate hits by document in first-appearance
// order and computes each surviving document's combined score. Documents
// with fewer than MinChunksPerDoc hits are excluded outright; a single
// high similarity is not enough evidence to trust the score.
func (e *Engine) scoreDocuments(hits []vectordb.SearchResult) ([]*docScore, map[string]float64) {
	byDoc := make(map[int64]*docScore)
	var order []*docScore
	simByRef := make(map[string]float64, len(hits))

	for _, hit := range hits {
		simByRef[hit.Entry.ID] = float64(hit.Similarity)

		docID := hit.Entry.Metadata.DocumentID
		sim := float64(hit.Similarity)
		d, ok := byDoc[docID]
		if !ok {
			d = &docScore{id: docID, maxSim: sim}
			byDoc[docID] = d
			order = append(order, d)
		}
		if sim > d.maxSim {
			d.maxSim = sim
		}
		d.sumSim += sim
		d.count++
	}

	var surviving []*docScore
	for _, d := range order {
		if d.count < e.cfg.MinChunksPerDoc {
			continue
		}
		avg := d.sumSim / float64(d.count)
		d.score = d.maxSim*e.cfg.DocScoreWeight + avg*(1-e.cfg.DocScoreWeight)
		surviving = append(surviving, d)
	}
	return surviving, simByRef
}

// topDocuments returns the top n documents by score. The sort is stable,
// so ties keep their candidate-pool order.
func topDocuments(scores []*docScore, n int) []*docScore {
	sorted := make([]*docScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// rerank scores every candidate against the query, sorts by rerank score
// and truncates to the configured chunk budget.
func (e *Engine) rerank(ctx context.Context, query string, candidates []ScoredChunk) ([]ScoredChunk, error) {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	scores, err := e.reranker.Scores(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("reranking chunks: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("reranking chunks: got %d scores for %d candidates", len(scores), len(candidates))
	}

	for i := range candidates {
		candidates[i].RerankScore = scores[i]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RerankScore > candidates[j].RerankScore
	})

	if e.cfg.TopKChunks > 0 && len(candidates) > e.cfg.TopKChunks {
		candidates = candidates[:e.cfg.TopKChunks]
	}
	return candidates, nil
}
