package retrieval

import "github.com/ziadkadry99/knowbase/internal/kb"

// QualityNone marks an explicit empty retrieval result. Degrading to an
// unfiltered similarity search would hide retrieval failure, so an empty
// result is reported instead.
const QualityNone = "none"

// ScoredChunk is a chunk annotated with retrieval scores. DocumentScore
// is the parent document's stage-one score, OriginalSimilarity the
// chunk's own cosine similarity from the candidate pool (zero when the
// chunk never appeared there) and RerankScore the pairwise relevance
// score from stage two.
type ScoredChunk struct {
	kb.Chunk

	DocumentScore      float64 `json:"document_score"`
	OriginalSimilarity float64 `json:"original_similarity"`
	RerankScore        float64 `json:"rerank_score"`
}

// Result is the outcome of one retrieval. MaxSimilarity is the highest
// stage-one document score among the final chunks; it reports document
// selection confidence, which is distinct from chunk relevance.
type Result struct {
	Chunks        []ScoredChunk `json:"chunks"`
	MaxSimilarity float64       `json:"max_similarity"`
	NumChunks     int           `json:"num_chunks"`
	TopDocuments  []int64       `json:"top_documents"`
	Quality       string        `json:"retrieval_quality,omitempty"`
}

func emptyResult(topDocuments []int64) *Result {
	if topDocuments == nil {
		topDocuments = []int64{}
	}
	return &Result{
		Chunks:       []ScoredChunk{},
		TopDocuments: topDocuments,
		Quality:      QualityNone,
	}
}
