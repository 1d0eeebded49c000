package kb

import (
	"errors"
	"fmt"
	"time"
)

// LedgerFilename is the reserved filename of the manual-enrichment ledger.
// The document row with this filename and is_manual_input set is the only
// document ever appended to after creation.
const LedgerFilename = "manual_information.txt"

// ErrNotFound indicates a row that was expected to exist is absent.
// For the ledger document this is a programming-invariant violation,
// not a routinely handled condition.
var ErrNotFound = errors.New("not found")

// Document is a canonical document row. Immutable after creation except
// deletion, which cascades to its chunks; the manual ledger is the one
// exception and is append-only.
type Document struct {
	ID              int64
	Filename        string
	FilePath        string
	FileType        string
	UploadTimestamp time.Time
	IsManualInput   bool
}

// Chunk is a retrieval unit belonging to a document. ChunkIndex is unique
// and densely increasing per document; ledger chunks continue the sequence
// across appends. VectorRef is the identifier of the chunk's entry in the
// vector index, derivable from (DocumentID, ChunkIndex).
type Chunk struct {
	ID         int64
	DocumentID int64
	ChunkIndex int
	Text       string
	VectorRef  string
	CreatedAt  time.Time

	// Joined from the parent document for retrieval and display.
	Filename string
	FilePath string
}

// EnrichmentType distinguishes manually provided facts from automatic ones.
type EnrichmentType string

const (
	EnrichmentManual EnrichmentType = "manual"
	EnrichmentAuto   EnrichmentType = "auto"
)

// Enrichment is an append-only audit record of a knowledge-base write.
type Enrichment struct {
	ID         int64
	QueryText  string
	Type       EnrichmentType
	Content    string
	DocumentID int64
	CreatedAt  time.Time
}

// VectorID derives the vector index identifier for a chunk from its
// document id and chunk index. Document deletes rely on this convention
// to translate chunk rows into vector index deletes.
func VectorID(documentID int64, chunkIndex int) string {
	return fmt.Sprintf("doc_%d_chunk_%d", documentID, chunkIndex)
}
