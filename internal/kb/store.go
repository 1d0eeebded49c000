package kb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ziadkadry99/knowbase/internal/db"
)

// Store manages persistence of documents, chunks and enrichment records.
type Store struct {
	db *db.DB
}

// NewStore creates a new knowledge base store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// AddDocument inserts a new document row and returns its id.
func (s *Store) AddDocument(ctx context.Context, filename, filePath, fileType string, isManualInput bool) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (filename, file_path, file_type, is_manual_input)
		 VALUES (?, ?, ?, ?)`,
		filename, filePath, fileType, isManualInput,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading document id: %w", err)
	}
	return id, nil
}

// GetDocument retrieves a document by id. Returns ErrNotFound if absent.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, file_path, file_type, upload_timestamp, is_manual_input
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Filename, &d.FilePath, &d.FileType, &d.UploadTimestamp, &d.IsManualInput)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns all documents, most recently uploaded first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, file_path, file_type, upload_timestamp, is_manual_input
		 FROM documents ORDER BY upload_timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.FilePath, &d.FileType, &d.UploadTimestamp, &d.IsManualInput); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and its chunk rows in one transaction.
// Callers must delete the corresponding vector entries first so no dangling
// vector ids survive a crash between the two stores.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	return tx.Commit()
}

// AddChunk inserts a chunk row and returns its id.
func (s *Store) AddChunk(ctx context.Context, documentID int64, chunkIndex int, text, vectorRef string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (document_id, chunk_index, text, vector_ref)
		 VALUES (?, ?, ?, ?)`,
		documentID, chunkIndex, text, vectorRef,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading chunk id: %w", err)
	}
	return id, nil
}

// ChunksByDocument returns every chunk of the given document, in chunk
// index order, with the parent document's filename and path joined in.
func (s *Store) ChunksByDocument(ctx context.Context, documentID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.text, c.vector_ref, c.created_at,
		        d.filename, d.file_path
		 FROM chunks c
		 JOIN documents d ON c.document_id = d.id
		 WHERE c.document_id = ?
		 ORDER BY c.chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// NextChunkIndex allocates the next chunk index for a document:
// max(existing) + 1, or 0 for a document with no chunks yet.
func (s *Store) NextChunkIndex(ctx context.Context, documentID int64) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(chunk_index) + 1, 0) FROM chunks WHERE document_id = ?`,
		documentID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocating chunk index: %w", err)
	}
	return next, nil
}

// GetLedgerDocument returns the manual-enrichment ledger document.
// Returns ErrNotFound if it has never been created.
func (s *Store) GetLedgerDocument(ctx context.Context) (*Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, file_path, file_type, upload_timestamp, is_manual_input
		 FROM documents WHERE filename = ? AND is_manual_input = 1`, LedgerFilename,
	).Scan(&d.ID, &d.Filename, &d.FilePath, &d.FileType, &d.UploadTimestamp, &d.IsManualInput)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ledger document: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting ledger document: %w", err)
	}
	return &d, nil
}

// GetOrCreateLedgerDocument returns the ledger document, creating the row
// if it does not exist yet. The relational row is authoritative; the flat
// ledger file at filePath is a derived export maintained by the recorder.
// The second return value reports whether the row was created.
func (s *Store) GetOrCreateLedgerDocument(ctx context.Context, filePath string) (*Document, bool, error) {
	doc, err := s.GetLedgerDocument(ctx)
	if err == nil {
		return doc, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	id, err := s.AddDocument(ctx, LedgerFilename, filePath, ".txt", true)
	if err != nil {
		return nil, false, fmt.Errorf("creating ledger document: %w", err)
	}
	doc, err = s.GetDocument(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// AddEnrichment appends an immutable enrichment audit record.
func (s *Store) AddEnrichment(ctx context.Context, queryText string, typ EnrichmentType, content string, documentID int64) (int64, error) {
	var query sql.NullString
	if queryText != "" {
		query = sql.NullString{String: queryText, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichments (query_text, type, content, document_id)
		 VALUES (?, ?, ?, ?)`,
		query, string(typ), content, documentID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting enrichment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading enrichment id: %w", err)
	}
	return id, nil
}

// EnrichmentsByDocument returns the audit trail for a document, oldest first.
func (s *Store) EnrichmentsByDocument(ctx context.Context, documentID int64) ([]Enrichment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_text, type, content, document_id, created_at
		 FROM enrichments WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying enrichments: %w", err)
	}
	defer rows.Close()

	var out []Enrichment
	for rows.Next() {
		var e Enrichment
		var query sql.NullString
		var typ string
		if err := rows.Scan(&e.ID, &query, &typ, &e.Content, &e.DocumentID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning enrichment: %w", err)
		}
		e.QueryText = query.String
		e.Type = EnrichmentType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Text, &c.VectorRef, &c.CreatedAt,
			&c.Filename, &c.FilePath); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
