package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, filename, file_type, path, size, status, total_chunks, error_message,
	uploaded_at, updated_at, indexed_at`

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			path = EXCLUDED.path,
			size = EXCLUDED.size,
			status = EXCLUDED.status,
			total_chunks = EXCLUDED.total_chunks,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at,
			indexed_at = EXCLUDED.indexed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Filename,
		string(doc.FileType),
		doc.Path,
		doc.Size,
		string(doc.Status),
		doc.TotalChunks,
		doc.ErrorMessage,
		doc.UploadedAt,
		doc.UpdatedAt,
		NullTime(doc.IndexedAt),
	)
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetByFilename retrieves the most recent document uploaded under filename
func (s *DocumentStore) GetByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE filename = $1 ORDER BY uploaded_at DESC LIMIT 1`
	return scanDocument(s.db.QueryRowContext(ctx, query, filename))
}

// List retrieves documents newest first with pagination
func (s *DocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY uploaded_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete deletes a document; its chunk rows cascade
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// CountByStatus returns document count for a status
func (s *DocumentStore) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE status = $1`, string(status)).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var indexedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.FileType,
		&doc.Path,
		&doc.Size,
		&doc.Status,
		&doc.TotalChunks,
		&doc.ErrorMessage,
		&doc.UploadedAt,
		&doc.UpdatedAt,
		&indexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.IndexedAt = TimePtr(indexedAt)
	return &doc, nil
}
