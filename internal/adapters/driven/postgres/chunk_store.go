package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Vectors live in the vector index, not here.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

const chunkColumns = `document_id, chunk_id, granularity, position, text, filename, file_type,
	page_number, sheet_name, section_title, paragraph_index, token_count, start_token, end_token`

// SaveBatch saves all chunks of a document in a transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chunks (` + chunkColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (document_id, chunk_id, granularity) DO UPDATE SET
				position = EXCLUDED.position,
				text = EXCLUDED.text,
				page_number = EXCLUDED.page_number,
				sheet_name = EXCLUDED.sheet_name,
				section_title = EXCLUDED.section_title,
				paragraph_index = EXCLUDED.paragraph_index,
				token_count = EXCLUDED.token_count,
				start_token = EXCLUDED.start_token,
				end_token = EXCLUDED.end_token
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chunks {
			_, err = stmt.ExecContext(ctx,
				c.DocumentID,
				c.ChunkID,
				string(c.Granularity),
				c.Position,
				c.Text,
				c.Filename,
				string(c.FileType),
				c.PageNumber,
				c.SheetName,
				c.SectionTitle,
				NullInt(c.ParagraphIndex),
				c.TokenCount,
				NullInt(c.StartToken),
				NullInt(c.EndToken),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByDocument retrieves all chunks for a document ordered by position
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE document_id = $1 ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var paragraphIndex, startToken, endToken sql.NullInt64

		err := rows.Scan(
			&c.DocumentID,
			&c.ChunkID,
			&c.Granularity,
			&c.Position,
			&c.Text,
			&c.Filename,
			&c.FileType,
			&c.PageNumber,
			&c.SheetName,
			&c.SectionTitle,
			&paragraphIndex,
			&c.TokenCount,
			&startToken,
			&endToken,
		)
		if err != nil {
			return nil, err
		}
		c.ParagraphIndex = IntPtr(paragraphIndex)
		c.StartToken = IntPtr(startToken)
		c.EndToken = IntPtr(endToken)
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// DeleteByDocument deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return err
}

// CountByDocument returns the number of stored chunks for a document
func (s *ChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&count)
	return count, err
}
