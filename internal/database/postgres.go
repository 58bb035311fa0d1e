package database

import (
	"context"
	"fmt"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents the fragment store backed by PostgreSQL with pgvector.
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection pool.
func NewDB(connStr string) (*DB, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the fragments table and its indices.
func (db *DB) Initialize(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS fragments (
            id SERIAL PRIMARY KEY,
            doc_id TEXT NOT NULL,
            content TEXT NOT NULL,
            page INTEGER NOT NULL DEFAULT 0,
            embedding vector(768) NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create fragments table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS fragments_embedding_idx ON fragments
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS fragments_doc_id_idx ON fragments (doc_id)
	`)
	if err != nil {
		return fmt.Errorf("failed to create doc_id index: %w", err)
	}

	return nil
}

// StoreChunk stores one embedded chunk.
func (db *DB) StoreChunk(ctx context.Context, chunk *models.Chunk) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO fragments (doc_id, content, page, embedding)
        VALUES ($1, $2, $3, $4)
    `,
		chunk.DocumentID,
		chunk.Content,
		chunk.Page,
		chunk.Embedding)

	return err
}

// SearchSimilar finds fragments closest to the query embedding by cosine
// distance. A non-empty docScope restricts the search to one document.
// Scores are cosine similarity mapped into [0,1].
func (db *DB) SearchSimilar(ctx context.Context, embedding []float64, docScope string, limit int) ([]models.Fragment, error) {
	query := `
		SELECT id, doc_id, content, page, 1 - (embedding <=> $1) AS score
		FROM fragments
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	args := []any{embedding, limit}
	if docScope != "" {
		query = `
			SELECT id, doc_id, content, page, 1 - (embedding <=> $1) AS score
			FROM fragments
			WHERE doc_id = $2
			ORDER BY embedding <=> $1
			LIMIT $3
		`
		args = []any{embedding, docScope, limit}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar fragments: %w", err)
	}
	defer rows.Close()

	var fragments []models.Fragment
	for rows.Next() {
		var (
			id    int
			frag  models.Fragment
			score float64
		)
		if err := rows.Scan(&id, &frag.DocumentID, &frag.Text, &frag.Page, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		frag.ID = fmt.Sprintf("chunk-%d", id)
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		frag.Score = score
		fragments = append(fragments, frag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return fragments, nil
}

// DeleteDocument removes every fragment belonging to a document and
// returns the number of rows deleted.
func (db *DB) DeleteDocument(ctx context.Context, docID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM fragments WHERE doc_id = $1`, docID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document %s: %w", docID, err)
	}
	return tag.RowsAffected(), nil
}

// ListDocuments returns the distinct document identifiers in the store.
func (db *DB) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT doc_id FROM fragments ORDER BY doc_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan doc_id: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Close closes the database connection.
func (db *DB) Close() {
	db.Pool.Close()
}
