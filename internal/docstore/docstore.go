// Package docstore provides a small document database on top of Postgres
// JSONB: point reads and writes addressed by (collection, partition key, id),
// conditional replaces guarded by an etag, and partition-scoped queries.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound reports that the addressed document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrConflict reports an id collision on create or an etag mismatch on replace.
	ErrConflict = errors.New("docstore: write conflict")
)

// Document is a stored item together with its addressing and version metadata.
type Document struct {
	ID           string
	PartitionKey string
	ETag         int64
	Body         json.RawMessage
}

// Store gives access to named collections within one documents table.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Collection scopes store operations to one logical collection.
func (s *Store) Collection(name string) *Collection {
	return &Collection{pool: s.pool, name: name}
}

// Collection is a named set of documents sharing a partitioning scheme.
type Collection struct {
	pool *pgxpool.Pool
	name string
}

// Read returns the document at (id, partitionKey).
func (c *Collection) Read(ctx context.Context, id, partitionKey string) (Document, error) {
	doc := Document{ID: id, PartitionKey: partitionKey}
	err := c.pool.QueryRow(ctx,
		`SELECT etag, body FROM documents WHERE collection = $1 AND partition_key = $2 AND id = $3`,
		c.name, partitionKey, id,
	).Scan(&doc.ETag, &doc.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("read %s/%s: %w", c.name, id, err)
	}
	return doc, nil
}

// Create inserts a new document. An existing (id, partitionKey) yields ErrConflict.
func (c *Collection) Create(ctx context.Context, id, partitionKey string, body []byte) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO documents (collection, partition_key, id, etag, body) VALUES ($1, $2, $3, 1, $4)`,
		c.name, partitionKey, id, body,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Replace overwrites the document only if its current etag matches.
// A stale etag yields ErrConflict, a missing document ErrNotFound.
func (c *Collection) Replace(ctx context.Context, id, partitionKey string, etag int64, body []byte) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE documents SET body = $5, etag = etag + 1
		 WHERE collection = $1 AND partition_key = $2 AND id = $3 AND etag = $4`,
		c.name, partitionKey, id, etag, body,
	)
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", c.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := c.Read(ctx, id, partitionKey); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Delete removes the document at (id, partitionKey).
func (c *Collection) Delete(ctx context.Context, id, partitionKey string) error {
	tag, err := c.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND partition_key = $2 AND id = $3`,
		c.name, partitionKey, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Find locates a document by id across all partitions.
func (c *Collection) Find(ctx context.Context, id string) (Document, error) {
	doc := Document{ID: id}
	err := c.pool.QueryRow(ctx,
		`SELECT partition_key, etag, body FROM documents WHERE collection = $1 AND id = $2`,
		c.name, id,
	).Scan(&doc.PartitionKey, &doc.ETag, &doc.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("find %s/%s: %w", c.name, id, err)
	}
	return doc, nil
}

// QueryField returns all documents whose top-level field equals value,
// across all partitions, in creation order.
func (c *Collection) QueryField(ctx context.Context, field, value string) ([]Document, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, partition_key, etag, body FROM documents
		 WHERE collection = $1 AND body->>$2 = $3 ORDER BY created_at`,
		c.name, field, value,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", c.name, field, err)
	}
	return collectDocuments(rows)
}

// ReadPartition returns every document within one partition, in creation order.
func (c *Collection) ReadPartition(ctx context.Context, partitionKey string) ([]Document, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, partition_key, etag, body FROM documents
		 WHERE collection = $1 AND partition_key = $2 ORDER BY created_at`,
		c.name, partitionKey,
	)
	if err != nil {
		return nil, fmt.Errorf("read partition %s/%s: %w", c.name, partitionKey, err)
	}
	return collectDocuments(rows)
}

func collectDocuments(rows pgx.Rows) ([]Document, error) {
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.PartitionKey, &doc.ETag, &doc.Body); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
