// Package store provides the SQLite-backed collection store.
//
// Collections hold id/document/metadata records, mirroring the memory
// interface the agents were written against. Relevance queries use keyword
// overlap scoring rather than embeddings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Record is one entry in a collection.
type Record struct {
	ID       string
	Document string
	Metadata map[string]any
}

// ScoredRecord is a query hit with its relevance score in [0,1].
type ScoredRecord struct {
	Record
	Score float64
}

// Store persists collections in a single SQLite database.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open initializes the SQLite database at the given path, creating the
// parent directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		document TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_collection ON memories(collection);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMemory upserts the given records into a collection.
func (s *Store) SaveMemory(ctx context.Context, collection string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memories (collection, id, document, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, rec.ID, rec.Document, string(meta)); err != nil {
			return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadCollection returns every record in a collection. An unknown
// collection loads as an empty slice.
func (s *Store) LoadCollection(ctx context.Context, collection string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata FROM memories WHERE collection = ? ORDER BY created_at, id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", collection, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var meta sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Document, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// QueryMemory returns up to limit records from a collection ranked by
// keyword overlap with the query. Records with no overlap are omitted.
func (s *Store) QueryMemory(ctx context.Context, collection, query string, limit int) ([]ScoredRecord, error) {
	records, err := s.LoadCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	scored := make([]ScoredRecord, 0, len(records))
	for _, rec := range records {
		score := overlapScore(terms, rec.Document)
		if score > 0 {
			scored = append(scored, ScoredRecord{Record: rec, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// DeleteCollection removes every record in a collection.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	return nil
}

// CountCollection returns the number of records in a collection.
func (s *Store) CountCollection(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return n, nil
}

// tokenize lowercases and splits text into search terms, dropping words too
// short to be discriminating.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// overlapScore is the fraction of query terms present in the document.
func overlapScore(terms []string, document string) float64 {
	doc := strings.ToLower(document)
	matched := 0
	for _, t := range terms {
		if strings.Contains(doc, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
