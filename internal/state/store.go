// Package state persists the object registry between builds. Entities are
// keyed by their defining document so an incremental rebuild can purge and
// re-register exactly the documents that changed.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
)

type Store struct {
	conn *sql.DB
}

// DocInfo is the stored record of one source document.
type DocInfo struct {
	Hash  string
	Order int
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening environment database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_entity_id START 1;`,

		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			read_order INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS entities (
			id INTEGER PRIMARY KEY,
			document TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			key TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_document ON entities (document)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_key ON entities (type, key)`,

		`CREATE TABLE IF NOT EXISTS pages (
			document TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := s.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// Documents returns the stored document records.
func (s *Store) Documents() (map[string]DocInfo, error) {
	rows, err := s.conn.Query(`SELECT path, content_hash, read_order FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]DocInfo)
	for rows.Next() {
		var path string
		var info DocInfo
		if err := rows.Scan(&path, &info.Hash, &info.Order); err != nil {
			return nil, err
		}
		docs[path] = info
	}
	return docs, rows.Err()
}

// Load rebuilds a registry from the stored environment. Documents are
// ranked by their stored read order and entities registered in sequence
// order, so resolution winners come out exactly as in the build that
// persisted them.
func (s *Store) Load() (*domain.Registry, error) {
	reg := domain.NewRegistry()

	docs, err := s.Documents()
	if err != nil {
		return nil, err
	}
	for path, info := range docs {
		reg.SetDocumentRank(path, info.Order)
	}

	rows, err := s.conn.Query(`SELECT data FROM entities ORDER BY document, seq`)
	if err != nil {
		return nil, fmt.Errorf("reading entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e domain.Entity
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decoding stored entity: %w", err)
		}
		reg.Register(&e)
	}
	return reg, rows.Err()
}

// ReplaceDocument stores a document's hash, read order, entities and
// serialized page model, replacing whatever the document contributed
// before. Storing a document that was never seen is the same as storing it
// fresh.
func (s *Store) ReplaceDocument(path, hash string, order int, entities []*domain.Entity, pageJSON string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entities WHERE document = ?`, path); err != nil {
		return fmt.Errorf("purging entities of %s: %w", path, err)
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("purging document %s: %w", path, err)
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE document = ?`, path); err != nil {
		return fmt.Errorf("purging page of %s: %w", path, err)
	}

	if _, err := tx.Exec(
		`INSERT INTO documents (path, content_hash, read_order) VALUES (?, ?, ?)`,
		path, hash, order,
	); err != nil {
		return fmt.Errorf("inserting document %s: %w", path, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO pages (document, data) VALUES (?, ?)`,
		path, pageJSON,
	); err != nil {
		return fmt.Errorf("inserting page of %s: %w", path, err)
	}

	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding entity %s: %w", e.Key, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO entities (id, document, seq, type, key, data)
			 VALUES (nextval('seq_entity_id'), ?, ?, ?, ?, ?)`,
			path, e.Seq, e.Type.Role(), e.Key, string(data),
		); err != nil {
			return fmt.Errorf("inserting entity %s: %w", e.Key, err)
		}
	}

	return tx.Commit()
}

// SetDocumentOrder updates the stored read order of an unchanged document.
func (s *Store) SetDocumentOrder(path string, order int) error {
	_, err := s.conn.Exec(`UPDATE documents SET read_order = ? WHERE path = ?`, order, path)
	return err
}

// PurgeDocument drops a document, its entities and its page. Purging an
// unknown document is a no-op.
func (s *Store) PurgeDocument(path string) error {
	if _, err := s.conn.Exec(`DELETE FROM entities WHERE document = ?`, path); err != nil {
		return fmt.Errorf("purging entities of %s: %w", path, err)
	}
	if _, err := s.conn.Exec(`DELETE FROM pages WHERE document = ?`, path); err != nil {
		return fmt.Errorf("purging page of %s: %w", path, err)
	}
	if _, err := s.conn.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("purging document %s: %w", path, err)
	}
	return nil
}

// Pages returns the serialized page models keyed by document.
func (s *Store) Pages() (map[string]string, error) {
	rows, err := s.conn.Query(`SELECT document, data FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("reading pages: %w", err)
	}
	defer rows.Close()

	pages := make(map[string]string)
	for rows.Next() {
		var doc, data string
		if err := rows.Scan(&doc, &data); err != nil {
			return nil, err
		}
		pages[doc] = data
	}
	return pages, rows.Err()
}
