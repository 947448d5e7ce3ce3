package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path, applying schema
// and pragmas.
func NewSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("applying pragma: %w", err)
		}
	}

	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// AddType registers a node type, overwriting any previous registration.
func (s *SQLiteStore) AddType(ctx context.Context, typeKey string, meta TypeMeta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO types (type_key, name, route) VALUES (?, ?, ?)
		ON CONFLICT(type_key) DO UPDATE SET name = excluded.name, route = excluded.route`,
		typeKey, meta.Name, meta.Route)
	if err != nil {
		return fmt.Errorf("registering type %s: %w", typeKey, err)
	}
	return nil
}

// AddNode stores a node, upserting by id so re-runs against the same
// remote data converge on the same rows.
func (s *SQLiteStore) AddNode(ctx context.Context, typeKey string, node *Node) error {
	fieldsJSON, err := json.Marshal(node.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}
	refsJSON, err := json.Marshal(node.Refs)
	if err != nil {
		return fmt.Errorf("marshaling refs: %w", err)
	}

	var date any
	if node.Date != nil {
		date = node.Date.UTC().Format(time.RFC3339)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, type_key, title, date, slug, fields, refs, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type_key = excluded.type_key,
			title = excluded.title,
			date = excluded.date,
			slug = excluded.slug,
			fields = excluded.fields,
			refs = excluded.refs,
			modified_at = excluded.modified_at`,
		node.ID, typeKey, node.Title, date, node.Slug, string(fieldsJSON), string(refsJSON), now, now)
	if err != nil {
		return fmt.Errorf("storing node %s: %w", node.ID, err)
	}
	return nil
}

// GetNode retrieves a node by id.
func (s *SQLiteStore) GetNode(ctx context.Context, id string) (*Node, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type_key, title, date, slug, fields, refs FROM nodes WHERE id = ?`, id)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading node %s: %w", id, err)
	}
	return node, nil
}

// ListNodes returns all nodes of the given type, or all nodes when
// typeKey is empty, ordered by id.
func (s *SQLiteStore) ListNodes(ctx context.Context, typeKey string) ([]*Node, error) {
	query := `SELECT id, type_key, title, date, slug, fields, refs FROM nodes ORDER BY id`
	args := []any{}
	if typeKey != "" {
		query = `SELECT id, type_key, title, date, slug, fields, refs FROM nodes WHERE type_key = ? ORDER BY id`
		args = append(args, typeKey)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// ListTypes returns all registered types ordered by key.
func (s *SQLiteStore) ListTypes(ctx context.Context) ([]Type, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type_key, name, route FROM types ORDER BY type_key`)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}
	defer rows.Close()

	var types []Type
	for rows.Next() {
		var t Type
		if err := rows.Scan(&t.Key, &t.Name, &t.Route); err != nil {
			return nil, fmt.Errorf("scanning type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// MakeUID derives a stable node id from a raw identifier.
func (s *SQLiteStore) MakeUID(raw string) string {
	return MakeUID(raw)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(sc scanner) (*Node, error) {
	var node Node
	var date sql.NullString
	var fieldsJSON, refsJSON sql.NullString

	if err := sc.Scan(&node.ID, &node.Type, &node.Title, &date, &node.Slug, &fieldsJSON, &refsJSON); err != nil {
		return nil, err
	}

	if date.Valid && date.String != "" {
		parsed, err := time.Parse(time.RFC3339, date.String)
		if err != nil {
			return nil, fmt.Errorf("parsing node date: %w", err)
		}
		node.Date = &parsed
	}
	if fieldsJSON.Valid && fieldsJSON.String != "" && fieldsJSON.String != "null" {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &node.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling fields: %w", err)
		}
	}
	if refsJSON.Valid && refsJSON.String != "" && refsJSON.String != "null" {
		if err := json.Unmarshal([]byte(refsJSON.String), &node.Refs); err != nil {
			return nil, fmt.Errorf("unmarshaling refs: %w", err)
		}
	}
	return &node, nil
}
