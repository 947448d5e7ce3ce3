package graph

// SQLite schema DDL constants

const schemaTypes = `
CREATE TABLE IF NOT EXISTS types (
    type_key TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    route TEXT NOT NULL DEFAULT ''
)`

const schemaNodes = `
CREATE TABLE IF NOT EXISTS nodes (
    id TEXT PRIMARY KEY,
    type_key TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    date DATETIME,
    slug TEXT NOT NULL DEFAULT '',
    fields TEXT,
    refs TEXT,
    created_at DATETIME NOT NULL,
    modified_at DATETIME NOT NULL
)`

// Index definitions
const indexNodesType = `CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type_key)`
const indexNodesSlug = `CREATE INDEX IF NOT EXISTS idx_nodes_slug ON nodes(slug)`

// SQLite pragmas for optimal performance
const pragmaWAL = `PRAGMA journal_mode=WAL`
const pragmaFK = `PRAGMA foreign_keys=ON`
const pragmaBusyTimeout = `PRAGMA busy_timeout=5000`
const pragmaSynchronous = `PRAGMA synchronous=NORMAL`

// allSchemaStatements returns all schema DDL in order
func allSchemaStatements() []string {
	return []string{
		schemaTypes,
		schemaNodes,
		indexNodesType,
		indexNodesSlug,
	}
}

// allPragmas returns all pragma statements
func allPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaFK,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}
