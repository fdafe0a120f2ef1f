// Package db opens the relational store, applies the schema and seeds
// default data.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend behind a *sql.DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS users (
    id {{id}},
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    hashed_password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'viewer',
    permissions TEXT NOT NULL DEFAULT '[]',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS menu_items (
    id {{id}},
    title TEXT NOT NULL DEFAULT '{}',
    url TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0,
    parent_id BIGINT REFERENCES menu_items(id) ON DELETE CASCADE,
    permissions TEXT NOT NULL DEFAULT '["read"]',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS menu_items_parent_idx ON menu_items (parent_id);

CREATE TABLE IF NOT EXISTS document_categories (
    id {{id}},
    name TEXT NOT NULL DEFAULT '{}',
    description TEXT NOT NULL DEFAULT '{}',
    document_type TEXT NOT NULL DEFAULT '',
    parent_id BIGINT REFERENCES document_categories(id) ON DELETE CASCADE,
    sort_order INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at {{ts}} NOT NULL
);
CREATE INDEX IF NOT EXISTS document_categories_parent_idx ON document_categories (parent_id);

CREATE TABLE IF NOT EXISTS documents (
    id {{id}},
    title TEXT NOT NULL DEFAULT '{}',
    description TEXT NOT NULL DEFAULT '{}',
    content TEXT,
    document_type TEXT NOT NULL,
    category TEXT,
    document_number TEXT,
    author TEXT,
    issue_date {{ts}},
    effective_date {{ts}},
    file_path TEXT,
    file_size BIGINT,
    file_type TEXT,
    download_count BIGINT NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    document_metadata TEXT NOT NULL DEFAULT '{}',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL,
    created_by BIGINT REFERENCES users(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS documents_category_idx ON documents (category);

CREATE TABLE IF NOT EXISTS download_logs (
    id {{id}},
    document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    downloaded_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS rate_limits (
    bucket TEXT PRIMARY KEY,
    window_start BIGINT NOT NULL,
    hits INTEGER NOT NULL
);
`

// Schema returns the DDL for dialect.
func Schema(d Dialect) string {
	id, ts := "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	if d == SQLite {
		id, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"
	}
	return strings.NewReplacer("{{id}}", id, "{{ts}}", ts).Replace(schemaTemplate)
}

// ParseURL maps a database URL onto a driver name and its DSN.
// postgres:// and postgresql:// URLs and bare key=value DSNs go to lib/pq;
// sqlite:// URLs, file: URIs and :memory: go to SQLite with foreign keys on.
func ParseURL(url string) (Dialect, string) {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		return SQLite, sqliteDSN(strings.TrimPrefix(url, "sqlite:///"))
	case strings.HasPrefix(url, "sqlite://"):
		return SQLite, sqliteDSN(strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "file:"), strings.HasPrefix(url, ":memory:"):
		return SQLite, sqliteDSN(url)
	default:
		return Postgres, url
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open connects to the database named by url, verifies connectivity and
// applies the schema.
func Open(ctx context.Context, url string) (*sql.DB, Dialect, error) {
	dialect, dsn := ParseURL(url)

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	if _, err := db.ExecContext(ctx, Schema(dialect)); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("create schema: %w", err)
	}

	return db, dialect, nil
}
