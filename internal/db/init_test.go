package db_test

import (
	"context"
	"strings"
	"testing"

	"github.com/tmsiti/backend/internal/db"
)

func TestOpen_ErrorPaths(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantSubstr string
	}{
		{"invalid DSN", "some=random", "ping postgres"},
		{"unreachable postgres", "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", "ping postgres"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := db.Open(context.Background(), tc.url)
			if err == nil {
				t.Fatalf("Open(%q) did not return error", tc.url)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("Open(%q) error = %q; want substring %q", tc.url, err.Error(), tc.wantSubstr)
			}
		})
	}
}

func TestOpen_SQLiteMemory(t *testing.T) {
	conn, dialect, err := db.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer conn.Close()

	if dialect != db.SQLite {
		t.Errorf("dialect = %q; want sqlite", dialect)
	}
	for _, table := range []string{"users", "menu_items", "document_categories", "documents", "download_logs", "rate_limits"} {
		var n int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	// schema is idempotent
	if _, err := conn.Exec(db.Schema(db.SQLite)); err != nil {
		t.Errorf("re-applying schema: %v", err)
	}
}

func TestParseURL(t *testing.T) {
	cases := []struct {
		url     string
		dialect db.Dialect
		prefix  string
	}{
		{"postgres://u:p@h/db", db.Postgres, "postgres://u:p@h/db"},
		{"host=localhost dbname=x", db.Postgres, "host=localhost dbname=x"},
		{"sqlite:///./tmsiti.db", db.SQLite, "./tmsiti.db?"},
		{"sqlite://tmsiti.db", db.SQLite, "tmsiti.db?"},
		{"file:test.db?cache=shared", db.SQLite, "file:test.db?cache=shared&"},
		{":memory:", db.SQLite, ":memory:?"},
	}
	for _, tc := range cases {
		d, dsn := db.ParseURL(tc.url)
		if d != tc.dialect {
			t.Errorf("ParseURL(%q) dialect = %q; want %q", tc.url, d, tc.dialect)
		}
		if !strings.HasPrefix(dsn, tc.prefix) {
			t.Errorf("ParseURL(%q) dsn = %q; want prefix %q", tc.url, dsn, tc.prefix)
		}
	}
}

func TestSchema_Dialects(t *testing.T) {
	pg := db.Schema(db.Postgres)
	if !strings.Contains(pg, "BIGSERIAL") || strings.Contains(pg, "AUTOINCREMENT") {
		t.Error("postgres schema uses wrong id type")
	}
	lite := db.Schema(db.SQLite)
	if !strings.Contains(lite, "AUTOINCREMENT") || strings.Contains(lite, "{{") {
		t.Error("sqlite schema not rendered")
	}
}
