package repository

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTestDB opens a private in-memory SQLite database with the same
// tables and column names as the MySQL schema. A single connection keeps
// every statement on the same in-memory database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile("testdata/schema_sqlite.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func seedTenant(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO empresas (nombre) VALUES (?)", name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

func seedTag(t *testing.T, db *sql.DB, tagID, url string, tenantID uint64) {
	t.Helper()
	_, err := db.Exec("INSERT INTO nfc_tags (tag_id, data, public_url, empresa_id) VALUES (?, ?, ?, ?)",
		tagID, "label "+tagID, url, tenantID)
	require.NoError(t, err)
}
