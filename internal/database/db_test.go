package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatements(t *testing.T) {
	script := `
-- header comment
CREATE TABLE a (id INT);

  -- indented comment
INSERT INTO a VALUES (1);
;
`
	got := Statements(script)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "INSERT INTO a VALUES (1)"}, got)
}

func TestEmbeddedSchemaCoversAllTables(t *testing.T) {
	stmts := Statements(schemaSQL)
	joined := strings.Join(stmts, "\n")
	for _, table := range []string{"empresas", "roles", "usuarios", "nfc_tags", "nfc_taps"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table)
	}
	for _, s := range stmts {
		assert.NotContains(t, s, "--", "comments must be stripped")
	}
}

func TestEmbeddedSchemaTagIDsAreCaseSensitive(t *testing.T) {
	checked := 0
	for _, s := range Statements(schemaSQL) {
		if !strings.Contains(s, "nfc_tags (") && !strings.Contains(s, "nfc_taps (") {
			continue
		}
		var col string
		for _, line := range strings.Split(s, "\n") {
			if f := strings.Fields(line); len(f) > 0 && f[0] == "tag_id" {
				col = line
			}
		}
		assert.Contains(t, col, "COLLATE utf8mb4_bin", s)
		checked++
	}
	assert.Equal(t, 2, checked)
}
