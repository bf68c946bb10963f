package postgres

import "testing"

// These exercise what can be verified without a live PostgreSQL
// instance; the CRUD paths themselves are covered by the wallet
// store's integration test environment, not this package's unit tests.

func TestEmbeddedSchemaIsNonEmpty(t *testing.T) {
	if len(schemaSQL) == 0 {
		t.Fatal("embedded schema.sql is empty")
	}
}

func TestEmbeddedSchemaDeclaresCoreTables(t *testing.T) {
	for _, table := range []string{"enotes", "transactions", "block_hashes", "sync_state"} {
		if !containsTable(schemaSQL, table) {
			t.Errorf("schema.sql missing expected table %q", table)
		}
	}
}

func containsTable(schema, table string) bool {
	needle := "CREATE TABLE IF NOT EXISTS " + table
	return len(schema) >= len(needle) && indexOf(schema, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
