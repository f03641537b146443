// Package testdb builds a real temp-file sqlite database for tests that
// need genuine cross-connection locking semantics (lease contention,
// unit-of-work commit/rollback) that an in-memory database can't exercise
// faithfully under WAL mode.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/budgetanalyzer/currency-service/internal/db"
	"github.com/stretchr/testify/require"
)

// Open creates a fresh schema-applied database in a per-test temp
// directory, closed automatically via t.Cleanup.
func Open(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fxrates.db")
	database, err := db.Open(path)
	require.NoError(t, err)

	require.NoError(t, database.ApplySchema(context.Background()))

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}
