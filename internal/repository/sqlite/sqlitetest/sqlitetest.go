// Package sqlitetest opens migrated throwaway databases for tests.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	dbfs "github.com/skillswap/swapd/db"
	"github.com/skillswap/swapd/internal/db"
	"github.com/skillswap/swapd/internal/repository/sqlite"
)

// New returns a repository over a fresh, fully migrated database file in a
// test temp dir. The catalog seed is not applied. The database is closed by
// t.Cleanup.
func New(t testing.TB) *sqlite.SQLiteRepo {
	t.Helper()
	ctx := context.Background()

	d, err := db.New(ctx, filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := db.Migrate(ctx, d, dbfs.Migrations, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return sqlite.New(d, nil)
}
