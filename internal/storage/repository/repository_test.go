package repository

import (
	"path/filepath"
	"testing"

	"github.com/courtside/tracker/internal/storage"
)

// openTestDB opens a migrated throwaway database under t.TempDir.
func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	cfg := storage.DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	cfg.AutoMigrate = true
	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})
	return db
}
