package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hrygo/freeslot/internal/profile"
	"github.com/hrygo/freeslot/store"
	"github.com/hrygo/freeslot/store/db"
)

// NewTestingStore opens a migrated SQLite store in a temporary directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return newTestingStore(ctx, t, "dev")
}

func newTestingStore(ctx context.Context, t *testing.T, mode string) *store.Store {
	t.Helper()
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:     mode,
		Driver:   "sqlite",
		Data:     dir,
		DSN:      filepath.Join(dir, fmt.Sprintf("freeslot_%s.db", mode)),
		Timezone: "UTC",
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}
	ts := store.New(driver, p)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}
