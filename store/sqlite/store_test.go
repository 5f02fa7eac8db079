package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xraph/edition/store"
	"github.com/xraph/edition/store/sqlite"
	"github.com/xraph/edition/store/storetest"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "edition.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newStore(t)
	defer s.Close()
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
