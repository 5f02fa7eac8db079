package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/edition/store"
	"github.com/xraph/edition/store/postgres"
	"github.com/xraph/edition/store/storetest"
)

// The suite needs a disposable database; tables are truncated per test.
func newStore(t *testing.T) store.Store {
	t.Helper()
	dsn := os.Getenv("EDITION_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EDITION_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := pgdriver.Unwrap(s.DB()).NewRaw(
		`TRUNCATE edition_object_units, edition_objects, edition_commits`).Exec(ctx); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, newStore)
}
