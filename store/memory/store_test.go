package memory_test

import (
	"context"
	"testing"

	"github.com/xraph/edition"
	"github.com/xraph/edition/store"
	"github.com/xraph/edition/store/memory"
	"github.com/xraph/edition/store/storetest"
	"github.com/xraph/edition/types"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(_ *testing.T) store.Store { return memory.New() })
}

func TestClosedStore(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	if _, err := store.Fund(ctx, s, "w", types.Of(types.Native, 1)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d", s.Len())
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); err != edition.ErrStoreClosed {
		t.Errorf("Ping after close = %v", err)
	}
	if _, err := store.Fund(ctx, s, "w", types.Of(types.Native, 1)); err != edition.ErrStoreClosed {
		t.Errorf("Submit after close = %v", err)
	}
}
