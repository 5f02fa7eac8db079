package edition_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xraph/edition"
	"github.com/xraph/edition/store"
	"github.com/xraph/edition/store/sqlite"
)

// TestDocumentationExamples runs the package quick start against SQLite.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		s, err := sqlite.Open(ctx, "file:"+filepath.Join(t.TempDir(), "edition.db"))
		if err != nil {
			t.Fatal(err)
		}

		e, err := edition.New(s,
			edition.WithLogger(slog.Default()),
			edition.WithActor(actor),
			edition.WithLaneCount(10),
		)
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		for range 4 {
			if _, err := store.Fund(ctx, s, actor, edition.Of(edition.Native, 10_000_000)); err != nil {
				t.Fatal(err)
			}
		}

		d, err := e.Deploy(ctx, "Genesis", 100)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.PublishPaymentTable(ctx, d.Payment, []edition.PaymentEntry{
			{Recipient: artist, PerUnit: edition.Of(edition.Native, 5_000_000)},
		}); err != nil {
			t.Fatal(err)
		}

		minted, err := e.Mint(ctx, edition.Native,
			edition.Payload{"name": "Genesis #1"},
			edition.Payload{"name": "Genesis #2"},
		)
		if err != nil {
			t.Fatal(err)
		}
		ids := minted.IDs()
		if len(ids) != 2 || ids[1] != ids[0]+1 {
			t.Fatalf("IDs = %v, want two contiguous", ids)
		}

		rec, err := e.Mutate(ctx, ids[0], edition.Payload{"name": "Genesis #1 (signed)"}, d.AppMutation)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Version != 2 || rec.Payload["name"] != "Genesis #1 (signed)" {
			t.Errorf("record = %+v", rec)
		}
	})

	t.Run("ReconnectExample", func(t *testing.T) {
		f := newFixture(t, 4, 40)

		other, err := edition.New(f.store,
			edition.WithActor(actor),
			edition.WithLaneCount(4),
			edition.WithInstance(f.dep.Identity),
		)
		if err != nil {
			t.Fatal(err)
		}
		caps, err := other.Capabilities(f.ctx)
		if err != nil {
			t.Fatal(err)
		}
		if caps.Ownership == nil || caps.AppMutation == nil {
			t.Fatalf("handles not recovered: %+v", caps)
		}
	})
}
