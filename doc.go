// Package edition issues numbered editions of a digital collectible from a
// shared object store under heavy concurrency, without a central lock.
//
// Edition is designed as a library, not a service. An Engine acts for one
// actor address against any store that can commit a set of object writes
// atomically and reject a write whose inputs were already consumed. It
// provides:
//
//   - Sharded ID issuance: the supply is split into lanes at deploy, and
//     every batch lands on one lane chosen from fresh single-use inputs
//   - Atomic settlement: lane advance, metadata records, per-edition
//     markers and payment transfers commit as one write set
//   - Versioned metadata records, mutable under a capability
//   - Typed capability handles for every privileged operation
//   - Ordered teardown: lanes first, payment table last
//   - Memory, SQLite, PostgreSQL and MongoDB stores
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/edition"
//	    "github.com/xraph/edition/store/sqlite"
//	)
//
//	s, err := sqlite.Open(ctx, "file:edition.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	e, err := edition.New(s, edition.WithActor(actor))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	// Fund the actor, for example with store.Fund in tests.
//	d, err := e.Deploy(ctx, "Genesis", 10000)
//	_, err = e.PublishPaymentTable(ctx, d.Payment, []edition.PaymentEntry{
//	    {Recipient: artist, PerUnit: edition.Of(edition.Native, 5_000_000)},
//	})
//
//	minted, err := e.Mint(ctx, edition.Native, edition.Payload{"name": "Genesis #1"})
//
// # Lanes
//
// With 100 lanes and a supply of 10000, each lane owns 100 consecutive IDs.
// A batch is taken from a single lane, so its IDs are always contiguous.
// Two callers only contend when they pick the same lane; the loser gets
// ErrConflict and retries with new inputs. The engine never retries by
// itself; see package retry for a bounded caller-side policy.
//
// # Reconnecting
//
// An instance is fully described by its identity string, returned by
// Deploy. Any process can rebuild an engine with WithInstance or Attach
// and recover its handles with Capabilities.
package edition
