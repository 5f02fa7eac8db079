// Package store defines the object store the engine runs against.
//
// A store keeps unspent objects and applies write sets atomically. Its one
// concurrency guarantee is the one the engine depends on: an object is
// consumed by at most one committed write set. Everything else (lane claims,
// payment-table replacement, capability checks) is built on top of that.
package store

import (
	"context"

	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// Store is the unified storage interface for engine objects.
type Store interface {
	// Submit validates and commits ws. Every input and reference must be
	// unspent; inputs are consumed and outputs created in one atomic step.
	// A spent or unknown input or reference, or a commit ID already
	// recorded, fails with edition.ErrConflict and changes nothing.
	//
	// How far a reference is protected depends on the backend. memory
	// and sqlite serialize commits, and postgres holds a share lock on
	// every referenced row until commit. mongo only checks that the
	// reference exists in its transaction snapshot, so a concurrent
	// commit may spend it before this one lands. On mongo a mint can
	// therefore settle against a payment table replaced moments before.
	Submit(ctx context.Context, ws *object.WriteSet) (object.CommitID, error)

	// Get returns an unspent object, or edition.ErrObjectNotFound.
	Get(ctx context.Context, ref object.Ref) (*object.Object, error)

	// QueryByCapability returns the unspent objects holding unit, oldest first.
	QueryByCapability(ctx context.Context, unit types.Unit) ([]*object.Object, error)

	// QueryByAddress returns the unspent objects at addr, oldest first.
	QueryByAddress(ctx context.Context, addr types.Address) ([]*object.Object, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
