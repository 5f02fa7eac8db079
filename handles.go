package edition

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// handle is the common part of every capability handle. Its fields are
// unexported so that handles can only be issued by the engine.
type handle struct {
	kind     capability.Kind
	identity string
	unit     types.Unit
	holder   types.Address
}

// Kind returns the capability kind.
func (h handle) Kind() capability.Kind { return h.kind }

// Unit returns the token unit backing the handle.
func (h handle) Unit() types.Unit { return h.unit }

// Holder returns the address the token was delivered to.
func (h handle) Holder() types.Address { return h.holder }

// Instance returns the identity of the issuing instance.
func (h handle) Instance() string { return h.identity }

// IsZero reports whether the handle was never issued.
func (h handle) IsZero() bool { return h.unit == "" }

func (h handle) String() string {
	if h.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s(%s)", h.kind, h.unit)
}

// OwnershipCap authorizes payment administration and teardown.
type OwnershipCap struct{ handle }

// AppMutationCap authorizes metadata mutation of any edition.
type AppMutationCap struct{ handle }

// PaymentCap authorizes publishing the payment table.
type PaymentCap struct{ handle }

// EditionCap is held by the owner of one edition. It authorizes mutating
// and burning that edition.
type EditionCap struct {
	handle
	edition int64
}

// Edition returns the edition ID the handle is for.
func (c EditionCap) Edition() int64 { return c.edition }

// MutationAuthority is accepted by Mutate: an AppMutationCap or the
// EditionCap of the edition being mutated.
type MutationAuthority interface {
	authority() (handle, int64)
}

func (c AppMutationCap) authority() (handle, int64) { return c.handle, -1 }
func (c EditionCap) authority() (handle, int64)     { return c.handle, c.edition }

// Holdings are the capability handles the actor currently holds.
type Holdings struct {
	Ownership   *OwnershipCap
	AppMutation *AppMutationCap
	Payment     *PaymentCap
	Editions    []EditionCap
}

func (b *binding) control(kind capability.Kind, holder types.Address) handle {
	return handle{
		kind:     kind,
		identity: b.identity(),
		unit:     b.inst.ControlUnit(kind),
		holder:   holder,
	}
}

func (b *binding) editionCap(edition int64, holder types.Address) EditionCap {
	return EditionCap{
		handle: handle{
			kind:     capability.Authenticity,
			identity: b.identity(),
			unit:     b.inst.EditionUnit(capability.Authenticity, edition),
			holder:   holder,
		},
		edition: edition,
	}
}

// verify checks that h was issued for the bound instance, of kind want, to
// the engine's actor, and that the actor still holds the token. It returns
// the actor object carrying the token, which the caller adds to its write
// set so the check is part of the commit.
func (e *Engine) verify(ctx context.Context, b *binding, h handle, want capability.Kind) (*object.Object, error) {
	if h.IsZero() || h.kind != want {
		return nil, fmt.Errorf("%w: want %s capability, got %s", ErrUnauthorized, want, h)
	}
	if h.identity != b.identity() {
		return nil, fmt.Errorf("%w: %s", ErrWrongInstance, h.identity)
	}
	if h.holder != e.actor {
		return nil, fmt.Errorf("%w: held by %s", ErrNotHolder, h.holder)
	}

	objs, err := e.store.QueryByCapability(ctx, h.unit)
	if err != nil {
		return nil, err
	}
	for _, o := range objs {
		if o.Address == e.actor {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s no longer held", ErrNotHolder, h.unit)
}

// Capabilities scans the actor's objects for tokens of the bound instance.
// It is how a reconnecting process recovers its handles.
func (e *Engine) Capabilities(ctx context.Context) (*Holdings, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}

	objs, err := e.store.QueryByAddress(ctx, e.actor)
	if err != nil {
		return nil, err
	}

	h := &Holdings{}
	seen := make(map[int64]struct{})
	for _, o := range objs {
		for _, u := range o.Assets.Units() {
			if o.Assets.Get(u) <= 0 {
				continue
			}
			switch u {
			case b.inst.ControlUnit(capability.Ownership):
				h.Ownership = &OwnershipCap{b.control(capability.Ownership, e.actor)}
				continue
			case b.inst.ControlUnit(capability.AppWallet):
				h.AppMutation = &AppMutationCap{b.control(capability.AppWallet, e.actor)}
				continue
			case b.inst.ControlUnit(capability.Payment):
				h.Payment = &PaymentCap{b.control(capability.Payment, e.actor)}
				continue
			}
			kind, edition, ok := b.inst.ParseEditionUnit(u)
			if !ok || kind != capability.Authenticity {
				continue
			}
			if _, dup := seen[edition]; dup {
				continue
			}
			seen[edition] = struct{}{}
			h.Editions = append(h.Editions, b.editionCap(edition, e.actor))
		}
	}
	slices.SortFunc(h.Editions, func(a, b EditionCap) int {
		return cmp.Compare(a.edition, b.edition)
	})

	return h, nil
}
