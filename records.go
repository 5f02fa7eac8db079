package edition

import (
	"context"
	"fmt"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/id"
	"github.com/xraph/edition/metadata"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/types"
)

// Record returns the current metadata record of an edition.
func (e *Engine) Record(ctx context.Context, edition int64) (*metadata.Record, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}
	_, rec, err := e.record(ctx, b, edition)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Mutate replaces the payload of an edition's record. The version advances
// by exactly one and the extension field is preserved.
//
// auth is either the instance's AppMutationCap or the EditionCap of this
// edition. The token object backing it is referenced by the commit.
func (e *Engine) Mutate(ctx context.Context, edition int64, payload metadata.Payload, auth MutationAuthority) (*metadata.Record, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: no mutation authority", ErrUnauthorized)
	}

	h, capEdition := auth.authority()
	var holder *object.Object
	switch h.kind {
	case capability.AppWallet:
		holder, err = e.verify(ctx, b, h, capability.AppWallet)
	case capability.Authenticity:
		if capEdition != edition {
			return nil, fmt.Errorf("%w: have %d, want %d", ErrWrongEdition, capEdition, edition)
		}
		holder, err = e.verify(ctx, b, h, capability.Authenticity)
	default:
		err = fmt.Errorf("%w: %s", ErrUnauthorized, h)
	}
	if err != nil {
		return nil, err
	}

	obj, cur, err := e.record(ctx, b, edition)
	if err != nil {
		return nil, err
	}
	next := cur.Mutate(payload)
	datum, err := object.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("mutate: encode record: %w", err)
	}

	ws := &object.WriteSet{}
	ws.Consume(obj.Ref)
	ws.Reference(holder.Ref)
	ws.Create(object.Output{Address: obj.Address, Assets: obj.Assets, Datum: datum})

	commit, err := e.submit(ctx, "mutate", ws)
	if err != nil {
		return nil, err
	}

	op := id.NewOperationID()
	e.plugins.EmitMetadataMutated(ctx, &plugin.MetadataEvent{
		Operation: op,
		Identity:  b.identity(),
		Commit:    commit,
		EditionID: edition,
		Version:   next.Version,
		Authority: string(h.kind),
	})

	e.logger.Info("metadata mutated",
		"operation", op.String(),
		"instance", b.identity(),
		"commit", commit,
		"edition", edition,
		"version", next.Version,
	)

	return &next, nil
}

// Burn destroys an edition: its record is consumed and both markers are
// retired. The ID is never issued again.
func (e *Engine) Burn(ctx context.Context, edition int64, auth EditionCap) error {
	b, err := e.requireBinding()
	if err != nil {
		return err
	}
	if !auth.IsZero() && auth.edition != edition {
		return fmt.Errorf("%w: have %d, want %d", ErrWrongEdition, auth.edition, edition)
	}
	holder, err := e.verify(ctx, b, auth.handle, capability.Authenticity)
	if err != nil {
		return err
	}
	obj, _, err := e.record(ctx, b, edition)
	if err != nil {
		return err
	}

	refUnit := b.inst.EditionUnit(capability.Reference, edition)
	authUnit := auth.unit

	ws := &object.WriteSet{}
	ws.Consume(obj.Ref, holder.Ref)
	if rest := change(holder.Assets, types.Of(authUnit, 1)); rest != nil {
		ws.Create(object.Output{Address: e.actor, Assets: rest})
	}
	ws.AddMint(refUnit, -1)
	ws.AddMint(authUnit, -1)

	commit, err := e.submit(ctx, "burn", ws)
	if err != nil {
		return err
	}

	op := id.NewOperationID()
	e.plugins.EmitEditionBurned(ctx, &plugin.BurnEvent{
		Operation: op,
		Identity:  b.identity(),
		Commit:    commit,
		EditionID: edition,
	})

	e.logger.Info("edition burned",
		"operation", op.String(),
		"instance", b.identity(),
		"commit", commit,
		"edition", edition,
	)

	return nil
}

// record finds the metadata object of edition by its reference marker.
func (e *Engine) record(ctx context.Context, b *binding, edition int64) (*object.Object, metadata.Record, error) {
	if edition < 0 || edition >= b.inst.TotalSupply(b.alloc.Count()) {
		return nil, metadata.Record{}, fmt.Errorf("%w: %d", ErrInvalidEditionID, edition)
	}

	objs, err := e.store.QueryByCapability(ctx, b.inst.EditionUnit(capability.Reference, edition))
	if err != nil {
		return nil, metadata.Record{}, err
	}
	for _, o := range objs {
		if o.Address != b.inst.MetadataAddress {
			continue
		}
		rec, err := object.Decode[metadata.Record](o)
		if err != nil {
			return nil, metadata.Record{}, err
		}
		if err := rec.Validate(); err != nil {
			return nil, metadata.Record{}, err
		}
		return o, rec, nil
	}
	return nil, metadata.Record{}, fmt.Errorf("%w: edition %d", ErrRecordNotFound, edition)
}
