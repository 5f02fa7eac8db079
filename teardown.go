package edition

import (
	"context"
	"fmt"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/id"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/types"
)

// ReclaimLanes consumes up to the reclaim batch size of lanes and burns
// their Lane tokens. It returns the number of lanes left. Lanes need not be
// exhausted to be reclaimed; a reclaimed lane issues no further IDs.
func (e *Engine) ReclaimLanes(ctx context.Context, auth OwnershipCap) (int, error) {
	b, err := e.requireBinding()
	if err != nil {
		return 0, err
	}
	holder, err := e.verify(ctx, b, auth.handle, capability.Ownership)
	if err != nil {
		return 0, err
	}
	lanes, err := e.lanes(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(lanes) == 0 {
		return 0, nil
	}

	n := min(len(lanes), e.reclaimBatchSize)
	laneUnit := b.inst.ControlUnit(capability.Lane)

	ws := &object.WriteSet{}
	for _, l := range lanes[:n] {
		ws.Consume(l.obj.Ref)
	}
	ws.Reference(holder.Ref)
	ws.AddMint(laneUnit, -int64(n))

	commit, err := e.submit(ctx, "reclaim lanes", ws)
	if err != nil {
		return 0, err
	}
	remaining := len(lanes) - n

	op := id.NewOperationID()
	e.plugins.EmitLanesReclaimed(ctx, &plugin.ReclaimEvent{
		Operation: op,
		Identity:  b.identity(),
		Commit:    commit,
		Reclaimed: n,
		Remaining: remaining,
	})

	e.logger.Info("lanes reclaimed",
		"operation", op.String(),
		"instance", b.identity(),
		"commit", commit,
		"reclaimed", n,
		"remaining", remaining,
	)

	return remaining, nil
}

// ReclaimPaymentTable retires the payment table and the Ownership token.
// Every lane must have been reclaimed first.
func (e *Engine) ReclaimPaymentTable(ctx context.Context, auth OwnershipCap) error {
	b, err := e.requireBinding()
	if err != nil {
		return err
	}
	holder, err := e.verify(ctx, b, auth.handle, capability.Ownership)
	if err != nil {
		return err
	}

	lanes, err := e.lanes(ctx, b)
	if err != nil {
		return err
	}
	if len(lanes) > 0 {
		return fmt.Errorf("%w: %d remaining", ErrLanesStillActive, len(lanes))
	}

	table, err := e.paymentTable(ctx, b)
	if err != nil {
		return err
	}

	paymentUnit := b.inst.ControlUnit(capability.Payment)
	ownershipUnit := auth.unit

	ws := &object.WriteSet{}
	ws.Consume(table.Ref, holder.Ref)
	rest := types.Sum(table.obj.Assets, holder.Assets).
		Subtract(types.Of(paymentUnit, 1)).
		Subtract(types.Of(ownershipUnit, 1))
	if !rest.IsZero() {
		ws.Create(object.Output{Address: e.actor, Assets: rest})
	}
	ws.AddMint(paymentUnit, -1)
	ws.AddMint(ownershipUnit, -1)

	commit, err := e.submit(ctx, "reclaim payment table", ws)
	if err != nil {
		return err
	}

	op := id.NewOperationID()
	e.plugins.EmitPaymentTableReclaimed(ctx, &plugin.PaymentTableEvent{
		Operation: op,
		Identity:  b.identity(),
		Commit:    commit,
		Version:   table.Table.Version,
		Entries:   len(table.Table.Entries),
	})

	e.logger.Info("payment table reclaimed",
		"operation", op.String(),
		"instance", b.identity(),
		"commit", commit,
	)

	return nil
}
