package edition

import (
	"context"
	"fmt"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/id"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/payment"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/types"
)

// PaymentTable is the published payment table and the commit that wrote it.
type PaymentTable struct {
	Ref    object.Ref
	Commit object.CommitID
	Table  payment.Table

	obj *object.Object
}

// PublishPaymentTable creates the payment table. The Payment token moves
// from the actor onto the table object, where it stays until teardown.
func (e *Engine) PublishPaymentTable(ctx context.Context, auth PaymentCap, entries []payment.Entry) (*PaymentTable, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}
	table, err := payment.NewTable(entries)
	if err != nil {
		return nil, err
	}

	holder, err := e.verify(ctx, b, auth.handle, capability.Payment)
	if err != nil {
		return nil, err
	}
	if _, err := e.paymentTable(ctx, b); err == nil {
		return nil, ErrPaymentTablePublished
	} else if !IsNotFound(err) {
		return nil, err
	}

	datum, err := object.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("publish payment table: encode: %w", err)
	}
	token := types.Of(auth.unit, 1)

	ws := &object.WriteSet{}
	ws.Consume(holder.Ref)
	idx := ws.Create(object.Output{Address: b.inst.PaymentAddress, Assets: token, Datum: datum})
	if rest := change(holder.Assets, token); rest != nil {
		ws.Create(object.Output{Address: e.actor, Assets: rest})
	}

	commit, err := e.submit(ctx, "publish payment table", ws)
	if err != nil {
		return nil, err
	}

	e.emitPaymentTable(ctx, b, commit, table)
	return &PaymentTable{Ref: object.NewRef(commit, idx), Commit: commit, Table: table}, nil
}

// UpdatePaymentTable replaces the payment table in one commit. The version
// advances by one.
func (e *Engine) UpdatePaymentTable(ctx context.Context, auth OwnershipCap, entries []payment.Entry) (*PaymentTable, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}
	holder, err := e.verify(ctx, b, auth.handle, capability.Ownership)
	if err != nil {
		return nil, err
	}
	cur, err := e.paymentTable(ctx, b)
	if err != nil {
		return nil, err
	}
	next, err := cur.Table.Replace(entries)
	if err != nil {
		return nil, err
	}

	datum, err := object.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("update payment table: encode: %w", err)
	}
	ws := &object.WriteSet{}
	ws.Consume(cur.Ref)
	ws.Reference(holder.Ref)
	idx := ws.Create(object.Output{Address: b.inst.PaymentAddress, Assets: cur.obj.Assets, Datum: datum})

	commit, err := e.submit(ctx, "update payment table", ws)
	if err != nil {
		return nil, err
	}

	e.emitPaymentTable(ctx, b, commit, next)
	return &PaymentTable{Ref: object.NewRef(commit, idx), Commit: commit, Table: next}, nil
}

// PaymentTable returns the current payment table.
func (e *Engine) PaymentTable(ctx context.Context) (*PaymentTable, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}
	return e.paymentTable(ctx, b)
}

// ResolvePayment returns the transfers owed for quantity editions settled
// in unit under the current table.
func (e *Engine) ResolvePayment(ctx context.Context, unit types.Unit, quantity int64) ([]payment.Transfer, error) {
	unit, err := types.ParseUnit(string(unit))
	if err != nil {
		return nil, err
	}
	t, err := e.PaymentTable(ctx)
	if err != nil {
		return nil, err
	}
	return payment.Resolve(unit, quantity, t.Table.Entries)
}

func (e *Engine) paymentTable(ctx context.Context, b *binding) (*PaymentTable, error) {
	objs, err := e.store.QueryByCapability(ctx, b.inst.ControlUnit(capability.Payment))
	if err != nil {
		return nil, err
	}
	for _, o := range objs {
		if o.Address != b.inst.PaymentAddress {
			continue
		}
		t, err := object.Decode[payment.Table](o)
		if err != nil {
			return nil, err
		}
		return &PaymentTable{Ref: o.Ref, Commit: o.Ref.Commit, Table: t, obj: o}, nil
	}
	return nil, ErrPaymentTableNotFound
}

func (e *Engine) emitPaymentTable(ctx context.Context, b *binding, commit object.CommitID, t payment.Table) {
	op := id.NewOperationID()
	e.plugins.EmitPaymentTableUpdated(ctx, &plugin.PaymentTableEvent{
		Operation: op,
		Identity:  b.identity(),
		Commit:    commit,
		Version:   t.Version,
		Entries:   len(t.Entries),
	})

	e.logger.Info("payment table updated",
		"operation", op.String(),
		"instance", b.identity(),
		"commit", commit,
		"version", t.Version,
		"entries", len(t.Entries),
	)
}
