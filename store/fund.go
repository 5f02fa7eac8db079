package store

import (
	"context"

	"github.com/xraph/edition/id"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// Fund creates an object holding value at addr with a genesis write. It is
// how wallets are seeded outside a real ledger.
func Fund(ctx context.Context, s Store, addr types.Address, value types.Value) (object.Ref, error) {
	ws := &object.WriteSet{Memo: id.NewFundingID().String()}
	ws.Create(object.Output{Address: addr, Assets: value})

	commit, err := s.Submit(ctx, ws)
	if err != nil {
		return object.Ref{}, err
	}
	return object.NewRef(commit, 0), nil
}
