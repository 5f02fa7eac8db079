package payment

import (
	"fmt"

	"github.com/xraph/edition/types"
)

// Transfer is an amount of one unit owed to one recipient.
type Transfer struct {
	To     types.Address `json:"to"`
	Unit   types.Unit    `json:"unit"`
	Amount int64         `json:"amount"`
}

// Resolve matches entries against unit and scales each matched amount by
// quantity. Order follows the table.
func Resolve(unit types.Unit, quantity int64, entries []Entry) ([]Transfer, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var out []Transfer
	for _, e := range entries {
		per, ok := e.PerUnit[unit]
		if !ok {
			continue
		}
		amount, ok := types.MulInt64(per, quantity)
		if !ok {
			return nil, fmt.Errorf("%w: %d %s x %d for %s", ErrAmountOverflow, per, unit, quantity, e.Recipient)
		}
		out = append(out, Transfer{To: e.Recipient, Unit: unit, Amount: amount})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingOption, unit)
	}
	return out, nil
}

// Total sums the transfers into one value.
func Total(transfers []Transfer) (types.Value, error) {
	total := types.Value{}
	for _, tr := range transfers {
		next := total.Get(tr.Unit) + tr.Amount
		if next < total.Get(tr.Unit) {
			return nil, fmt.Errorf("%w: total %s", ErrAmountOverflow, tr.Unit)
		}
		total = total.Add(types.Of(tr.Unit, tr.Amount))
	}
	return total, nil
}

// Outputs groups transfers by recipient, one value per recipient, in first
// appearance order.
func Outputs(transfers []Transfer) ([]types.Address, map[types.Address]types.Value) {
	var order []types.Address
	byTo := make(map[types.Address]types.Value)
	for _, tr := range transfers {
		if _, seen := byTo[tr.To]; !seen {
			order = append(order, tr.To)
		}
		byTo[tr.To] = byTo[tr.To].Add(types.Of(tr.Unit, tr.Amount))
	}
	return order, byTo
}
