package edition

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/xraph/edition/object"
	"github.com/xraph/edition/types"
)

// spend is a set of actor objects consumed by one write set.
type spend struct {
	nonce  *object.Object
	inputs []*object.Object
}

// refs returns the refs of every input, nonce first.
func (s spend) refs() []object.Ref {
	refs := make([]object.Ref, len(s.inputs))
	for i, o := range s.inputs {
		refs[i] = o.Ref
	}
	return refs
}

// total is the combined value of every input.
func (s spend) total() types.Value {
	v := types.Value{}
	for _, o := range s.inputs {
		v = v.Add(o.Assets)
	}
	return v
}

// wallet returns the actor's unspent objects.
func (e *Engine) wallet(ctx context.Context) ([]*object.Object, error) {
	objs, err := e.store.QueryByAddress(ctx, e.actor)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSpendableInput, e.actor)
	}
	return objs, nil
}

// selectSpend draws a random nonce from wallet and adds further objects,
// oldest first, until need is covered. Objects in exclude are never
// selected.
func selectSpend(rng *rand.Rand, wallet []*object.Object, need types.Value, exclude map[object.Ref]bool) (spend, error) {
	pool := make([]*object.Object, 0, len(wallet))
	for _, o := range wallet {
		if !exclude[o.Ref] {
			pool = append(pool, o)
		}
	}
	if len(pool) == 0 {
		return spend{}, ErrNoSpendableInput
	}

	nonce := pool[rng.IntN(len(pool))]
	s := spend{nonce: nonce, inputs: []*object.Object{nonce}}
	have := nonce.Assets.Clone()

	for _, u := range need.Units() {
		for _, o := range pool {
			if have.Get(u) >= need.Get(u) {
				break
			}
			if o == nonce || o.Assets.Get(u) <= 0 || containsObject(s.inputs, o) {
				continue
			}
			s.inputs = append(s.inputs, o)
			have = have.Add(o.Assets)
		}
		if have.Get(u) < need.Get(u) {
			return spend{}, fmt.Errorf("%w: need %d %s, have %d", ErrInsufficientFunds, need.Get(u), u, have.Get(u))
		}
	}

	return s, nil
}

func containsObject(objs []*object.Object, o *object.Object) bool {
	for _, x := range objs {
		if x.Ref == o.Ref {
			return true
		}
	}
	return false
}

// change returns what is left of s after paying out, or nil when nothing is.
func change(in, out types.Value) types.Value {
	rest := in.Subtract(out)
	if rest.IsZero() {
		return nil
	}
	return rest
}
