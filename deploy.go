package edition

import (
	"context"
	"fmt"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/id"
	"github.com/xraph/edition/instance"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/types"
)

// Deployment is the result of Deploy.
type Deployment struct {
	Operation   id.OperationID
	Identity    string
	Instance    instance.Instance
	Commit      object.CommitID
	TotalSupply int64

	Ownership   OwnershipCap
	AppMutation AppMutationCap
	Payment     PaymentCap
}

// Deploy creates a new instance named name with totalSupply editions and
// binds the engine to it.
//
// One actor object is consumed, which makes the identity globally unique.
// The same commit creates the lanes and mints every control token; the
// Ownership, AppWallet and Payment tokens are delivered to the actor.
func (e *Engine) Deploy(ctx context.Context, name string, totalSupply int64) (*Deployment, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	layout, err := lane.Layout(totalSupply, e.laneCount)
	if err != nil {
		return nil, err
	}
	perLane := totalSupply / int64(e.laneCount)
	baseName := []byte(name)
	if !capability.EditionNameFits(baseName, totalSupply-1) {
		return nil, fmt.Errorf("%w: %q too long for %d editions", ErrInvalidName, name, totalSupply)
	}

	e.bindMu.Lock()
	defer e.bindMu.Unlock()

	if cur := e.bound.Load(); cur != nil {
		return nil, fmt.Errorf("%w: engine bound to %s", ErrAlreadyDeployed, cur.identity())
	}

	wallet, err := e.wallet(ctx)
	if err != nil {
		return nil, err
	}
	source := wallet[e.sampler().IntN(len(wallet))]

	ident := instance.Identity{Source: source.Ref, BaseName: baseName, PerLane: perLane}
	inst := instance.Derive(ident)
	alloc, err := lane.NewAllocator(e.laneCount, perLane)
	if err != nil {
		return nil, err
	}
	b := &binding{inst: inst, alloc: alloc}

	laneUnit := inst.ControlUnit(capability.Lane)
	existing, err := e.store.QueryByCapability(ctx, laneUnit)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyDeployed, ident)
	}

	op := id.NewOperationID()
	ws := &object.WriteSet{}
	ws.Consume(source.Ref)
	for _, l := range layout {
		datum, err := object.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("deploy: encode lane: %w", err)
		}
		ws.Create(object.Output{
			Address: inst.LaneAddress,
			Assets:  types.Of(laneUnit, 1),
			Datum:   datum,
		})
	}

	tokens := types.Value{}
	for _, k := range []capability.Kind{capability.Payment, capability.Ownership, capability.AppWallet} {
		tokens = tokens.Add(types.Of(inst.ControlUnit(k), 1))
	}
	ws.Create(object.Output{Address: e.actor, Assets: source.Assets.Add(tokens)})
	ws.AddMint(laneUnit, int64(e.laneCount))
	for _, u := range tokens.Units() {
		ws.AddMint(u, 1)
	}

	commit, err := e.submit(ctx, "deploy", ws)
	if err != nil {
		return nil, err
	}
	e.bound.Store(b)

	d := &Deployment{
		Operation:   op,
		Identity:    ident.String(),
		Instance:    inst,
		Commit:      commit,
		TotalSupply: totalSupply,
		Ownership:   OwnershipCap{b.control(capability.Ownership, e.actor)},
		AppMutation: AppMutationCap{b.control(capability.AppWallet, e.actor)},
		Payment:     PaymentCap{b.control(capability.Payment, e.actor)},
	}

	e.plugins.EmitInstanceDeployed(ctx, &plugin.DeployEvent{
		Operation:   op,
		Identity:    d.Identity,
		Commit:      commit,
		Name:        name,
		Lanes:       e.laneCount,
		TotalSupply: totalSupply,
	})

	e.logger.Info("instance deployed",
		"operation", op.String(),
		"instance", d.Identity,
		"commit", commit,
		"lanes", e.laneCount,
		"per_lane", perLane,
	)

	return d, nil
}

// RemainingLaneCount returns the number of lanes not yet reclaimed.
func (e *Engine) RemainingLaneCount(ctx context.Context) (int, error) {
	b, err := e.requireBinding()
	if err != nil {
		return 0, err
	}
	lanes, err := e.lanes(ctx, b)
	if err != nil {
		return 0, err
	}
	return len(lanes), nil
}

// laneObject is a lane read from the store.
type laneObject struct {
	obj  *object.Object
	lane lane.Lane
}

// lanes returns the unspent lane objects of b.
func (e *Engine) lanes(ctx context.Context, b *binding) ([]laneObject, error) {
	objs, err := e.store.QueryByCapability(ctx, b.inst.ControlUnit(capability.Lane))
	if err != nil {
		return nil, err
	}
	out := make([]laneObject, 0, len(objs))
	for _, o := range objs {
		if o.Address != b.inst.LaneAddress {
			continue
		}
		l, err := object.Decode[lane.Lane](o)
		if err != nil {
			return nil, err
		}
		if !l.Valid() {
			return nil, fmt.Errorf("edition: lane %s holds invalid datum", o.Ref)
		}
		out = append(out, laneObject{obj: o, lane: l})
	}
	return out, nil
}
