package edition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/edition/capability"
	"github.com/xraph/edition/id"
	"github.com/xraph/edition/lane"
	"github.com/xraph/edition/metadata"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/payment"
	"github.com/xraph/edition/plugin"
	"github.com/xraph/edition/types"
)

// Minted is the result of a committed batch.
type Minted struct {
	Operation id.OperationID
	Commit    object.CommitID
	Lane      int64
	Range     lane.Range
	Transfers []payment.Transfer
	Editions  []EditionCap
}

// IDs lists the edition IDs of the batch.
func (m *Minted) IDs() []int64 { return m.Range.IDs() }

// Mint issues one edition per payload, settled in unit.
//
// Each call samples a fresh single-use nonce from the actor's wallet; the
// nonce and the payment table select one lane, and the whole batch is
// taken from that lane as a contiguous range. The lane replacement, the
// metadata records, the payment transfers and both markers per edition
// commit together.
//
// Mint never retries. ErrConflict means another commit consumed the lane
// or one of the inputs first, and ErrLaneFull means the chosen lane cannot
// take the batch; both succeed on a later attempt with fresh inputs.
// When the actor's wallet holds a single object there is no fresh input to
// draw, and a full lane also matches ErrNoFreshNonce, which is not
// retryable. ErrCapacityExhausted means no lane can take the batch.
func (e *Engine) Mint(ctx context.Context, unit types.Unit, payloads ...metadata.Payload) (*Minted, error) {
	b, err := e.requireBinding()
	if err != nil {
		return nil, err
	}
	// Units compare in the lowercase form tables are stored in.
	unit, err = types.ParseUnit(string(unit))
	if err != nil {
		return nil, err
	}
	op := id.NewOperationID()
	start := e.now()

	m, err := e.mint(ctx, b, op, unit, payloads)
	if err != nil {
		if IsRetryable(err) || IsCapacityError(err) {
			e.plugins.EmitOperationRejected(ctx, &plugin.RejectEvent{
				Operation: op,
				Identity:  b.identity(),
				Action:    "mint",
				Err:       err,
			})
		}
		return nil, err
	}

	elapsed := time.Since(start)
	paid, _ := payment.Total(m.Transfers) //nolint:errcheck // totals were checked before commit
	e.plugins.EmitEditionsMinted(ctx, &plugin.MintEvent{
		Operation: op,
		Identity:  b.identity(),
		Commit:    m.Commit,
		Lane:      m.Lane,
		Range:     m.Range,
		Unit:      unit,
		Paid:      paid,
		Elapsed:   elapsed,
	})

	e.logger.Info("editions minted",
		"operation", op.String(),
		"instance", b.identity(),
		"commit", m.Commit,
		"lane", m.Lane,
		"first_id", m.Range.First,
		"count", m.Range.Count,
		"elapsed_ms", elapsed.Milliseconds(),
	)

	return m, nil
}

func (e *Engine) mint(ctx context.Context, b *binding, op id.OperationID, unit types.Unit, payloads []metadata.Payload) (*Minted, error) {
	batch := int64(len(payloads))
	if batch < 1 {
		return nil, ErrInvalidBatchSize
	}

	table, err := e.paymentTable(ctx, b)
	if err != nil {
		return nil, err
	}
	transfers, err := payment.Resolve(unit, batch, table.Table.Entries)
	if err != nil {
		return nil, err
	}
	owed, err := payment.Total(transfers)
	if err != nil {
		return nil, err
	}

	wallet, err := e.wallet(ctx)
	if err != nil {
		return nil, err
	}
	sp, err := selectSpend(e.sampler(), wallet, owed, nil)
	if err != nil {
		return nil, err
	}

	lanes, err := e.lanes(ctx, b)
	if err != nil {
		return nil, err
	}
	candidates := make([]lane.Candidate, len(lanes))
	byRef := make(map[object.Ref]*object.Object, len(lanes))
	for i, l := range lanes {
		candidates[i] = lane.Candidate{Ref: l.obj.Ref, Lane: l.lane}
		byRef[l.obj.Ref] = l.obj
	}

	entropy := lane.Entropy(sp.nonce.Ref, table.Ref)
	claim, err := b.alloc.Pick(candidates, entropy, batch)
	if err != nil {
		// A lone wallet object is the nonce of every attempt, so the
		// same lane comes up until something else spends it.
		if errors.Is(err, ErrLaneFull) && len(wallet) == 1 {
			return nil, fmt.Errorf("%w: %w", err, ErrNoFreshNonce)
		}
		return nil, err
	}

	ws := &object.WriteSet{}
	ws.Consume(sp.refs()...)
	ws.Consume(claim.From.Ref)
	ws.Reference(table.Ref)

	next, err := object.Marshal(claim.Next)
	if err != nil {
		return nil, fmt.Errorf("mint: encode lane: %w", err)
	}
	ws.Create(object.Output{
		Address: b.inst.LaneAddress,
		Assets:  byRef[claim.From.Ref].Assets,
		Datum:   next,
	})

	markers := types.Value{}
	for i, edition := range claim.Range.IDs() {
		rec, err := metadata.New(edition, payloads[i])
		if err != nil {
			return nil, err
		}
		datum, err := object.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("mint: encode record %d: %w", edition, err)
		}
		refUnit := b.inst.EditionUnit(capability.Reference, edition)
		authUnit := b.inst.EditionUnit(capability.Authenticity, edition)

		ws.Create(object.Output{
			Address: b.inst.MetadataAddress,
			Assets:  types.Of(refUnit, 1),
			Datum:   datum,
		})
		ws.AddMint(refUnit, 1)
		ws.AddMint(authUnit, 1)
		markers = markers.Add(types.Of(authUnit, 1))
	}

	order, owedTo := payment.Outputs(transfers)
	for _, to := range order {
		ws.Create(object.Output{Address: to, Assets: owedTo[to]})
	}

	rest := sp.total().Subtract(owed).Add(markers)
	if rest.HasNegative() {
		return nil, fmt.Errorf("%w: change %s", ErrInsufficientFunds, rest)
	}
	ws.Create(object.Output{Address: e.actor, Assets: rest})

	commit, err := e.submit(ctx, "mint", ws)
	if err != nil {
		return nil, err
	}

	editions := make([]EditionCap, 0, batch)
	for _, edition := range claim.Range.IDs() {
		editions = append(editions, b.editionCap(edition, e.actor))
	}

	return &Minted{
		Operation: op,
		Commit:    commit,
		Lane:      claim.Index,
		Range:     claim.Range,
		Transfers: transfers,
		Editions:  editions,
	}, nil
}
