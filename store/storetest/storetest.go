// Package storetest is a conformance suite every store backend runs.
package storetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/edition"
	"github.com/xraph/edition/object"
	"github.com/xraph/edition/store"
	"github.com/xraph/edition/types"
)

// Factory returns a fresh, migrated store. The suite closes it.
type Factory func(t *testing.T) store.Store

const (
	wallet types.Address = "wallet"
	other  types.Address = "other"
	token  types.Unit    = "0123456789abcdef0123456789abcdef0123456789abcdef012345674c616e65"
)

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"SubmitAndGet", testSubmitAndGet},
		{"ConsumeTwiceConflicts", testConsumeTwiceConflicts},
		{"ResubmitIdenticalConflicts", testResubmitIdenticalConflicts},
		{"ReferenceMustBeUnspent", testReferenceMustBeUnspent},
		{"ConflictChangesNothing", testConflictChangesNothing},
		{"QueryByCapability", testQueryByCapability},
		{"QueryByAddress", testQueryByAddress},
		{"InvalidWriteSetRejected", testInvalidWriteSetRejected},
		{"ConcurrentConsumersOneWins", testConcurrentConsumersOneWins},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func fund(t *testing.T, s store.Store, addr types.Address, v types.Value) object.Ref {
	t.Helper()
	ref, err := store.Fund(context.Background(), s, addr, v)
	require.NoError(t, err)
	return ref
}

func spend(in object.Ref, to types.Address, v types.Value, datum []byte) *object.WriteSet {
	ws := &object.WriteSet{}
	ws.Consume(in)
	ws.Create(object.Output{Address: to, Assets: v, Datum: datum})
	return ws
}

func testSubmitAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	ref := fund(t, s, wallet, types.Value{types.Native: 1_000, token: 1})

	got, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, got.Ref)
	assert.Equal(t, wallet, got.Address)
	assert.Equal(t, int64(1_000), got.Assets.Get(types.Native))
	assert.Equal(t, int64(1), got.Assets.Get(token))
	assert.False(t, got.CreatedAt.IsZero())

	datum := []byte{0x83, 0x01, 0x02, 0x03}
	commit, err := s.Submit(ctx, spend(ref, other, types.Of(types.Native, 1_000), datum))
	require.NoError(t, err)

	_, err = s.Get(ctx, ref)
	assert.ErrorIs(t, err, edition.ErrObjectNotFound)
	assert.True(t, edition.IsNotFound(err))

	created, err := s.Get(ctx, object.NewRef(commit, 0))
	require.NoError(t, err)
	assert.Equal(t, datum, created.Datum)
	assert.Equal(t, other, created.Address)
}

func testConsumeTwiceConflicts(t *testing.T, s store.Store) {
	ctx := context.Background()
	ref := fund(t, s, wallet, types.Of(types.Native, 10))

	_, err := s.Submit(ctx, spend(ref, other, types.Of(types.Native, 10), nil))
	require.NoError(t, err)

	_, err = s.Submit(ctx, spend(ref, wallet, types.Of(types.Native, 10), nil))
	assert.ErrorIs(t, err, edition.ErrConflict)
}

func testResubmitIdenticalConflicts(t *testing.T, s store.Store) {
	ctx := context.Background()
	ref := fund(t, s, wallet, types.Of(types.Native, 10))
	ws := spend(ref, other, types.Of(types.Native, 10), nil)

	first, err := s.Submit(ctx, ws)
	require.NoError(t, err)

	_, err = s.Submit(ctx, ws)
	assert.ErrorIs(t, err, edition.ErrConflict)

	objs, err := s.QueryByAddress(ctx, other)
	require.NoError(t, err)
	require.Len(t, objs, 1, "resubmission must not create outputs twice")
	assert.Equal(t, first, objs[0].Ref.Commit)
}

func testReferenceMustBeUnspent(t *testing.T, s store.Store) {
	ctx := context.Background()
	table := fund(t, s, "payment", types.Of(token, 1))
	coin := fund(t, s, wallet, types.Of(types.Native, 5))

	ws := spend(coin, wallet, types.Of(types.Native, 5), nil)
	ws.Reference(table)
	commit, err := s.Submit(ctx, ws)
	require.NoError(t, err)

	_, err = s.Get(ctx, table)
	require.NoError(t, err, "referenced object must stay unspent")

	_, err = s.Submit(ctx, spend(table, "payment", types.Of(token, 1), nil))
	require.NoError(t, err)

	ws = spend(object.NewRef(commit, 0), wallet, types.Of(types.Native, 5), nil)
	ws.Reference(table)
	_, err = s.Submit(ctx, ws)
	assert.ErrorIs(t, err, edition.ErrConflict)
}

func testConflictChangesNothing(t *testing.T, s store.Store) {
	ctx := context.Background()
	live := fund(t, s, wallet, types.Of(types.Native, 1))
	dead := fund(t, s, wallet, types.Of(types.Native, 2))
	_, err := s.Submit(ctx, spend(dead, other, types.Of(types.Native, 2), nil))
	require.NoError(t, err)

	ws := &object.WriteSet{}
	ws.Consume(live, dead)
	ws.Create(object.Output{Address: "sink", Assets: types.Of(types.Native, 3)})
	_, err = s.Submit(ctx, ws)
	require.ErrorIs(t, err, edition.ErrConflict)

	_, err = s.Get(ctx, live)
	assert.NoError(t, err, "valid input consumed by a rejected write set")
	sink, err := s.QueryByAddress(ctx, "sink")
	require.NoError(t, err)
	assert.Empty(t, sink)
}

func testQueryByCapability(t *testing.T, s store.Store) {
	ctx := context.Background()
	var refs []object.Ref
	for i := range 3 {
		refs = append(refs, fund(t, s, types.Address(fmt.Sprintf("lane-%d", i)), types.Of(token, 1)))
	}
	fund(t, s, wallet, types.Of(types.Native, 1))

	objs, err := s.QueryByCapability(ctx, token)
	require.NoError(t, err)
	require.Len(t, objs, 3)
	for i, o := range objs {
		assert.Equal(t, refs[i], o.Ref, "results must be oldest first")
		assert.True(t, o.Holds(token))
	}

	_, err = s.Submit(ctx, spend(refs[1], wallet, types.Of(types.Native, 0), nil))
	require.NoError(t, err)

	objs, err = s.QueryByCapability(ctx, token)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, refs[0], objs[0].Ref)
	assert.Equal(t, refs[2], objs[1].Ref)

	none, err := s.QueryByCapability(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testQueryByAddress(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := fund(t, s, wallet, types.Of(types.Native, 1))
	b := fund(t, s, wallet, types.Of(token, 1))
	fund(t, s, other, types.Of(types.Native, 1))

	objs, err := s.QueryByAddress(ctx, wallet)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, a, objs[0].Ref)
	assert.Equal(t, b, objs[1].Ref)
}

func testInvalidWriteSetRejected(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.Submit(ctx, &object.WriteSet{})
	assert.ErrorIs(t, err, edition.ErrInvalidWriteSet)

	ws := &object.WriteSet{}
	ws.Create(object.Output{Address: wallet})
	_, err = s.Submit(ctx, ws)
	assert.ErrorIs(t, err, edition.ErrInvalidWriteSet, "genesis write without memo")
}

func testConcurrentConsumersOneWins(t *testing.T, s store.Store) {
	ctx := context.Background()
	ref := fund(t, s, wallet, types.Of(types.Native, 100))

	const racers = 8
	var wins, conflicts atomic.Int32
	var g errgroup.Group
	for i := range racers {
		g.Go(func() error {
			to := types.Address(fmt.Sprintf("racer-%d", i))
			_, err := s.Submit(ctx, spend(ref, to, types.Of(types.Native, 100), nil))
			switch {
			case err == nil:
				wins.Add(1)
			case edition.IsConflict(err):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(racers-1), conflicts.Load())
}

func testPing(t *testing.T, s store.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
