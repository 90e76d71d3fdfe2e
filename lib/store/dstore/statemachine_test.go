package dstore

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/dLock/lib/db"
	"github.com/ValentinKolb/dLock/lib/db/engines/maple"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateMachine() sm.IConcurrentStateMachine {
	factory := CreateStateMaschineFactory(func() db.KVDB { return maple.NewMapleDB(nil) })
	return factory(1, 1)
}

func entry(index uint64, cmd internal.Command) sm.Entry {
	return sm.Entry{Index: index, Cmd: cmd.Serialize()}
}

func decode(t *testing.T, res sm.Result) (bool, []byte) {
	require.Equal(t, uint64(store.RetCSuccess), res.Value, "command failed: %s", res.Data)
	ok, value, err := internal.DecodeResult(res.Data)
	require.NoError(t, err)
	return ok, value
}

func TestUpdateLockSequence(t *testing.T) {
	fsm := newTestStateMachine()
	defer fsm.Close()

	key := "orders:_lock"
	entries, err := fsm.Update([]sm.Entry{
		entry(1, internal.Command{Type: internal.CommandTSetIfUnset, Key: key, Value: []byte("10")}),
		entry(2, internal.Command{Type: internal.CommandTSetIfUnset, Key: key, Value: []byte("20")}),
		entry(3, internal.Command{Type: internal.CommandTGetSet, Key: key, Value: []byte("30")}),
		entry(4, internal.Command{Type: internal.CommandTDelete, Key: key}),
		entry(5, internal.Command{Type: internal.CommandTGetSet, Key: key, Value: []byte("40")}),
	})
	require.NoError(t, err)
	require.Len(t, entries, 5)

	written, _ := decode(t, entries[0].Result)
	assert.True(t, written)

	written, _ = decode(t, entries[1].Result)
	assert.False(t, written)

	loaded, prev := decode(t, entries[2].Result)
	assert.True(t, loaded)
	assert.Equal(t, []byte("10"), prev)

	decode(t, entries[3].Result)

	loaded, prev = decode(t, entries[4].Result)
	assert.False(t, loaded, "key was deleted before the swap")
	assert.Empty(t, prev)

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, Key: key})
	require.NoError(t, err)
	assert.Equal(t, internal.QueryResult{Ok: true, Value: []byte("40")}, res)
}

func TestUpdateInvalidCommands(t *testing.T) {
	fsm := newTestStateMachine()
	defer fsm.Close()

	entries, err := fsm.Update([]sm.Entry{
		{Index: 1, Cmd: nil},
		{Index: 2, Cmd: []byte{1}},
		{Index: 3, Cmd: (&internal.Command{Type: internal.CommandType(99), Key: "k"}).Serialize()},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(store.RetCInvalidOperation), entries[0].Result.Value)
	assert.Equal(t, uint64(store.RetCInternalError), entries[1].Result.Value)
	assert.Equal(t, uint64(store.RetCInvalidOperation), entries[2].Result.Value)
}

func TestLookupInvalidQuery(t *testing.T) {
	fsm := newTestStateMachine()
	defer fsm.Close()

	_, err := fsm.Lookup("not a query")
	assert.Equal(t, store.RetCInternalError, store.CodeOf(err))

	_, err = fsm.Lookup(internal.Query{Type: internal.QueryType(42)})
	assert.Equal(t, store.RetCInvalidOperation, store.CodeOf(err))
}

func TestSnapshotRoundTrip(t *testing.T) {
	source := newTestStateMachine()
	defer source.Close()

	_, err := source.Update([]sm.Entry{
		entry(1, internal.Command{Type: internal.CommandTSetIfUnset, Key: "a:_lock", Value: []byte("1")}),
		entry(2, internal.Command{Type: internal.CommandTSetIfUnset, Key: "b:_lock", Value: []byte("2")}),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	ctx, err := source.PrepareSnapshot()
	require.NoError(t, err)
	require.NoError(t, source.SaveSnapshot(ctx, &buf, nil, nil))

	target := newTestStateMachine()
	defer target.Close()
	require.NoError(t, target.RecoverFromSnapshot(&buf, nil, nil))

	res, err := target.Lookup(internal.Query{Type: internal.QueryTGet, Key: "b:_lock"})
	require.NoError(t, err)
	assert.Equal(t, internal.QueryResult{Ok: true, Value: []byte("2")}, res)

	// a replayed log entry older than the snapshot must not win
	entries, err := target.Update([]sm.Entry{
		entry(1, internal.Command{Type: internal.CommandTGetSet, Key: "b:_lock", Value: []byte("stale")}),
	})
	require.NoError(t, err)
	_, prev := decode(t, entries[0].Result)
	assert.Equal(t, []byte("2"), prev)

	res, err = target.Lookup(internal.Query{Type: internal.QueryTGet, Key: "b:_lock"})
	require.NoError(t, err)
	assert.Equal(t, internal.QueryResult{Ok: true, Value: []byte("2")}, res)
}
