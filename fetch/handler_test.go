package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/ledger"
	"github.com/ledgermesh/go-ledgermesh/log/logtest"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
)

func serverFetch(t *testing.T, store *ledger.Store) *Fetch {
	t.Helper()
	return NewFetch(nil, store,
		WithLogger(logtest.New(t)),
		withServers(map[string]requester{IDSetProtocol: &fakeRequester{}}),
	)
}

func TestHandleIDSetReq(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	carol := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	withBob := signedTx(t, []*signing.EdSigner{alice, bob}, 1)
	withCarol := signedTx(t, []*signing.EdSigner{alice, carol}, 2)
	require.NoError(t, store.Admit(ctx, withBob))
	require.NoError(t, store.Admit(ctx, withCarol))

	f := serverFetch(t, store)
	remoteHeld := types.RandomTransactionID()
	req := codec.MustEncode(&IDSetRequest{IDs: []types.TransactionID{remoteHeld}})
	data, err := f.handleIDSetReq(ctx, bob.Peer(), req)
	require.NoError(t, err)

	var resp IDSetResponse
	require.NoError(t, codec.Decode(data, &resp))
	// only the transaction involving both alice and bob is reported
	require.Equal(t, []types.TransactionID{withBob.ID()}, resp.IDs)
	// the requester holds what it sent
	require.Equal(t, []p2p.Peer{bob.Peer()}, f.PeersForTransaction(remoteHeld))
}

func TestHandleTxReq(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, 1)
	require.NoError(t, store.Admit(ctx, tx))

	f := serverFetch(t, store)
	req := codec.MustEncode(&TxRequest{
		IDs: []types.TransactionID{tx.ID(), types.RandomTransactionID()},
	})
	data, err := f.handleTxReq(ctx, bob.Peer(), req)
	require.NoError(t, err)

	var resp TxResponse
	require.NoError(t, codec.Decode(data, &resp))
	require.Len(t, resp.Blobs, 1)
	var got types.Transaction
	require.NoError(t, codec.Decode(resp.Blobs[0], &got))
	require.Equal(t, tx.ID(), got.ID())
}

func TestHandlePeekReq(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, 1)
	require.NoError(t, store.Admit(ctx, tx))

	f := serverFetch(t, store)
	req := codec.MustEncode(&PeekRequest{
		IDs: []types.TransactionID{tx.ID(), types.RandomTransactionID()},
	})
	data, err := f.handlePeekReq(ctx, bob.Peer(), req)
	require.NoError(t, err)

	var resp PeekResponse
	require.NoError(t, codec.Decode(data, &resp))
	require.Equal(t, []types.TransactionID{tx.ID()}, resp.Have)
}

func TestHandleMalformedRequest(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	f := serverFetch(t, store)
	_, err := f.handleTxReq(ctx, bob.Peer(), []byte("garbage"))
	require.Error(t, err)
}
