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
	"github.com/ledgermesh/go-ledgermesh/p2p/server"
	"github.com/ledgermesh/go-ledgermesh/signing"
	"github.com/ledgermesh/go-ledgermesh/sql/ledgerdb"
)

type fakeRequester struct {
	handler func(context.Context, p2p.Peer, []byte) ([]byte, error)
}

func (f *fakeRequester) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (f *fakeRequester) Request(ctx context.Context, peer p2p.Peer, req []byte) ([]byte, error) {
	return f.handler(ctx, peer, req)
}

func newSigner(t *testing.T) *signing.EdSigner {
	t.Helper()
	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	return signer
}

func newStore(t *testing.T, self p2p.Peer) *ledger.Store {
	t.Helper()
	db := ledgerdb.InMemory()
	t.Cleanup(func() { db.Close() })
	return ledger.New(self, db, ledger.WithLogger(logtest.New(t)))
}

func signedTx(t *testing.T, signers []*signing.EdSigner, nonce uint64) *types.Transaction {
	t.Helper()
	parties := make([]p2p.Peer, len(signers))
	for i, s := range signers {
		parties[i] = s.Peer()
	}
	tx := &types.Transaction{
		Body: types.TransactionBody{
			Parties: parties,
			Outputs: []types.Produced{{Entry: types.RandomEntryID()}},
			Nonce:   nonce,
		},
	}
	digest := tx.SigningDigest()
	for _, s := range signers {
		tx.Signatures = append(tx.Signatures, s.Sign(digest))
	}
	return tx
}

func fetchWithFake(t *testing.T, store *ledger.Store, proto string, fake *fakeRequester) *Fetch {
	t.Helper()
	return NewFetch(nil, store,
		WithLogger(logtest.New(t)),
		withServers(map[string]requester{proto: fake}),
	)
}

func TestPeerIDSet(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	theirs := []types.TransactionID{types.RandomTransactionID(), types.RandomTransactionID()}
	fake := &fakeRequester{handler: func(_ context.Context, _ p2p.Peer, req []byte) ([]byte, error) {
		var r IDSetRequest
		require.NoError(t, codec.Decode(req, &r))
		require.Empty(t, r.IDs)
		return codec.MustEncode(&IDSetResponse{IDs: theirs}), nil
	}}
	f := fetchWithFake(t, store, IDSetProtocol, fake)

	got, err := f.PeerIDSet(context.Background(), bob.Peer())
	require.NoError(t, err)
	require.Equal(t, theirs, got)
	// the peer is now registered as a holder of those transactions
	require.Equal(t, []p2p.Peer{bob.Peer()}, f.PeersForTransaction(theirs[0]))
}

func TestPeerIDSetUnreachable(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	fake := &fakeRequester{handler: func(context.Context, p2p.Peer, []byte) ([]byte, error) {
		return nil, server.ErrNotConnected
	}}
	f := fetchWithFake(t, store, IDSetProtocol, fake)

	_, err := f.PeerIDSet(context.Background(), bob.Peer())
	require.ErrorIs(t, err, ErrPeerUnreachable)
}

func TestPeerIDSetRemoteError(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	fake := &fakeRequester{handler: func(context.Context, p2p.Peer, []byte) ([]byte, error) {
		return nil, server.NewServerError("boom")
	}}
	f := fetchWithFake(t, store, IDSetProtocol, fake)

	_, err := f.PeerIDSet(context.Background(), bob.Peer())
	require.ErrorIs(t, err, ErrProtocol)
}

func TestGetTransactions(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, 1)
	fake := &fakeRequester{handler: func(_ context.Context, _ p2p.Peer, req []byte) ([]byte, error) {
		var r TxRequest
		require.NoError(t, codec.Decode(req, &r))
		require.Equal(t, []types.TransactionID{tx.ID()}, r.IDs)
		return codec.MustEncode(&TxResponse{Blobs: [][]byte{codec.MustEncode(tx)}}), nil
	}}
	f := fetchWithFake(t, store, TxProtocol, fake)

	got, err := f.GetTransactions(context.Background(), bob.Peer(), []types.TransactionID{tx.ID()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, tx.ID(), got[0].ID())
}

func TestGetTransactionsOmitsAbsent(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	fake := &fakeRequester{handler: func(context.Context, p2p.Peer, []byte) ([]byte, error) {
		return codec.MustEncode(&TxResponse{}), nil
	}}
	f := fetchWithFake(t, store, TxProtocol, fake)

	got, err := f.GetTransactions(context.Background(), bob.Peer(),
		[]types.TransactionID{types.RandomTransactionID()})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGetTransactionsRejectsUnrequested(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	unrequested := signedTx(t, []*signing.EdSigner{alice, bob}, 1)
	fake := &fakeRequester{handler: func(context.Context, p2p.Peer, []byte) ([]byte, error) {
		return codec.MustEncode(&TxResponse{Blobs: [][]byte{codec.MustEncode(unrequested)}}), nil
	}}
	f := fetchWithFake(t, store, TxProtocol, fake)

	_, err := f.GetTransactions(context.Background(), bob.Peer(),
		[]types.TransactionID{types.RandomTransactionID()})
	require.ErrorIs(t, err, ErrProtocol)
}

func TestPeek(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())

	held := types.RandomTransactionID()
	fake := &fakeRequester{handler: func(_ context.Context, _ p2p.Peer, req []byte) ([]byte, error) {
		var r PeekRequest
		require.NoError(t, codec.Decode(req, &r))
		return codec.MustEncode(&PeekResponse{Have: []types.TransactionID{held}}), nil
	}}
	f := fetchWithFake(t, store, PeekProtocol, fake)

	have, err := f.Peek(context.Background(), bob.Peer(), []types.TransactionID{held, types.RandomTransactionID()})
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{held}, have)
}

func TestBatches(t *testing.T) {
	ids := make([]types.TransactionID, 5)
	for i := range ids {
		ids[i] = types.RandomTransactionID()
	}
	chunks := batches(ids, 2)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 2)
	require.Len(t, chunks[2], 1)
	require.Empty(t, batches(nil, 2))
}
