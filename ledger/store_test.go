package ledger_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/ledger"
	"github.com/ledgermesh/go-ledgermesh/log/logtest"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
	"github.com/ledgermesh/go-ledgermesh/sql/ledgerdb"
)

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

func signedTx(
	t *testing.T,
	signers []*signing.EdSigner,
	inputs []types.Consumed,
	outputs []types.Produced,
	nonce uint64,
) *types.Transaction {
	t.Helper()
	parties := make([]p2p.Peer, len(signers))
	for i, s := range signers {
		parties[i] = s.Peer()
	}
	tx := &types.Transaction{
		Body: types.TransactionBody{
			Parties: parties,
			Inputs:  inputs,
			Outputs: outputs,
			Nonce:   nonce,
		},
	}
	digest := tx.SigningDigest()
	for _, s := range signers {
		tx.Signatures = append(tx.Signatures, s.Sign(digest))
	}
	return tx
}

func TestAdmit(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	entry := types.RandomEntryID()
	tx := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: entry, Payload: []byte("genesis")}}, 1)
	require.NoError(t, store.Admit(ctx, tx))

	has, err := store.Has(tx.ID())
	require.NoError(t, err)
	require.True(t, has)

	got, err := store.Transaction(tx.ID())
	require.NoError(t, err)
	require.Equal(t, tx.Body, got.Body)

	ids, err := store.IDsInvolving(bob.Peer())
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{tx.ID()}, ids)

	peers, err := store.KnownPeers()
	require.NoError(t, err)
	require.Equal(t, []p2p.Peer{bob.Peer()}, peers)

	state, err := store.Entry(entry)
	require.NoError(t, err)
	require.Equal(t, &types.LedgerEntry{ID: entry, Head: tx.ID()}, state)
}

func TestAdmitConcurrent(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	db, err := ledgerdb.Open("file:" + filepath.Join(t.TempDir(), "ledger.sql"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := ledger.New(alice.Peer(), db, ledger.WithLogger(logtest.New(t)))
	ctx := context.Background()

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)

	// admissions racing over separate connections must all see either a
	// fresh transaction or a committed duplicate, never a head conflict
	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			return store.Admit(ctx, tx)
		})
	}
	require.NoError(t, eg.Wait())

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAdmitIdempotent(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)
	require.NoError(t, store.Admit(ctx, tx))
	require.NoError(t, store.Admit(ctx, tx))

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAdmitRejectsBadSignature(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)
	tx.Signatures[1][0] ^= 0xff
	require.ErrorIs(t, store.Admit(ctx, tx), ledger.ErrVerificationFailed)

	has, err := store.Has(tx.ID())
	require.NoError(t, err)
	require.False(t, has)
}

func TestAdmitRejectsSignatureCountMismatch(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	tx := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)
	tx.Signatures = tx.Signatures[:1]
	require.ErrorIs(t, store.Admit(ctx, tx), ledger.ErrVerificationFailed)
}

func TestAdmitRejectsStaleHead(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	entry := types.RandomEntryID()
	genesis := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: entry}}, 1)
	require.NoError(t, store.Admit(ctx, genesis))

	// consuming with a wrong head reference
	stale := signedTx(t, []*signing.EdSigner{alice, bob},
		[]types.Consumed{{Entry: entry, Prev: types.RandomTransactionID()}}, nil, 2)
	require.ErrorIs(t, store.Admit(ctx, stale), ledger.ErrVerificationFailed)

	// consuming an entry that was never produced
	unknown := signedTx(t, []*signing.EdSigner{alice, bob},
		[]types.Consumed{{Entry: types.RandomEntryID(), Prev: genesis.ID()}}, nil, 3)
	require.ErrorIs(t, store.Admit(ctx, unknown), ledger.ErrVerificationFailed)
}

func TestAdmitRejectsDuplicateOutput(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	entry := types.RandomEntryID()
	first := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: entry}}, 1)
	require.NoError(t, store.Admit(ctx, first))

	second := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: entry}}, 2)
	require.ErrorIs(t, store.Admit(ctx, second), ledger.ErrVerificationFailed)
}

func TestPurgeAndReadmit(t *testing.T) {
	alice := newSigner(t)
	bob := newSigner(t)
	store := newStore(t, alice.Peer())
	ctx := context.Background()

	entry := types.RandomEntryID()
	genesis := signedTx(t, []*signing.EdSigner{alice, bob}, nil,
		[]types.Produced{{Entry: entry}}, 1)
	spend := signedTx(t, []*signing.EdSigner{alice, bob},
		[]types.Consumed{{Entry: entry, Prev: genesis.ID()}}, nil, 2)
	require.NoError(t, store.Admit(ctx, genesis))
	require.NoError(t, store.Admit(ctx, spend))

	require.NoError(t, store.Purge(ctx, spend.ID()))
	has, err := store.Has(spend.ID())
	require.NoError(t, err)
	require.False(t, has)

	state, err := store.Entry(entry)
	require.NoError(t, err)
	require.Equal(t, genesis.ID(), state.Head)

	// the entry head rewound, so the same transaction verifies again
	require.NoError(t, store.Admit(ctx, spend))
	has, err = store.Has(spend.ID())
	require.NoError(t, err)
	require.True(t, has)
}
