package transactions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
	"github.com/ledgermesh/go-ledgermesh/sql"
	"github.com/ledgermesh/go-ledgermesh/sql/ledgerdb"
	"github.com/ledgermesh/go-ledgermesh/sql/transactions"
)

func makePeer(t *testing.T) p2p.Peer {
	t.Helper()
	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	return signer.Peer()
}

func makeTx(parties ...p2p.Peer) *types.Transaction {
	return &types.Transaction{
		Body: types.TransactionBody{
			Parties: parties,
			Outputs: []types.Produced{
				{Entry: types.RandomEntryID(), Payload: types.RandomBytes(16)},
			},
		},
	}
}

func TestAddGet(t *testing.T) {
	db := ledgerdb.InMemory()
	defer db.Close()

	peer := makePeer(t)
	tx := makeTx(peer)
	require.NoError(t, transactions.Add(db, tx, time.Now()))

	got, err := transactions.Get(db, tx.ID())
	require.NoError(t, err)
	require.Equal(t, tx.Body, got.Body)
	require.Equal(t, tx.ID(), got.ID())

	has, err := transactions.Has(db, tx.ID())
	require.NoError(t, err)
	require.True(t, has)

	_, err = transactions.Get(db, types.RandomTransactionID())
	require.ErrorIs(t, err, sql.ErrNotFound)
}

func TestAddDuplicate(t *testing.T) {
	db := ledgerdb.InMemory()
	defer db.Close()

	tx := makeTx(makePeer(t))
	require.NoError(t, transactions.Add(db, tx, time.Now()))
	require.ErrorIs(t, transactions.Add(db, tx, time.Now()), sql.ErrObjectExists)
}

func TestIDsInvolving(t *testing.T) {
	db := ledgerdb.InMemory()
	defer db.Close()

	self := makePeer(t)
	other := makePeer(t)
	third := makePeer(t)

	shared := makeTx(self, other)
	selfOnly := makeTx(self, third)
	otherOnly := makeTx(other, third)
	require.NoError(t, transactions.Add(db, shared, time.Now()))
	require.NoError(t, transactions.Add(db, selfOnly, time.Now()))
	require.NoError(t, transactions.Add(db, otherOnly, time.Now()))

	ids, err := transactions.IDsInvolving(db, self, other)
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{shared.ID()}, ids)

	ids, err = transactions.IDsInvolving(db, other, self)
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{shared.ID()}, ids)
}

func TestKnownPeers(t *testing.T) {
	db := ledgerdb.InMemory()
	defer db.Close()

	self := makePeer(t)
	other := makePeer(t)
	require.NoError(t, transactions.Add(db, makeTx(self, other), time.Now()))

	peers, err := transactions.KnownPeers(db, self)
	require.NoError(t, err)
	require.Equal(t, []p2p.Peer{other}, peers)
}

func TestDelete(t *testing.T) {
	db := ledgerdb.InMemory()
	defer db.Close()

	self := makePeer(t)
	other := makePeer(t)
	tx := makeTx(self, other)
	require.NoError(t, transactions.Add(db, tx, time.Now()))
	require.NoError(t, transactions.Delete(db, tx.ID()))

	has, err := transactions.Has(db, tx.ID())
	require.NoError(t, err)
	require.False(t, has)

	ids, err := transactions.IDsInvolving(db, self, other)
	require.NoError(t, err)
	require.Empty(t, ids)

	count, err := transactions.Count(db)
	require.NoError(t, err)
	require.Zero(t, count)
}
