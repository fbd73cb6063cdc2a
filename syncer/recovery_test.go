package syncer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/ledger"
	"github.com/ledgermesh/go-ledgermesh/log/logtest"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
	"github.com/ledgermesh/go-ledgermesh/sql/ledgerdb"
	"github.com/ledgermesh/go-ledgermesh/syncer"
	"github.com/ledgermesh/go-ledgermesh/syncer/mocks"
)

type tester struct {
	syncer  *syncer.Syncer
	store   *ledger.Store
	fetcher *mocks.Mockfetcher
	signer  *signing.EdSigner
}

func newTester(t *testing.T) *tester {
	t.Helper()
	ctrl := gomock.NewController(t)
	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	db := ledgerdb.InMemory()
	t.Cleanup(func() { db.Close() })
	store := ledger.New(signer.Peer(), db, ledger.WithLogger(logtest.New(t)))
	fetcher := mocks.NewMockfetcher(ctrl)
	return &tester{
		syncer:  syncer.New(store, fetcher, syncer.WithLogger(logtest.New(t))),
		store:   store,
		fetcher: fetcher,
		signer:  signer,
	}
}

func TestRecoverFallsBackToCachedHolder(t *testing.T) {
	tester := newTester(t)
	ctx := context.Background()

	bob, err := signing.NewEdSigner()
	require.NoError(t, err)
	carol, err := signing.NewEdSigner()
	require.NoError(t, err)
	tx := signedTx(t, []*signing.EdSigner{tester.signer, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)

	findings := map[p2p.Peer]*syncer.Findings{
		bob.Peer(): {Peer: bob.Peer(), MissingHere: []types.TransactionID{tx.ID()}},
	}

	// the peer that reported the transaction stopped answering
	tester.fetcher.EXPECT().
		GetTransactions(gomock.Any(), bob.Peer(), gomock.Any()).
		Return(nil, errors.New("stream reset")).
		Times(2)
	// a cached holder serves it instead
	tester.fetcher.EXPECT().
		PeersForTransaction(tx.ID()).
		Return([]p2p.Peer{carol.Peer()})
	tester.fetcher.EXPECT().
		SelectBestFrom([]p2p.Peer{carol.Peer()}).
		Return(carol.Peer())
	tester.fetcher.EXPECT().
		GetTransactions(gomock.Any(), carol.Peer(), []types.TransactionID{tx.ID()}).
		Return([]types.Transaction{*tx}, nil)

	report, err := tester.syncer.Recover(ctx, findings)
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{tx.ID()}, report.Admitted)
	require.True(t, report.Complete())
}

func TestRecoverProbesOtherSourcesWithPeek(t *testing.T) {
	tester := newTester(t)
	ctx := context.Background()

	bob, err := signing.NewEdSigner()
	require.NoError(t, err)
	carol, err := signing.NewEdSigner()
	require.NoError(t, err)
	tx := signedTx(t, []*signing.EdSigner{tester.signer, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)

	findings := map[p2p.Peer]*syncer.Findings{
		bob.Peer():   {Peer: bob.Peer(), MissingHere: []types.TransactionID{tx.ID()}},
		carol.Peer(): {Peer: carol.Peer()},
	}

	tester.fetcher.EXPECT().
		GetTransactions(gomock.Any(), bob.Peer(), gomock.Any()).
		Return(nil, errors.New("stream reset")).
		Times(2)
	tester.fetcher.EXPECT().
		PeersForTransaction(tx.ID()).
		Return(nil)
	tester.fetcher.EXPECT().
		Peek(gomock.Any(), carol.Peer(), []types.TransactionID{tx.ID()}).
		Return([]types.TransactionID{tx.ID()}, nil)
	tester.fetcher.EXPECT().
		GetTransactions(gomock.Any(), carol.Peer(), []types.TransactionID{tx.ID()}).
		Return([]types.Transaction{*tx}, nil)

	report, err := tester.syncer.Recover(ctx, findings)
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{tx.ID()}, report.Admitted)
}

func TestRecoverIsolatesVerificationFailure(t *testing.T) {
	tester := newTester(t)
	ctx := context.Background()

	bob, err := signing.NewEdSigner()
	require.NoError(t, err)
	good := signedTx(t, []*signing.EdSigner{tester.signer, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 1)
	bad := signedTx(t, []*signing.EdSigner{tester.signer, bob}, nil,
		[]types.Produced{{Entry: types.RandomEntryID()}}, 2)
	bad.Signatures[1][0] ^= 0xff

	findings := map[p2p.Peer]*syncer.Findings{
		bob.Peer(): {
			Peer:        bob.Peer(),
			MissingHere: []types.TransactionID{good.ID(), bad.ID()},
		},
	}

	tester.fetcher.EXPECT().
		GetTransactions(gomock.Any(), bob.Peer(), gomock.Any()).
		Return([]types.Transaction{*good, *bad}, nil)

	// the tampered transaction is rejected, the healthy one still lands
	report, err := tester.syncer.Recover(ctx, findings)
	require.NoError(t, err)
	require.Equal(t, []types.TransactionID{good.ID()}, report.Admitted)
	require.False(t, report.Complete())
	require.ErrorIs(t, report.Failed[bad.ID()], ledger.ErrVerificationFailed)
	require.ErrorIs(t, report.Peers[bob.Peer()].Failed[bad.ID()], ledger.ErrVerificationFailed)

	has, err := tester.store.Has(bad.ID())
	require.NoError(t, err)
	require.False(t, has)
}

func TestRecoverReportsUnresolvable(t *testing.T) {
	tester := newTester(t)
	ctx := context.Background()

	bob, err := signing.NewEdSigner()
	require.NoError(t, err)
	id := types.RandomTransactionID()
	findings := map[p2p.Peer]*syncer.Findings{
		bob.Peer(): {Peer: bob.Peer(), MissingHere: []types.TransactionID{id}},
	}

	tester.fetcher.EXPECT().
		GetTransactions(gomock.Any(), bob.Peer(), gomock.Any()).
		Return(nil, nil).
		Times(2)
	tester.fetcher.EXPECT().
		PeersForTransaction(id).
		Return(nil)

	report, err := tester.syncer.Recover(ctx, findings)
	require.NoError(t, err)
	require.Empty(t, report.Admitted)
	require.ErrorIs(t, report.Failed[id], syncer.ErrDependencyUnresolved)
}
