package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
)

func testBody(t *testing.T) types.TransactionBody {
	t.Helper()
	a, err := signing.NewEdSigner()
	require.NoError(t, err)
	b, err := signing.NewEdSigner()
	require.NoError(t, err)
	seed := types.RandomHash()
	return types.TransactionBody{
		Parties: []p2p.Peer{a.Peer(), b.Peer()},
		Inputs: []types.Consumed{
			{Entry: types.DeriveEntryID(seed, 0), Prev: types.RandomTransactionID()},
		},
		Outputs: []types.Produced{
			{Entry: types.DeriveEntryID(seed, 1), Payload: types.RandomBytes(64)},
		},
		Nonce: 7,
	}
}

func TestTransactionIDIsContentDerived(t *testing.T) {
	body := testBody(t)
	id1 := types.CalcTransactionID(&body)
	id2 := types.CalcTransactionID(&body)
	require.Equal(t, id1, id2)

	changed := body
	changed.Nonce++
	require.NotEqual(t, id1, types.CalcTransactionID(&changed))
}

func TestTransactionIDIgnoresSignatures(t *testing.T) {
	body := testBody(t)
	tx1 := &types.Transaction{Body: body}
	tx2 := &types.Transaction{Body: body, Signatures: []types.EdSignature{{1}, {2}}}
	require.Equal(t, tx1.ID(), tx2.ID())
}

func TestDependencies(t *testing.T) {
	dep1 := types.RandomTransactionID()
	dep2 := types.RandomTransactionID()
	tx := &types.Transaction{
		Body: types.TransactionBody{
			Inputs: []types.Consumed{
				{Entry: types.RandomEntryID(), Prev: dep1},
				{Entry: types.RandomEntryID(), Prev: dep2},
				{Entry: types.RandomEntryID(), Prev: dep1},
				{Entry: types.RandomEntryID(), Prev: types.EmptyTransactionID},
			},
		},
	}
	deps := tx.Dependencies()
	require.Len(t, deps, 2)
	require.Equal(t, types.SortTransactionIDs([]types.TransactionID{dep1, dep2}), deps)
}

func TestInvolves(t *testing.T) {
	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	other, err := signing.NewEdSigner()
	require.NoError(t, err)
	tx := &types.Transaction{
		Body: types.TransactionBody{Parties: []p2p.Peer{signer.Peer()}},
	}
	require.True(t, tx.Involves(signer.Peer()))
	require.False(t, tx.Involves(other.Peer()))
}

func TestTransactionCodecRoundtrip(t *testing.T) {
	tx := &types.Transaction{Body: testBody(t)}
	tx.Signatures = []types.EdSignature{{1, 2, 3}, {4, 5, 6}}

	data, err := codec.Encode(tx)
	require.NoError(t, err)

	var decoded types.Transaction
	require.NoError(t, codec.Decode(data, &decoded))
	require.Equal(t, tx.Body, decoded.Body)
	require.Equal(t, tx.Signatures, decoded.Signatures)
	require.Equal(t, tx.ID(), decoded.ID())
}
