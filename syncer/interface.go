package syncer

import (
	"context"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

//go:generate mockgen -typed -package=mocks -destination=./mocks/mocks.go -source=./interface.go

// fetcher is the part of the fetch service used during synchronization
// and recovery.
type fetcher interface {
	PeerIDSet(context.Context, p2p.Peer) ([]types.TransactionID, error)
	GetTransactions(context.Context, p2p.Peer, []types.TransactionID) ([]types.Transaction, error)
	Peek(context.Context, p2p.Peer, []types.TransactionID) ([]types.TransactionID, error)
	PeersForTransaction(types.TransactionID) []p2p.Peer
	SelectBestFrom([]p2p.Peer) p2p.Peer
}

// store is the part of the local ledger used during synchronization and
// recovery.
type store interface {
	IDsInvolving(p2p.Peer) ([]types.TransactionID, error)
	Has(types.TransactionID) (bool, error)
	Admit(context.Context, *types.Transaction) error
	KnownPeers() ([]p2p.Peer, error)
}
