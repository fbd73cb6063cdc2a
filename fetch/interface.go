package fetch

import (
	"context"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

//go:generate mockgen -typed -package=mocks -destination=./mocks/mocks.go -source=./interface.go

type requester interface {
	Run(context.Context) error
	Request(context.Context, p2p.Peer, []byte) ([]byte, error)
}

// store is the part of the ledger served to other peers. Transfers serve
// the stored encoding directly, without a decode and re-encode round.
type store interface {
	IDsInvolving(p2p.Peer) ([]types.TransactionID, error)
	Has(types.TransactionID) (bool, error)
	TransactionBlob(types.TransactionID) ([]byte, error)
}
