package fetch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/log"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/sql"
)

// handleIDSetReq answers with this node's ids of transactions involving
// both the requester and this node. The requester's own set, carried in
// the request, is recorded in the hash-to-peers cache since the requester
// evidently holds those transactions.
func (f *Fetch) handleIDSetReq(ctx context.Context, remote p2p.Peer, data []byte) ([]byte, error) {
	var req IDSetRequest
	if err := codec.Decode(data, &req); err != nil {
		return nil, fmt.Errorf("decode id set request: %w", err)
	}
	f.RegisterPeerHashes(remote, types.TransactionIDsToHashes(req.IDs))
	ids, err := f.store.IDsInvolving(remote)
	if err != nil {
		return nil, fmt.Errorf("load id set: %w", err)
	}
	f.logger.Debug("served id set",
		log.ZContext(ctx),
		zap.Stringer("remote", remote),
		zap.Int("count", len(ids)),
	)
	return codec.MustEncode(&IDSetResponse{IDs: ids}), nil
}

// handleTxReq answers with the stored encodings of the requested
// transactions this node holds, without decoding them. Unknown ids are
// omitted rather than reported as errors, so a single request can cover
// ids the requester is merely probing for.
func (f *Fetch) handleTxReq(ctx context.Context, remote p2p.Peer, data []byte) ([]byte, error) {
	var req TxRequest
	if err := codec.Decode(data, &req); err != nil {
		return nil, fmt.Errorf("decode tx request: %w", err)
	}
	resp := TxResponse{Blobs: make([][]byte, 0, len(req.IDs))}
	for _, id := range req.IDs {
		blob, err := f.store.TransactionBlob(id)
		switch {
		case errors.Is(err, sql.ErrNotFound):
			continue
		case err != nil:
			return nil, fmt.Errorf("load %s: %w", id.ShortString(), err)
		}
		resp.Blobs = append(resp.Blobs, blob)
	}
	f.logger.Debug("served transactions",
		log.ZContext(ctx),
		zap.Stringer("remote", remote),
		zap.Int("requested", len(req.IDs)),
		zap.Int("served", len(resp.Blobs)),
	)
	return codec.MustEncode(&resp), nil
}

// handlePeekReq answers with the subset of requested ids this node holds.
func (f *Fetch) handlePeekReq(ctx context.Context, remote p2p.Peer, data []byte) ([]byte, error) {
	var req PeekRequest
	if err := codec.Decode(data, &req); err != nil {
		return nil, fmt.Errorf("decode peek request: %w", err)
	}
	resp := PeekResponse{Have: make([]types.TransactionID, 0, len(req.IDs))}
	for _, id := range req.IDs {
		exists, err := f.store.Has(id)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", id.ShortString(), err)
		}
		if exists {
			resp.Have = append(resp.Have, id)
		}
	}
	f.logger.Debug("served peek",
		log.ZContext(ctx),
		zap.Stringer("remote", remote),
		zap.Int("requested", len(req.IDs)),
		zap.Int("held", len(resp.Have)),
	)
	return codec.MustEncode(&resp), nil
}
