// Package fetch exchanges ledger data with remote peers. It serves and
// consumes three request/response protocols: id set exchange, transaction
// download and peek (holdings check without transfer).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/fetch/peers"
	"github.com/ledgermesh/go-ledgermesh/log"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/p2p/server"
)

const (
	// IDSetProtocol exchanges ids of transactions involving both peers.
	IDSetProtocol = "/ldgr/ids/1"
	// TxProtocol transfers full transactions by id.
	TxProtocol = "/ldgr/txs/1"
	// PeekProtocol checks which transactions a peer holds.
	PeekProtocol = "/ldgr/peek/1"
)

var (
	// ErrPeerUnreachable is returned when the peer cannot be reached or
	// does not answer within the configured timeout.
	ErrPeerUnreachable = errors.New("fetch: peer unreachable")
	// ErrProtocol is returned when the peer answers with malformed or
	// unverifiable data.
	ErrProtocol = errors.New("fetch: protocol violation")
)

// Config for the fetcher.
type Config struct {
	RequestTimeout      time.Duration `mapstructure:"request-timeout"`
	BatchSize           int           `mapstructure:"batch-size"`
	QueueSize           int           `mapstructure:"queue-size"`
	RequestsPerInterval int           `mapstructure:"requests-per-interval"`
	Interval            time.Duration `mapstructure:"interval"`
	CacheSize           int           `mapstructure:"cache-size"`
	ServerMetrics       bool          `mapstructure:"server-metrics"`
}

// DefaultConfig returns the default config.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:      10 * time.Second,
		BatchSize:           100,
		QueueSize:           1000,
		RequestsPerInterval: 100,
		Interval:            time.Second,
		CacheSize:           10000,
	}
}

// Fetch is the client and server side of the ledger data protocols.
type Fetch struct {
	cfg       Config
	logger    *zap.Logger
	store     store
	peers     *peers.Peers
	hashCache *HashPeersCache
	servers   map[string]requester

	mu      sync.Mutex
	eg      errgroup.Group
	cancel  context.CancelFunc
	started bool
}

// Opt to modify fetch behavior.
type Opt func(*Fetch)

// WithConfig overrides the default config.
func WithConfig(cfg Config) Opt {
	return func(f *Fetch) {
		f.cfg = cfg
	}
}

// WithLogger specifies logger for the fetcher.
func WithLogger(logger *zap.Logger) Opt {
	return func(f *Fetch) {
		f.logger = logger
	}
}

// withServers replaces protocol servers, for testing.
func withServers(servers map[string]requester) Opt {
	return func(f *Fetch) {
		f.servers = servers
	}
}

// NewFetch creates a fetcher serving the ledger behind store over the
// given host.
func NewFetch(h server.Host, store store, opts ...Opt) *Fetch {
	f := &Fetch{
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
		store:   store,
		peers:   peers.New(),
		servers: map[string]requester{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.hashCache = NewHashPeersCache(f.cfg.CacheSize)
	if len(f.servers) == 0 {
		srvOpts := []server.Opt{
			server.WithLog(f.logger),
			server.WithTimeout(f.cfg.RequestTimeout),
			server.WithQueueSize(f.cfg.QueueSize),
			server.WithRequestsPerInterval(f.cfg.RequestsPerInterval, f.cfg.Interval),
		}
		if f.cfg.ServerMetrics {
			srvOpts = append(srvOpts, server.WithMetrics())
		}
		f.servers[IDSetProtocol] = server.New(h, IDSetProtocol, f.handleIDSetReq, srvOpts...)
		f.servers[TxProtocol] = server.New(h, TxProtocol, f.handleTxReq, srvOpts...)
		f.servers[PeekProtocol] = server.New(h, PeekProtocol, f.handlePeekReq, srvOpts...)
	}
	return f
}

// Start the protocol servers. Idempotent.
func (f *Fetch) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return
	}
	f.started = true
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	for _, srv := range f.servers {
		f.eg.Go(func() error {
			return srv.Run(ctx)
		})
	}
}

// Stop stops serving and waits for the servers to exit.
func (f *Fetch) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return
	}
	f.cancel()
	f.eg.Wait()
	f.started = false
}

// PeerIDSet sends this node's ids of transactions involving the peer and
// returns the ids the peer holds for the pair.
func (f *Fetch) PeerIDSet(ctx context.Context, peer p2p.Peer) ([]types.TransactionID, error) {
	own, err := f.store.IDsInvolving(peer)
	if err != nil {
		return nil, err
	}
	var resp IDSetResponse
	if err := f.send(ctx, IDSetProtocol, peer, &IDSetRequest{IDs: own}, &resp); err != nil {
		return nil, err
	}
	f.RegisterPeerHashes(peer, types.TransactionIDsToHashes(resp.IDs))
	f.logger.Debug("peer id set received",
		log.ZContext(ctx),
		zap.Stringer("peer", peer),
		zap.Int("own", len(own)),
		zap.Int("theirs", len(resp.IDs)),
	)
	return resp.IDs, nil
}

// GetTransactions downloads the transactions with the given ids from the
// peer. Transactions the peer does not hold are omitted from the result.
// Returned transactions are verified to hash to one of the requested ids.
func (f *Fetch) GetTransactions(
	ctx context.Context,
	peer p2p.Peer,
	ids []types.TransactionID,
) ([]types.Transaction, error) {
	requested := make(map[types.TransactionID]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}
	result := make([]types.Transaction, 0, len(ids))
	for _, batch := range batches(ids, f.cfg.BatchSize) {
		var resp TxResponse
		if err := f.send(ctx, TxProtocol, peer, &TxRequest{IDs: batch}, &resp); err != nil {
			return nil, err
		}
		for _, blob := range resp.Blobs {
			var tx types.Transaction
			if err := codec.Decode(blob, &tx); err != nil {
				f.peers.OnFailure(peer)
				return nil, fmt.Errorf("%w: decode transaction from %s: %w", ErrProtocol, peer, err)
			}
			id := types.CalcTransactionID(&tx.Body)
			if _, ok := requested[id]; !ok {
				totalMismatched.Inc()
				f.peers.OnFailure(peer)
				return nil, fmt.Errorf("%w: peer %s sent unrequested transaction %s",
					ErrProtocol, peer, id.ShortString())
			}
			delete(requested, id)
			totalFetched.Inc()
			f.hashCache.Add(id.Hash32(), peer)
			result = append(result, tx)
		}
	}
	return result, nil
}

// Peek returns the subset of ids the peer reports holding, without
// transferring the transactions.
func (f *Fetch) Peek(ctx context.Context, peer p2p.Peer, ids []types.TransactionID) ([]types.TransactionID, error) {
	have := make([]types.TransactionID, 0, len(ids))
	for _, batch := range batches(ids, MaxIDSet) {
		var resp PeekResponse
		if err := f.send(ctx, PeekProtocol, peer, &PeekRequest{IDs: batch}, &resp); err != nil {
			return nil, err
		}
		have = append(have, resp.Have...)
	}
	f.RegisterPeerHashes(peer, types.TransactionIDsToHashes(have))
	return have, nil
}

// RegisterPeerHashes registers the peer as a holder of the hashes.
func (f *Fetch) RegisterPeerHashes(peer p2p.Peer, hashes []types.Hash32) {
	f.hashCache.RegisterPeerHashes(peer, hashes)
}

// PeersForTransaction returns the peers known to hold the transaction.
func (f *Fetch) PeersForTransaction(id types.TransactionID) []p2p.Peer {
	return f.hashCache.All(id.Hash32())
}

// SelectBestFrom returns the most responsive of the given peers.
func (f *Fetch) SelectBestFrom(candidates []p2p.Peer) p2p.Peer {
	return f.peers.SelectBestFrom(candidates)
}

// PeerStats returns responsiveness stats of tracked peers.
func (f *Fetch) PeerStats() peers.Stats {
	return f.peers.Stats()
}

func (f *Fetch) send(ctx context.Context, proto string, peer p2p.Peer, req codec.Encodable, resp codec.Decodable) error {
	srv, ok := f.servers[proto]
	if !ok {
		return fmt.Errorf("unknown protocol %s", proto)
	}
	f.peers.Add(peer)
	start := time.Now()
	data, err := srv.Request(ctx, peer, codec.MustEncode(req))
	if err != nil {
		f.peers.OnFailure(peer)
		if errors.Is(err, &server.ServerError{}) {
			return fmt.Errorf("%w: %s %s: %w", ErrProtocol, proto, peer, err)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrPeerUnreachable, proto, peer, err)
	}
	f.peers.OnLatency(peer, max(len(data), 1), time.Since(start))
	if err := codec.Decode(data, resp); err != nil {
		f.peers.OnFailure(peer)
		return fmt.Errorf("%w: decode %s response from %s: %w", ErrProtocol, proto, peer, err)
	}
	return nil
}

// batches splits the ids into chunks of at most size.
func batches(ids []types.TransactionID, size int) [][]types.TransactionID {
	var chunks [][]types.TransactionID
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
