// Package syncer detects divergence between the local ledger and remote
// peers and recovers missing transactions, admitting dependency chains
// before their dependents.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/log"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// Config for the syncer.
type Config struct {
	// SyncConcurrency bounds the number of peers queried in parallel.
	SyncConcurrency int `mapstructure:"sync-concurrency"`
	// RequestTimeout bounds a single exchange with one peer.
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

// DefaultConfig returns the default config.
func DefaultConfig() Config {
	return Config{
		SyncConcurrency: 8,
		RequestTimeout:  20 * time.Second,
	}
}

// Syncer compares the local ledger with remote peers and drives recovery.
type Syncer struct {
	logger  *zap.Logger
	cfg     Config
	fetcher fetcher
	store   store
}

// Opt to modify syncer behavior.
type Opt func(*Syncer)

// WithLogger specifies logger for the syncer.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// WithConfig overrides the default config.
func WithConfig(cfg Config) Opt {
	return func(s *Syncer) {
		s.cfg = cfg
	}
}

// New creates a syncer over the local store and the fetch service.
func New(store store, fetcher fetcher, opts ...Opt) *Syncer {
	s := &Syncer{
		logger:  zap.NewNop(),
		cfg:     DefaultConfig(),
		store:   store,
		fetcher: fetcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync exchanges id sets with the given peers concurrently and returns
// per-peer findings. A failure with one peer does not prevent findings
// for the others; all per-peer errors are joined into the returned error
// alongside the partial results.
func (s *Syncer) Sync(ctx context.Context, peers []p2p.Peer) (map[p2p.Peer]*Findings, error) {
	var (
		mu       sync.Mutex
		findings = make(map[p2p.Peer]*Findings, len(peers))
		errs     []error
	)
	var eg errgroup.Group
	eg.SetLimit(s.cfg.SyncConcurrency)
	for _, peer := range peers {
		eg.Go(func() error {
			f, err := s.syncPeer(ctx, peer)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				syncFailed.Inc()
				errs = append(errs, fmt.Errorf("peer %s: %w", peer, err))
				return nil
			}
			syncSucceeded.Inc()
			findings[peer] = f
			return nil
		})
	}
	eg.Wait()
	return findings, errors.Join(errs...)
}

func (s *Syncer) syncPeer(ctx context.Context, peer p2p.Peer) (*Findings, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	ours, err := s.store.IDsInvolving(peer)
	if err != nil {
		return nil, err
	}
	theirs, err := s.fetcher.PeerIDSet(ctx, peer)
	if err != nil {
		return nil, err
	}
	f := &Findings{Peer: peer}
	f.MissingHere, f.MissingThere = diffIDs(ours, theirs)
	s.logger.Debug("synced with peer", log.ZContext(ctx), zap.Object("findings", f))
	return f, nil
}

// Evaluate classifies the local ledger's consistency against each peer:
// true when both sides hold the same shared transactions.
func (s *Syncer) Evaluate(ctx context.Context, peers []p2p.Peer) (map[p2p.Peer]bool, error) {
	findings, err := s.Sync(ctx, peers)
	consistent := make(map[p2p.Peer]bool, len(findings))
	for peer, f := range findings {
		consistent[peer] = f.Consistent()
	}
	return consistent, err
}

// SyncAndRecover synchronizes with the given peers and recovers all
// transactions found missing locally. With no peers given, the scope
// defaults to every peer that appears in the local ledger.
func (s *Syncer) SyncAndRecover(
	ctx context.Context,
	peers ...p2p.Peer,
) (map[p2p.Peer]*Findings, *RecoveryReport, error) {
	if len(peers) == 0 {
		known, err := s.store.KnownPeers()
		if err != nil {
			return nil, nil, err
		}
		peers = known
	}
	findings, syncErr := s.Sync(ctx, peers)
	report, err := s.Recover(ctx, findings)
	if err != nil {
		return findings, report, errors.Join(syncErr, err)
	}
	return findings, report, syncErr
}

// diffIDs computes the two sides of the symmetric difference, sorted.
func diffIDs(ours, theirs []types.TransactionID) (missingHere, missingThere []types.TransactionID) {
	ourSet := make(map[types.TransactionID]struct{}, len(ours))
	for _, id := range ours {
		ourSet[id] = struct{}{}
	}
	theirSet := make(map[types.TransactionID]struct{}, len(theirs))
	for _, id := range theirs {
		theirSet[id] = struct{}{}
	}
	for _, id := range theirs {
		if _, ok := ourSet[id]; !ok {
			missingHere = append(missingHere, id)
		}
	}
	for _, id := range ours {
		if _, ok := theirSet[id]; !ok {
			missingThere = append(missingThere, id)
		}
	}
	types.SortTransactionIDs(missingHere)
	types.SortTransactionIDs(missingThere)
	return missingHere, missingThere
}
