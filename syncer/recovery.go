package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/log"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// ErrDependencyUnresolved is returned when a missing transaction cannot be
// admitted because one of its dependencies cannot be obtained from any
// reachable source.
var ErrDependencyUnresolved = errors.New("syncer: dependency unresolved")

// Recover fetches and admits every transaction the findings report as
// missing locally. Dependencies are admitted before their dependents, and
// a transaction that fails to verify or whose dependency chain cannot be
// completed is recorded in the report without aborting recovery of the
// rest. Recovery is idempotent: transactions admitted in the meantime are
// skipped.
func (s *Syncer) Recover(ctx context.Context, findings map[p2p.Peer]*Findings) (*RecoveryReport, error) {
	report := newRecoveryReport()
	sources := make([]p2p.Peer, 0, len(findings))
	for peer := range findings {
		sources = append(sources, peer)
	}
	// deterministic peer order regardless of map iteration
	slices.SortFunc(sources, func(a, b p2p.Peer) int {
		return bytes.Compare([]byte(a), []byte(b))
	})
	for _, peer := range sources {
		f := findings[peer]
		if f == nil || len(f.MissingHere) == 0 {
			continue
		}
		if err := s.recoverFromPeer(ctx, peer, f.MissingHere, sources, report); err != nil {
			return report, err
		}
	}
	s.logger.Info("recovery finished", log.ZContext(ctx), zap.Object("report", report))
	return report, nil
}

func (s *Syncer) recoverFromPeer(
	ctx context.Context,
	peer p2p.Peer,
	missing []types.TransactionID,
	sources []p2p.Peer,
	report *RecoveryReport,
) error {
	byID := make(map[types.TransactionID]*types.Transaction, len(missing))
	txs, err := s.fetcher.GetTransactions(ctx, peer, missing)
	if err != nil {
		s.logger.Warn("fetching missing transactions failed",
			log.ZContext(ctx),
			zap.Stringer("peer", peer),
			zap.Error(err),
		)
	} else {
		for i := range txs {
			byID[txs[i].ID()] = &txs[i]
		}
	}
	for _, id := range missing {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// possibly admitted already as a dependency of an earlier chain
		// or during recovery from another peer
		if exists, err := s.store.Has(id); err != nil {
			return err
		} else if exists {
			report.resolved(id)
			continue
		}
		tx, ok := byID[id]
		if !ok {
			tx, err = s.fetchTx(ctx, id, peer, sources)
			if err != nil {
				report.failed(peer, id, err)
				recoveryFailed.Inc()
				continue
			}
		}
		visiting := map[types.TransactionID]struct{}{}
		if err := s.admitChain(ctx, tx, peer, sources, visiting, report); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.failed(peer, id, err)
			recoveryFailed.Inc()
			continue
		}
		report.resolved(id)
	}
	return nil
}

// admitChain admits the transaction after recursively admitting its
// missing dependencies. The visiting set guards against dependency cycles,
// which cannot occur for honestly derived content ids but must not hang
// recovery when a peer fabricates them.
func (s *Syncer) admitChain(
	ctx context.Context,
	tx *types.Transaction,
	source p2p.Peer,
	sources []p2p.Peer,
	visiting map[types.TransactionID]struct{},
	report *RecoveryReport,
) error {
	id := tx.ID()
	if exists, err := s.store.Has(id); err != nil {
		return err
	} else if exists {
		return nil
	}
	if _, ok := visiting[id]; ok {
		return fmt.Errorf("%w: dependency cycle at %s", ErrDependencyUnresolved, id.ShortString())
	}
	visiting[id] = struct{}{}
	defer delete(visiting, id)
	for _, dep := range tx.Dependencies() {
		if exists, err := s.store.Has(dep); err != nil {
			return err
		} else if exists {
			continue
		}
		depTx, err := s.fetchTx(ctx, dep, source, sources)
		if err != nil {
			return fmt.Errorf("%w: %s needs %s: %w",
				ErrDependencyUnresolved, id.ShortString(), dep.ShortString(), err)
		}
		if err := s.admitChain(ctx, depTx, source, sources, visiting, report); err != nil {
			return err
		}
	}
	if err := s.store.Admit(ctx, tx); err != nil {
		return err
	}
	report.admitted(source, id)
	recoveredTotal.Inc()
	s.logger.Debug("recovered transaction", log.ZContext(ctx), zap.Object("tx", tx))
	return nil
}

// fetchTx obtains a single transaction, trying the preferred source first,
// then peers cached as holders of the hash, then the remaining recovery
// sources that confirm holding it via peek.
func (s *Syncer) fetchTx(
	ctx context.Context,
	id types.TransactionID,
	preferred p2p.Peer,
	sources []p2p.Peer,
) (*types.Transaction, error) {
	tried := map[p2p.Peer]struct{}{}
	var errs []error
	try := func(peer p2p.Peer) (*types.Transaction, bool) {
		if _, ok := tried[peer]; ok {
			return nil, false
		}
		tried[peer] = struct{}{}
		txs, err := s.fetcher.GetTransactions(ctx, peer, []types.TransactionID{id})
		if err != nil {
			errs = append(errs, err)
			return nil, false
		}
		for i := range txs {
			if txs[i].ID() == id {
				return &txs[i], true
			}
		}
		return nil, false
	}
	if tx, ok := try(preferred); ok {
		return tx, nil
	}
	candidates := s.fetcher.PeersForTransaction(id)
	for len(candidates) > 0 {
		best := s.fetcher.SelectBestFrom(candidates)
		if p2p.IsNoPeer(best) {
			best = candidates[0]
		}
		if tx, ok := try(best); ok {
			return tx, nil
		}
		candidates = slices.DeleteFunc(candidates, func(p p2p.Peer) bool { return p == best })
	}
	for _, peer := range sources {
		if _, ok := tried[peer]; ok {
			continue
		}
		have, err := s.fetcher.Peek(ctx, peer, []types.TransactionID{id})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !slices.Contains(have, id) {
			continue
		}
		if tx, ok := try(peer); ok {
			return tx, nil
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no source for %s", ErrDependencyUnresolved, id.ShortString())
	}
	return nil, fmt.Errorf("%w: no source for %s: %w",
		ErrDependencyUnresolved, id.ShortString(), errors.Join(errs...))
}
