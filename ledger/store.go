// Package ledger implements the node's transactional ledger store.
//
// A transaction is admitted atomically after its signatures and entry
// state transitions verify. Admission is idempotent, so replaying a
// transaction that is already stored is a no-op.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/log"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/signing"
	"github.com/ledgermesh/go-ledgermesh/sql"
	"github.com/ledgermesh/go-ledgermesh/sql/entries"
	"github.com/ledgermesh/go-ledgermesh/sql/ledgerdb"
	"github.com/ledgermesh/go-ledgermesh/sql/transactions"
)

// ErrVerificationFailed is returned when a transaction does not pass
// signature or entry state verification.
var ErrVerificationFailed = errors.New("transaction verification failed")

// Store is the transactional ledger of a single node.
type Store struct {
	logger   *zap.Logger
	db       *ledgerdb.Database
	self     p2p.Peer
	verifier *signing.EdVerifier
}

// Opt for configuring the store.
type Opt func(*Store)

// WithLogger configures the logger for the store.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a ledger store owned by the given peer.
func New(self p2p.Peer, db *ledgerdb.Database, opts ...Opt) *Store {
	s := &Store{
		logger:   zap.NewNop(),
		db:       db,
		self:     self,
		verifier: signing.NewEdVerifier(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Self returns the peer that owns this ledger.
func (s *Store) Self() p2p.Peer {
	return s.self
}

// IDsInvolving returns the sorted ids of stored transactions that involve
// both this node and the given peer. This is the id set exchanged during
// synchronization: divergence is only judged over transactions both sides
// are expected to hold.
func (s *Store) IDsInvolving(peer p2p.Peer) ([]types.TransactionID, error) {
	return transactions.IDsInvolving(s.db, s.self, peer)
}

// Has returns true if the transaction is admitted.
func (s *Store) Has(id types.TransactionID) (bool, error) {
	return transactions.Has(s.db, id)
}

// Transaction returns an admitted transaction by id.
// Returns an error wrapping sql.ErrNotFound if it is not admitted.
func (s *Store) Transaction(id types.TransactionID) (*types.Transaction, error) {
	return transactions.Get(s.db, id)
}

// TransactionBlob returns the stored encoding of an admitted transaction
// without decoding it, for serving transfer requests.
// Returns an error wrapping sql.ErrNotFound if it is not admitted.
func (s *Store) TransactionBlob(id types.TransactionID) ([]byte, error) {
	var blob sql.Blob
	if err := transactions.GetBlob(s.db, id, &blob); err != nil {
		return nil, err
	}
	return blob.Bytes, nil
}

// Entry returns the current state of a ledger entry.
// Returns an error wrapping sql.ErrNotFound if no admitted transaction
// produced it.
func (s *Store) Entry(id types.EntryID) (*types.LedgerEntry, error) {
	head, err := entries.Head(s.db, id)
	if err != nil {
		return nil, err
	}
	return &types.LedgerEntry{ID: id, Head: head}, nil
}

// Count returns the number of admitted transactions.
func (s *Store) Count() (int, error) {
	return transactions.Count(s.db)
}

// KnownPeers returns every party, other than this node, that appears in
// admitted transactions.
func (s *Store) KnownPeers() ([]p2p.Peer, error) {
	return transactions.KnownPeers(s.db, s.self)
}

// Admit verifies and stores the transaction atomically. Either the
// transaction row, the party index and all entry transitions are applied,
// or none of them are. Admitting an already stored transaction is a no-op.
func (s *Store) Admit(ctx context.Context, tx *types.Transaction) error {
	id := tx.ID()
	if exists, err := s.Has(id); err != nil {
		return err
	} else if exists {
		admittedDuplicate.Inc()
		return nil
	}
	if err := s.verify(tx); err != nil {
		admittedFailure.Inc()
		return err
	}
	var duplicate bool
	err := s.db.WithTxImmediate(ctx, func(dbtx *sql.Tx) error {
		// the duplicate check and the head checks are repeated inside the
		// write transaction: a concurrent admission of the same transaction
		// may have committed since the fast path check above
		if exists, err := transactions.Has(dbtx, id); err != nil {
			return err
		} else if exists {
			duplicate = true
			return nil
		}
		if err := s.verifyHeads(dbtx, tx); err != nil {
			return err
		}
		if err := transactions.Add(dbtx, tx, time.Now()); err != nil {
			return err
		}
		return applyTransitions(dbtx, tx)
	})
	if err != nil {
		admittedFailure.Inc()
		return fmt.Errorf("admit %s: %w", id, err)
	}
	if duplicate {
		admittedDuplicate.Inc()
		return nil
	}
	admittedTotal.Inc()
	s.logger.Debug("transaction admitted",
		log.ZContext(ctx),
		zap.Stringer("tid", id),
		zap.Int("inputs", len(tx.Body.Inputs)),
		zap.Int("outputs", len(tx.Body.Outputs)),
	)
	return nil
}

// verify checks the structural and signature validity of the transaction.
func (s *Store) verify(tx *types.Transaction) error {
	body := &tx.Body
	if len(body.Parties) == 0 {
		return fmt.Errorf("%w: no parties", ErrVerificationFailed)
	}
	if len(body.Parties) > types.MaxParties {
		return fmt.Errorf("%w: %d parties exceed limit", ErrVerificationFailed, len(body.Parties))
	}
	if len(tx.Signatures) != len(body.Parties) {
		return fmt.Errorf("%w: %d signatures for %d parties",
			ErrVerificationFailed, len(tx.Signatures), len(body.Parties))
	}
	digest := tx.SigningDigest()
	for i, party := range body.Parties {
		if !s.verifier.Verify(party, digest, tx.Signatures[i]) {
			return fmt.Errorf("%w: invalid signature by %s", ErrVerificationFailed, party)
		}
	}
	return nil
}

// verifyHeads checks that every consumed entry is at the expected head.
func (s *Store) verifyHeads(db sql.Executor, tx *types.Transaction) error {
	for _, in := range tx.Body.Inputs {
		head, err := entries.Head(db, in.Entry)
		switch {
		case errors.Is(err, sql.ErrNotFound):
			if in.Prev != types.EmptyTransactionID {
				return fmt.Errorf("%w: entry %s expects head %s, not yet produced",
					ErrVerificationFailed, in.Entry, in.Prev.ShortString())
			}
		case err != nil:
			return err
		case head != in.Prev:
			return fmt.Errorf("%w: entry %s at head %s, expected %s",
				ErrVerificationFailed, in.Entry, head.ShortString(), in.Prev.ShortString())
		}
	}
	for _, out := range tx.Body.Outputs {
		if _, err := entries.Head(db, out.Entry); err == nil {
			return fmt.Errorf("%w: produced entry %s already exists", ErrVerificationFailed, out.Entry)
		} else if !errors.Is(err, sql.ErrNotFound) {
			return err
		}
	}
	return nil
}

func applyTransitions(db sql.Executor, tx *types.Transaction) error {
	id := tx.ID()
	for _, in := range tx.Body.Inputs {
		if err := entries.AddHistory(db, in.Entry, id, in.Prev); err != nil {
			return err
		}
		if err := entries.SetHead(db, in.Entry, id); err != nil {
			return err
		}
	}
	for _, out := range tx.Body.Outputs {
		if err := entries.AddHistory(db, out.Entry, id, types.EmptyTransactionID); err != nil {
			return err
		}
		if err := entries.SetHead(db, out.Entry, id); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes an admitted transaction and rewinds the heads of the
// entries it touched. It exists to simulate data loss in tests and
// recovery drills and performs no dependency checks beyond rewinding
// heads that still point at the purged transaction.
func (s *Store) Purge(ctx context.Context, id types.TransactionID) error {
	tx, err := s.Transaction(id)
	if err != nil {
		return err
	}
	err = s.db.WithTxImmediate(ctx, func(dbtx *sql.Tx) error {
		if err := transactions.Delete(dbtx, id); err != nil {
			return err
		}
		for _, in := range tx.Body.Inputs {
			if err := entries.RewindHistory(dbtx, in.Entry, id); err != nil {
				return err
			}
		}
		for _, out := range tx.Body.Outputs {
			if err := entries.RewindHistory(dbtx, out.Entry, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("purge %s: %w", id, err)
	}
	s.logger.Debug("transaction purged", log.ZContext(ctx), zap.Stringer("tid", id))
	return nil
}
