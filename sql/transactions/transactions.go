// Package transactions stores admitted transactions and the index of
// parties involved in each of them.
package transactions

import (
	"fmt"
	"time"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
	"github.com/ledgermesh/go-ledgermesh/sql"
)

// Add transaction to the database. Returns sql.ErrObjectExists if the
// transaction is already stored.
func Add(db sql.Executor, tx *types.Transaction, received time.Time) error {
	buf, err := codec.Encode(tx)
	if err != nil {
		return fmt.Errorf("encode %s: %w", tx.ID(), err)
	}
	id := tx.ID()
	if _, err := db.Exec(`insert into transactions (id, tx, received) values (?1, ?2, ?3);`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
			stmt.BindBytes(2, buf)
			stmt.BindInt64(3, received.UnixNano())
		}, nil); err != nil {
		return fmt.Errorf("insert %s: %w", id, err)
	}
	for _, party := range tx.Body.Parties {
		if _, err := db.Exec(`insert or ignore into tx_parties (tid, peer) values (?1, ?2);`,
			func(stmt *sql.Statement) {
				stmt.BindBytes(1, id.Bytes())
				stmt.BindBytes(2, []byte(party))
			}, nil); err != nil {
			return fmt.Errorf("index party %s: %w", id, err)
		}
	}
	return nil
}

// Has returns true if the transaction is stored.
func Has(db sql.Executor, id types.TransactionID) (bool, error) {
	rows, err := db.Exec("select 1 from transactions where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, nil)
	if err != nil {
		return false, fmt.Errorf("has %s: %w", id, err)
	}
	return rows > 0, nil
}

// Get transaction by id. Returns sql.ErrNotFound if it is not stored.
func Get(db sql.Executor, id types.TransactionID) (*types.Transaction, error) {
	var (
		tx     types.Transaction
		decErr error
		rows   int
	)
	rows, err := db.Exec("select tx from transactions where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		},
		func(stmt *sql.Statement) bool {
			buf := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, buf)
			decErr = codec.Decode(buf, &tx)
			return false
		})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("get %s: %w", id, sql.ErrNotFound)
	}
	if decErr != nil {
		return nil, fmt.Errorf("decode %s: %w", id, decErr)
	}
	return &tx, nil
}

// GetBlob loads the raw encoded transaction into the blob.
// Returns sql.ErrNotFound if the transaction is not stored.
func GetBlob(db sql.Executor, id types.TransactionID, blob *sql.Blob) error {
	rows, err := db.Exec("select tx from transactions where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		},
		func(stmt *sql.Statement) bool {
			blob.FromColumn(stmt, 0)
			return false
		})
	if err != nil {
		return fmt.Errorf("get blob %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("get blob %s: %w", id, sql.ErrNotFound)
	}
	return nil
}

// IDsInvolving returns the sorted ids of stored transactions that involve
// both peers.
func IDsInvolving(db sql.Executor, a, b p2p.Peer) ([]types.TransactionID, error) {
	var ids []types.TransactionID
	if _, err := db.Exec(`select tid from tx_parties where peer = ?1
		intersect select tid from tx_parties where peer = ?2 order by tid;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, []byte(a))
			stmt.BindBytes(2, []byte(b))
		},
		func(stmt *sql.Statement) bool {
			var id types.TransactionID
			stmt.ColumnBytes(0, id[:])
			ids = append(ids, id)
			return true
		}); err != nil {
		return nil, fmt.Errorf("ids involving: %w", err)
	}
	return ids, nil
}

// KnownPeers returns the distinct parties, other than self, that appear
// in stored transactions.
func KnownPeers(db sql.Executor, self p2p.Peer) ([]p2p.Peer, error) {
	var peers []p2p.Peer
	if _, err := db.Exec("select distinct peer from tx_parties where peer != ?1 order by peer;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, []byte(self))
		},
		func(stmt *sql.Statement) bool {
			buf := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, buf)
			peers = append(peers, p2p.Peer(buf))
			return true
		}); err != nil {
		return nil, fmt.Errorf("known peers: %w", err)
	}
	return peers, nil
}

// Count returns the number of stored transactions.
func Count(db sql.Executor) (int, error) {
	var count int
	if _, err := db.Exec("select count(1) from transactions;", nil,
		func(stmt *sql.Statement) bool {
			count = int(stmt.ColumnInt64(0))
			return true
		}); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

// Delete removes the transaction and its party index.
func Delete(db sql.Executor, id types.TransactionID) error {
	if _, err := db.Exec("delete from transactions where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, nil); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if _, err := db.Exec("delete from tx_parties where tid = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, nil); err != nil {
		return fmt.Errorf("delete parties %s: %w", id, err)
	}
	return nil
}
