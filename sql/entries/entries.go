// Package entries tracks ledger entry heads and their per-entry
// transaction history.
package entries

import (
	"fmt"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/sql"
)

// Head returns the id of the latest transaction that touched the entry.
// Returns sql.ErrNotFound for an entry without history.
func Head(db sql.Executor, entry types.EntryID) (types.TransactionID, error) {
	var head types.TransactionID
	rows, err := db.Exec("select head from entries where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, entry.Bytes())
		},
		func(stmt *sql.Statement) bool {
			stmt.ColumnBytes(0, head[:])
			return true
		})
	if err != nil {
		return head, fmt.Errorf("head %s: %w", entry, err)
	}
	if rows == 0 {
		return head, fmt.Errorf("head %s: %w", entry, sql.ErrNotFound)
	}
	return head, nil
}

// SetHead updates the entry head, creating the entry when it is first seen.
func SetHead(db sql.Executor, entry types.EntryID, head types.TransactionID) error {
	if _, err := db.Exec(`insert into entries (id, head) values (?1, ?2)
		on conflict(id) do update set head = ?2;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, entry.Bytes())
			stmt.BindBytes(2, head.Bytes())
		}, nil); err != nil {
		return fmt.Errorf("set head %s: %w", entry, err)
	}
	return nil
}

// HistoryLen returns the number of recorded transitions for the entry.
func HistoryLen(db sql.Executor, entry types.EntryID) (int, error) {
	var n int
	if _, err := db.Exec("select count(1) from entry_history where entry = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, entry.Bytes())
		},
		func(stmt *sql.Statement) bool {
			n = int(stmt.ColumnInt64(0))
			return true
		}); err != nil {
		return 0, fmt.Errorf("history len %s: %w", entry, err)
	}
	return n, nil
}

// AddHistory appends a transition to the entry history.
func AddHistory(db sql.Executor, entry types.EntryID, tid, prev types.TransactionID) error {
	n, err := HistoryLen(db, entry)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`insert into entry_history (entry, seq, tid, prev) values (?1, ?2, ?3, ?4);`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, entry.Bytes())
			stmt.BindInt64(2, int64(n))
			stmt.BindBytes(3, tid.Bytes())
			stmt.BindBytes(4, prev.Bytes())
		}, nil); err != nil {
		return fmt.Errorf("add history %s: %w", entry, err)
	}
	return nil
}

// RewindHistory drops the latest transition for the entry, resetting the
// head to the previous transaction or deleting the entry when the history
// becomes empty. It is a no-op if the latest transition was not applied by
// the given transaction.
func RewindHistory(db sql.Executor, entry types.EntryID, tid types.TransactionID) error {
	var (
		seq  int64 = -1
		last types.TransactionID
		prev types.TransactionID
	)
	if _, err := db.Exec(`select seq, tid, prev from entry_history
		where entry = ?1 order by seq desc limit 1;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, entry.Bytes())
		},
		func(stmt *sql.Statement) bool {
			seq = stmt.ColumnInt64(0)
			stmt.ColumnBytes(1, last[:])
			stmt.ColumnBytes(2, prev[:])
			return true
		}); err != nil {
		return fmt.Errorf("rewind %s: %w", entry, err)
	}
	if seq < 0 || last != tid {
		return nil
	}
	if _, err := db.Exec("delete from entry_history where entry = ?1 and seq = ?2;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, entry.Bytes())
			stmt.BindInt64(2, seq)
		}, nil); err != nil {
		return fmt.Errorf("rewind %s: %w", entry, err)
	}
	if seq == 0 {
		if _, err := db.Exec("delete from entries where id = ?1;",
			func(stmt *sql.Statement) {
				stmt.BindBytes(1, entry.Bytes())
			}, nil); err != nil {
			return fmt.Errorf("rewind %s: %w", entry, err)
		}
		return nil
	}
	return SetHead(db, entry, prev)
}
