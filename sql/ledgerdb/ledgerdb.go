// Package ledgerdb opens the node's ledger database with the schema
// expected by the sql/transactions and sql/entries packages.
package ledgerdb

import (
	"github.com/ledgermesh/go-ledgermesh/sql"
)

// Database is the ledger database.
type Database struct {
	*sql.Database
}

const script = `
create table if not exists transactions
(
    id       blob primary key,
    tx       blob not null,
    received integer not null
) without rowid;

create table if not exists tx_parties
(
    tid  blob not null,
    peer blob not null,
    primary key (tid, peer)
) without rowid;
create index if not exists tx_parties_by_peer on tx_parties (peer, tid);

create table if not exists entries
(
    id   blob primary key,
    head blob not null
) without rowid;

create table if not exists entry_history
(
    entry blob not null,
    seq   integer not null,
    tid   blob not null,
    prev  blob not null,
    primary key (entry, seq)
) without rowid;
`

// Schema returns the database schema.
func Schema() *sql.Schema {
	return &sql.Schema{Script: script}
}

// Open the ledger database at the given uri.
func Open(uri string, extra ...sql.Opt) (*Database, error) {
	opts := append([]sql.Opt{sql.WithDatabaseSchema(Schema())}, extra...)
	db, err := sql.Open(uri, opts...)
	if err != nil {
		return nil, err
	}
	return &Database{Database: db}, nil
}

// InMemory creates an in-memory ledger database for testing.
func InMemory(extra ...sql.Opt) *Database {
	opts := append([]sql.Opt{sql.WithDatabaseSchema(Schema())}, extra...)
	return &Database{Database: sql.InMemory(opts...)}
}
