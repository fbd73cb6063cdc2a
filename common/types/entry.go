package types

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/spacemeshos/go-scale"

	"github.com/ledgermesh/go-ledgermesh/hash"
)

const (
	// EntryIDSize in bytes.
	EntryIDSize = 20
)

// EntryID is the linear identifier of a ledger entry, stable across the
// entry's versions.
type EntryID [EntryIDSize]byte

// EmptyEntryID is a canonical zero EntryID.
var EmptyEntryID EntryID

// DeriveEntryID derives a fresh entry id from an originator-chosen seed
// and the output index. Entry ids only need to be unique; subsequent
// versions of the entry keep the id of the first version.
func DeriveEntryID(seed Hash32, index uint32) (id EntryID) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], index)
	sum := hash.Sum(seed[:], buf[:])
	copy(id[:], sum[:EntryIDSize])
	return id
}

// Bytes returns the EntryID as a byte slice.
func (id EntryID) Bytes() []byte { return id[:] }

// String implements the fmt.Stringer interface.
func (id EntryID) String() string {
	return hex.EncodeToString(id[:])
}

// EncodeScale implements scale codec interface.
func (id *EntryID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *EntryID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// LedgerEntry is the current state of a versioned record tracked by a
// linear identifier. Head is the latest transaction that consumed or
// produced the entry.
type LedgerEntry struct {
	ID   EntryID
	Head TransactionID
}
