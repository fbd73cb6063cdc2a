package types

import (
	"bytes"
	"slices"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"

	"github.com/ledgermesh/go-ledgermesh/codec"
	"github.com/ledgermesh/go-ledgermesh/hash"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// TransactionID is the 32-byte blake3 sum of the transaction body, used as
// a content-derived identifier.
type TransactionID Hash32

const (
	// TransactionIDSize in bytes.
	TransactionIDSize = Hash32Length
	// MaxParties bounds the number of peers involved in one transaction.
	MaxParties = 16
	// MaxEntries bounds consumed and produced entries per transaction.
	MaxEntries = 256
)

// EmptyTransactionID is a canonical zero TransactionID.
var EmptyTransactionID TransactionID

// Hash32 returns the TransactionID as a Hash32.
func (id TransactionID) Hash32() Hash32 {
	return Hash32(id)
}

// ShortString returns a shortened prefix of the hex representation, for logging.
func (id TransactionID) ShortString() string {
	return id.Hash32().ShortString()
}

// String implements the fmt.Stringer interface.
func (id TransactionID) String() string {
	return id.Hash32().String()
}

// Bytes returns the TransactionID as a byte slice.
func (id TransactionID) Bytes() []byte {
	return id[:]
}

// Compare returns true if other is less than this TransactionID, by
// lexicographic comparison.
func (id TransactionID) Compare(other TransactionID) bool {
	return bytes.Compare(id.Bytes(), other.Bytes()) < 0
}

// EncodeScale implements scale codec interface.
func (id *TransactionID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *TransactionID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// SortTransactionIDs sorts a list of ids in place, lexicographically.
func SortTransactionIDs(ids []TransactionID) []TransactionID {
	slices.SortFunc(ids, func(a, b TransactionID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

// Consumed references a prior ledger entry spent by a transaction. Prev is
// the transaction that currently heads the entry; it becomes this
// transaction's dependency.
type Consumed struct {
	Entry EntryID
	Prev  TransactionID
}

// Produced describes a ledger entry created by a transaction.
type Produced struct {
	Entry   EntryID
	Payload []byte `scale:"max=4096"`
}

// TransactionBody is the signed, identity-bearing part of a transaction.
// The TransactionID is the blake3 sum of its scale encoding.
type TransactionBody struct {
	Parties []p2p.Peer `scale:"max=16"`
	Inputs  []Consumed `scale:"max=256"`
	Outputs []Produced `scale:"max=256"`
	Nonce   uint64
}

// Transaction is an immutable record consuming prior ledger entries and
// producing new ones, signed by every involved party.
type Transaction struct {
	Body       TransactionBody
	Signatures []EdSignature `scale:"max=16"`

	id *TransactionID
}

// CalcTransactionID derives the content id of a body.
func CalcTransactionID(body *TransactionBody) TransactionID {
	return TransactionID(hash.Sum(codec.MustEncode(body)))
}

// ID returns the content-derived identifier, computing and caching it on
// first use.
func (t *Transaction) ID() TransactionID {
	if t.id == nil {
		id := CalcTransactionID(&t.Body)
		t.id = &id
	}
	return *t.id
}

// SigningDigest is the message each party signs.
func (t *Transaction) SigningDigest() []byte {
	id := t.ID()
	return id[:]
}

// Involves reports whether the given peer is one of the parties.
func (t *Transaction) Involves(p p2p.Peer) bool {
	return slices.Contains(t.Body.Parties, p)
}

// Dependencies returns the distinct ids of transactions whose outputs this
// transaction consumes, in sorted order.
func (t *Transaction) Dependencies() []TransactionID {
	seen := make(map[TransactionID]struct{}, len(t.Body.Inputs))
	deps := make([]TransactionID, 0, len(t.Body.Inputs))
	for _, in := range t.Body.Inputs {
		if in.Prev == EmptyTransactionID {
			continue
		}
		if _, ok := seen[in.Prev]; ok {
			continue
		}
		seen[in.Prev] = struct{}{}
		deps = append(deps, in.Prev)
	}
	return SortTransactionIDs(deps)
}

// MarshalLogObject implements logging encoder for Transaction.
func (t *Transaction) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("tid", t.ID().ShortString())
	encoder.AddInt("parties", len(t.Body.Parties))
	encoder.AddInt("inputs", len(t.Body.Inputs))
	encoder.AddInt("outputs", len(t.Body.Outputs))
	return nil
}

// TransactionIDsToHashes turns a list of TransactionID into their Hash32
// representation.
func TransactionIDsToHashes(ids []TransactionID) []Hash32 {
	hashes := make([]Hash32, 0, len(ids))
	for _, id := range ids {
		hashes = append(hashes, id.Hash32())
	}
	return hashes
}

// ToTransactionIDs returns the ids of the given transactions.
func ToTransactionIDs(txs []*Transaction) []TransactionID {
	ids := make([]TransactionID, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID())
	}
	return ids
}
