package types

import (
	"crypto/rand"
)

// RandomBytes generates random data in bytes for testing.
func RandomBytes(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil
	}
	return b
}

// RandomTransactionID generates a random TransactionID for testing.
func RandomTransactionID() TransactionID {
	var id TransactionID
	copy(id[:], RandomBytes(TransactionIDSize))
	return id
}

// RandomEntryID generates a random EntryID for testing.
func RandomEntryID() EntryID {
	var id EntryID
	copy(id[:], RandomBytes(EntryIDSize))
	return id
}

// RandomHash generates a random Hash32 for testing.
func RandomHash() Hash32 {
	var h Hash32
	copy(h[:], RandomBytes(Hash32Length))
	return h
}
