package types

import (
	"encoding/hex"

	"github.com/spacemeshos/go-scale"

	"github.com/ledgermesh/go-ledgermesh/hash"
)

const (
	// Hash32Length is 32, the expected length of the hash.
	Hash32Length = hash.Size
)

// Hash32 represents the 32-byte blake3 hash of arbitrary data.
type Hash32 [Hash32Length]byte

// EmptyHash32 is a canonical zero Hash32.
var EmptyHash32 Hash32

// CalcHash32 returns the 32-byte blake3 sum of the given data.
func CalcHash32(data []byte) Hash32 {
	return hash.Sum(data)
}

// BytesToHash copies b into a Hash32. If b is larger than 32 bytes it is
// cropped from the left.
func BytesToHash(b []byte) Hash32 {
	var h Hash32
	h.SetBytes(b)
	return h
}

// Bytes gets the byte representation of the underlying hash.
func (h Hash32) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash32) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements the stringer interface.
func (h Hash32) String() string {
	return h.Hex()
}

// ShortString returns the first few characters of the hash, for logging purposes.
func (h Hash32) ShortString() string {
	str := hex.EncodeToString(h[:])
	if len(str) > 5 {
		str = str[:5]
	}
	return str
}

// IsEmpty returns true if the hash is all zeroes.
func (h Hash32) IsEmpty() bool {
	return h == EmptyHash32
}

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash32) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-Hash32Length:]
	}
	copy(h[Hash32Length-len(b):], b)
}

// EncodeScale implements scale codec interface.
func (h *Hash32) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, h[:])
}

// DecodeScale implements scale codec interface.
func (h *Hash32) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, h[:])
}
