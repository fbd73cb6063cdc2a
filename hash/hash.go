// Package hash provides the content hash used to derive identifiers.
package hash

// Size of the hash in bytes.
const Size = 32

// Sum computes the blake3 sum of the given chunks.
func Sum(chunks ...[]byte) (sum [Size]byte) {
	hh := GetHasher()
	defer PutHasher(hh)
	for _, chunk := range chunks {
		hh.Write(chunk)
	}
	hh.Sum(sum[:0])
	return sum
}
