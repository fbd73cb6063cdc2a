// Package p2p names the libp2p identity types used across the protocol.
package p2p

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
)

// Peer is a libp2p identifier of a participant.
type Peer = peer.ID

// NoPeer is a canonical empty peer.
const NoPeer = Peer("")

// IsNoPeer checks if it's a canonical empty peer.
func IsNoPeer(p Peer) bool {
	return p == NoPeer
}

// PeerFromEd25519 derives the network identity of a participant from its
// raw 32-byte ed25519 public key. Ed25519 keys are small enough that the
// resulting peer id embeds the key itself.
func PeerFromEd25519(pub []byte) (Peer, error) {
	key, err := crypto.UnmarshalEd25519PublicKey(pub)
	if err != nil {
		return NoPeer, fmt.Errorf("unmarshal ed25519 key: %w", err)
	}
	id, err := peer.IDFromPublicKey(key)
	if err != nil {
		return NoPeer, fmt.Errorf("derive peer id: %w", err)
	}
	return id, nil
}

// Ed25519FromPeer extracts the raw ed25519 public key embedded in a peer id.
func Ed25519FromPeer(p Peer) ([]byte, error) {
	key, err := p.ExtractPublicKey()
	if err != nil {
		return nil, fmt.Errorf("extract key from %s: %w", p, err)
	}
	if key.Type() != crypto.Ed25519 {
		return nil, fmt.Errorf("peer %s key type %s is not ed25519", p, key.Type())
	}
	raw, err := key.Raw()
	if err != nil {
		return nil, fmt.Errorf("raw key bytes for %s: %w", p, err)
	}
	return raw, nil
}
