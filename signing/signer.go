// Package signing holds the ed25519 identities that parties use to sign
// transactions. A signer's public key doubles as its network identity.
package signing

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// PrivateKey is an alias to ed25519.PrivateKey.
type PrivateKey = ed25519.PrivateKey

// PublicKey is an alias to ed25519.PublicKey.
type PublicKey = ed25519.PublicKey

// PrivateKeySize size of the private key in bytes.
const PrivateKeySize = ed25519.PrivateKeySize

// EdSigner signs transactions on behalf of one party.
type EdSigner struct {
	priv PrivateKey
	peer p2p.Peer
}

type edSignerOption struct {
	priv PrivateKey
	rng  io.Reader
}

// SignerOptionFunc modifies a signer under construction.
type SignerOptionFunc func(*edSignerOption) error

// WithPrivateKey sets the private key used by the signer.
func WithPrivateKey(priv PrivateKey) SignerOptionFunc {
	return func(opt *edSignerOption) error {
		if len(priv) != ed25519.PrivateKeySize {
			return fmt.Errorf("invalid key size %d", len(priv))
		}
		opt.priv = priv
		return nil
	}
}

// WithKeyFromRand generates the key from the given randomness source.
func WithKeyFromRand(rng io.Reader) SignerOptionFunc {
	return func(opt *edSignerOption) error {
		opt.rng = rng
		return nil
	}
}

// NewEdSigner returns an auto-generated ed signer unless a key is provided.
func NewEdSigner(opts ...SignerOptionFunc) (*EdSigner, error) {
	cfg := &edSignerOption{rng: rand.Reader}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.priv == nil {
		_, priv, err := ed25519.GenerateKey(cfg.rng)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		cfg.priv = priv
	}
	peer, err := p2p.PeerFromEd25519(cfg.priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &EdSigner{priv: cfg.priv, peer: peer}, nil
}

// Sign signs the provided message.
func (es *EdSigner) Sign(m []byte) types.EdSignature {
	var sig types.EdSignature
	copy(sig[:], ed25519.Sign(es.priv, m))
	return sig
}

// Peer returns the network identity derived from the signer's public key.
func (es *EdSigner) Peer() p2p.Peer {
	return es.peer
}

// PublicKey returns the public key of the signer.
func (es *EdSigner) PublicKey() PublicKey {
	return es.priv.Public().(ed25519.PublicKey)
}

// PrivateKey returns the private key of the signer.
func (es *EdSigner) PrivateKey() PrivateKey {
	return es.priv
}
