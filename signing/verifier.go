package signing

import (
	"crypto/ed25519"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// EdVerifier verifies transaction signatures against the public keys
// embedded in the parties' peer ids.
type EdVerifier struct{}

// NewEdVerifier returns a verifier.
func NewEdVerifier() *EdVerifier {
	return &EdVerifier{}
}

// Verify reports whether sig is a valid signature by the given party over m.
// Parties whose peer id does not embed an ed25519 key never verify.
func (es *EdVerifier) Verify(party p2p.Peer, m []byte, sig types.EdSignature) bool {
	pub, err := p2p.Ed25519FromPeer(party)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, m, sig[:])
}
