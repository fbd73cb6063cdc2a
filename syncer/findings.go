package syncer

import (
	"go.uber.org/zap/zapcore"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// Findings is the result of one id set exchange with a peer. Both sides
// are restricted to transactions involving both this node and the peer,
// so a transaction neither side should hold never shows up as divergence.
type Findings struct {
	Peer p2p.Peer
	// MissingHere are transactions the peer holds and this node does not.
	MissingHere []types.TransactionID
	// MissingThere are transactions this node holds and the peer does not.
	// They are reported for observability; the peer recovers them by
	// running its own synchronization.
	MissingThere []types.TransactionID
}

// Consistent reports whether both ledgers hold the same set of shared
// transactions.
func (f *Findings) Consistent() bool {
	return len(f.MissingHere) == 0 && len(f.MissingThere) == 0
}

// MarshalLogObject implements logging encoder for Findings.
func (f *Findings) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("peer", f.Peer.String())
	encoder.AddInt("missing here", len(f.MissingHere))
	encoder.AddInt("missing there", len(f.MissingThere))
	encoder.AddBool("consistent", f.Consistent())
	return nil
}

// PeerRecovery attributes recovery outcomes to the peer whose findings
// drove them.
type PeerRecovery struct {
	// Admitted lists transactions admitted while working this peer's
	// findings, dependencies included, in admission order.
	Admitted []types.TransactionID
	// Failed maps transactions that could not be recovered to the reason.
	Failed map[types.TransactionID]error
}

// RecoveryReport summarizes a recovery pass.
type RecoveryReport struct {
	// Admitted lists every transaction admitted during recovery,
	// dependencies included, in admission order.
	Admitted []types.TransactionID
	// Failed maps transactions that could not be recovered from any
	// source to the reason.
	Failed map[types.TransactionID]error
	// Peers breaks the outcome down per counterparty.
	Peers map[p2p.Peer]*PeerRecovery
}

func newRecoveryReport() *RecoveryReport {
	return &RecoveryReport{
		Failed: map[types.TransactionID]error{},
		Peers:  map[p2p.Peer]*PeerRecovery{},
	}
}

func (r *RecoveryReport) forPeer(peer p2p.Peer) *PeerRecovery {
	pr, ok := r.Peers[peer]
	if !ok {
		pr = &PeerRecovery{Failed: map[types.TransactionID]error{}}
		r.Peers[peer] = pr
	}
	return pr
}

func (r *RecoveryReport) admitted(peer p2p.Peer, id types.TransactionID) {
	r.Admitted = append(r.Admitted, id)
	pr := r.forPeer(peer)
	pr.Admitted = append(pr.Admitted, id)
}

func (r *RecoveryReport) failed(peer p2p.Peer, id types.TransactionID, err error) {
	r.Failed[id] = err
	r.forPeer(peer).Failed[id] = err
}

// resolved clears a recorded failure once the transaction is obtained
// through a later source.
func (r *RecoveryReport) resolved(id types.TransactionID) {
	delete(r.Failed, id)
	for _, pr := range r.Peers {
		delete(pr.Failed, id)
	}
}

// Complete reports whether every missing transaction was recovered.
func (r *RecoveryReport) Complete() bool {
	return len(r.Failed) == 0
}

// MarshalLogObject implements logging encoder for RecoveryReport.
func (r *RecoveryReport) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("admitted", len(r.Admitted))
	encoder.AddInt("failed", len(r.Failed))
	encoder.AddInt("peers", len(r.Peers))
	return nil
}
