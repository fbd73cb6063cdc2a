package fetch

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ledgermesh/go-ledgermesh/common/types"
	"github.com/ledgermesh/go-ledgermesh/p2p"
)

// HashPeersCache holds an lru cache mapping a content hash to the peers
// known to hold the data behind it.
type HashPeersCache struct {
	cache *lru.Cache[types.Hash32, HashPeers]
	mu    sync.Mutex
}

// HashPeers holds registered peers for a hash.
type HashPeers map[p2p.Peer]struct{}

// NewHashPeersCache creates a new hash-to-peers cache.
func NewHashPeersCache(size int) *HashPeersCache {
	cache, err := lru.New[types.Hash32, HashPeers](size)
	if err != nil {
		panic("could not initialize cache: " + err.Error())
	}
	return &HashPeersCache{cache: cache}
}

func (hpc *HashPeersCache) get(hash types.Hash32) (HashPeers, bool) {
	item, found := hpc.cache.Get(hash)
	if !found {
		hashPeersCacheMiss.Inc()
		return nil, false
	}
	hashPeersCacheHit.Inc()
	return item, true
}

func (hpc *HashPeersCache) add(hash types.Hash32, peer p2p.Peer) {
	peers, exists := hpc.cache.Get(hash)
	if !exists {
		hpc.cache.Add(hash, HashPeers{peer: {}})
		return
	}
	peers[peer] = struct{}{}
	hpc.cache.Add(hash, peers)
}

// Add registers a peer as a holder of the hash.
func (hpc *HashPeersCache) Add(hash types.Hash32, peer p2p.Peer) {
	hpc.mu.Lock()
	defer hpc.mu.Unlock()
	hpc.add(hash, peer)
}

// All returns every peer registered for the hash.
func (hpc *HashPeersCache) All(hash types.Hash32) []p2p.Peer {
	hpc.mu.Lock()
	defer hpc.mu.Unlock()
	hashPeersMap, exists := hpc.get(hash)
	if !exists {
		return nil
	}
	peers := make([]p2p.Peer, 0, len(hashPeersMap))
	for peer := range hashPeersMap {
		peers = append(peers, peer)
	}
	return peers
}

// RegisterPeerHashes registers provided peer for a list of hashes.
func (hpc *HashPeersCache) RegisterPeerHashes(peer p2p.Peer, hashes []types.Hash32) {
	if len(hashes) == 0 || p2p.IsNoPeer(peer) {
		return
	}
	hpc.mu.Lock()
	defer hpc.mu.Unlock()
	for _, hash := range hashes {
		hpc.add(hash, peer)
	}
}
