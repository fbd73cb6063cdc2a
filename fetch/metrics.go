package fetch

import (
	"github.com/ledgermesh/go-ledgermesh/metrics"
)

const subsystem = "fetch"

var (
	hashPeersCacheHit = metrics.NewCounter(
		"hash_peers_cache_hit",
		subsystem,
		"Hash-to-peers cache hits",
		nil,
	).WithLabelValues()
	hashPeersCacheMiss = metrics.NewCounter(
		"hash_peers_cache_miss",
		subsystem,
		"Hash-to-peers cache misses",
		nil,
	).WithLabelValues()
	totalFetched = metrics.NewCounter(
		"fetched_total",
		subsystem,
		"Number of transactions fetched from peers",
		nil,
	).WithLabelValues()
	totalMismatched = metrics.NewCounter(
		"mismatched_total",
		subsystem,
		"Number of fetched transactions rejected because the content id did not match",
		nil,
	).WithLabelValues()
)
