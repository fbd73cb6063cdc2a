package sql

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgermesh/go-ledgermesh/metrics"
)

const subsystem = "database"

var connWaitLatency = metrics.NewSimpleHistogram(
	"connection_wait_seconds",
	subsystem,
	"Time waiting for a free connection from the pool",
	prometheus.ExponentialBuckets(0.00001, 2, 20),
)

func newQueryLatency() *prometheus.HistogramVec {
	return metrics.NewHistogram(
		"query_duration",
		subsystem,
		"Duration of database queries in nanoseconds",
		[]string{"query"},
	)
}
