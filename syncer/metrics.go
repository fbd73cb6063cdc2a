package syncer

import (
	"github.com/ledgermesh/go-ledgermesh/metrics"
)

const subsystem = "syncer"

var (
	syncSucceeded = metrics.NewCounter(
		"sync_ok_total",
		subsystem,
		"Number of successful id set exchanges",
		nil,
	).WithLabelValues()
	syncFailed = metrics.NewCounter(
		"sync_failed_total",
		subsystem,
		"Number of failed id set exchanges",
		nil,
	).WithLabelValues()
	recoveredTotal = metrics.NewCounter(
		"recovered_total",
		subsystem,
		"Number of transactions admitted during recovery",
		nil,
	).WithLabelValues()
	recoveryFailed = metrics.NewCounter(
		"recovery_failed_total",
		subsystem,
		"Number of transactions that could not be recovered",
		nil,
	).WithLabelValues()
)
