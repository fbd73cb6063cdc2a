package ledger

import (
	"github.com/ledgermesh/go-ledgermesh/metrics"
)

const subsystem = "ledger"

var (
	admittedTotal = metrics.NewCounter(
		"admitted_total",
		subsystem,
		"Number of transactions admitted into the store",
		nil,
	).WithLabelValues()
	admittedDuplicate = metrics.NewCounter(
		"admitted_duplicate_total",
		subsystem,
		"Number of admissions that were no-ops because the transaction was already stored",
		nil,
	).WithLabelValues()
	admittedFailure = metrics.NewCounter(
		"admitted_failure_total",
		subsystem,
		"Number of transactions rejected during admission",
		nil,
	).WithLabelValues()
)
