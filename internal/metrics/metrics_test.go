package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCheckoutOutcome(t *testing.T) {
	before := testutil.ToFloat64(checkoutOutcomesTotal.WithLabelValues("done"))
	RecordCheckoutOutcome("done")
	assert.Equal(t, before+1, testutil.ToFloat64(checkoutOutcomesTotal.WithLabelValues("done")))
}

func TestRecordOutboxPublish_Labels(t *testing.T) {
	before := testutil.ToFloat64(outboxPublishedTotal.WithLabelValues("order_placed", "error"))
	RecordOutboxPublish("order_placed", false)
	assert.Equal(t, before+1, testutil.ToFloat64(outboxPublishedTotal.WithLabelValues("order_placed", "error")))
}

func TestRecordReconcileFailure(t *testing.T) {
	before := testutil.ToFloat64(reconcileFailuresTotal)
	RecordReconcileFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(reconcileFailuresTotal))
}
