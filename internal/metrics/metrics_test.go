package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPass(t *testing.T) {
	before := testutil.ToFloat64(PassesTotal.WithLabelValues("completed"))
	RecordPass("completed", 120*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(PassesTotal.WithLabelValues("completed")))

	emptyBefore := testutil.ToFloat64(PassesTotal.WithLabelValues("empty"))
	RecordPass("empty", 0)
	assert.Equal(t, emptyBefore+1, testutil.ToFloat64(PassesTotal.WithLabelValues("empty")))
}

func TestRecordResolve(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{name: "success", err: nil, outcome: "success"},
		{name: "failure", err: errors.New("boom"), outcome: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := ResolvesTotal.WithLabelValues("batch", tt.outcome)
			before := testutil.ToFloat64(counter)
			RecordResolve("batch", tt.err)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestSetPendingAndForgetSession(t *testing.T) {
	SetPending("alpha", 3, 2, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(PendingChanges.WithLabelValues("alpha", "leaf")))
	assert.Equal(t, 2.0, testutil.ToFloat64(PendingChanges.WithLabelValues("alpha", "group")))
	assert.Equal(t, 1.0, testutil.ToFloat64(PendingChanges.WithLabelValues("alpha", "new_group")))

	total := testutil.CollectAndCount(PendingChanges, "fp_pending_changes")
	ForgetSession("alpha")
	assert.Equal(t, total-3, testutil.CollectAndCount(PendingChanges, "fp_pending_changes"))
}

func TestRecordDiscardAndEnqueued(t *testing.T) {
	discard := DiscardsTotal.WithLabelValues("not_free")
	enqueued := EnqueuedTotal.WithLabelValues("group")
	discardBefore := testutil.ToFloat64(discard)
	enqueuedBefore := testutil.ToFloat64(enqueued)

	RecordDiscard("not_free")
	RecordEnqueued("group")

	assert.Equal(t, discardBefore+1, testutil.ToFloat64(discard))
	assert.Equal(t, enqueuedBefore+1, testutil.ToFloat64(enqueued))
}

func TestCircuitBreakerMetrics(t *testing.T) {
	SetCircuitBreakerState("test-breaker", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")))

	counter := CircuitBreakerRequests.WithLabelValues("test-breaker", "rejected")
	before := testutil.ToFloat64(counter)
	RecordBreakerRequest("test-breaker", "rejected")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
