package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	assert.NotPanics(t, func() { Register(reg) })

	RecordDrainDuration("metrics-test", 2*time.Second)
	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "elevator_drain_duration_seconds" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRecorders(t *testing.T) {
	const kind = "recorder-test"

	RecordEnqueued(kind, "up")
	RecordEnqueued(kind, "up")
	RecordStop(kind, OutcomeServed)
	RecordStop(kind, OutcomeSkipped)
	RecordStop(kind, OutcomeSkipped)
	RecordEmergency(kind, 4)
	SetPending(kind, 7)
	SetFloor(kind, 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(requestsEnqueued.WithLabelValues(kind, "up")))
	assert.Equal(t, 1.0, testutil.ToFloat64(stops.WithLabelValues(kind, OutcomeServed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(stops.WithLabelValues(kind, OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(emergencies.WithLabelValues(kind)))
	assert.Equal(t, 4.0, testutil.ToFloat64(droppedRequests.WithLabelValues(kind)))
	assert.Equal(t, 7.0, testutil.ToFloat64(pendingRequests.WithLabelValues(kind)))
	assert.Equal(t, 12.0, testutil.ToFloat64(currentFloor.WithLabelValues(kind)))
}
