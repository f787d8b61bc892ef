package obs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObservePublish(3, time.Millisecond)
	m.IncSend()
	m.IncSendDrop()
	m.IncResponse()
	m.IncResponseDrop()
	m.IncListenerPublish()
	m.IncListenerDrop()
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.ObservePublish(2, 10*time.Microsecond)
	m.ObservePublish(0, 30*time.Microsecond)
	m.IncSend()
	m.IncSendDrop()
	m.IncSendDrop()
	m.IncResponse()
	m.IncResponseDrop()
	m.IncListenerPublish()
	m.IncListenerDrop()

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Publishes)
	assert.Equal(t, uint64(2), s.Deliveries)
	assert.Equal(t, uint64(1), s.Sends)
	assert.Equal(t, uint64(2), s.SendDrops)
	assert.Equal(t, uint64(1), s.Responses)
	assert.Equal(t, uint64(1), s.ResponseDrops)
	assert.Equal(t, uint64(1), s.ListenerPublishes)
	assert.Equal(t, uint64(1), s.ListenerDrops)

	assert.Equal(t, uint64(2), s.DispatchLatency.Count)
	assert.Equal(t, 10*time.Microsecond, s.DispatchLatency.Min)
	assert.Equal(t, 30*time.Microsecond, s.DispatchLatency.Max)
	assert.Equal(t, 20*time.Microsecond, s.DispatchLatency.Avg)
}
