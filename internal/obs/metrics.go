package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for the message bus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	publishes         uint64
	deliveries        uint64
	sends             uint64
	sendDrops         uint64
	responses         uint64
	responseDrops     uint64
	listenerPublishes uint64
	listenerDrops     uint64

	dispatchLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Publishes         uint64
	Deliveries        uint64
	Sends             uint64
	SendDrops         uint64
	Responses         uint64
	ResponseDrops     uint64
	ListenerPublishes uint64
	ListenerDrops     uint64
	DispatchLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObservePublish records one publish that reached delivered handlers in d.
func (m *Metrics) ObservePublish(delivered int, d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.publishes, 1)
	if delivered > 0 {
		atomic.AddUint64(&m.deliveries, uint64(delivered))
	}
	m.dispatchLatency.Observe(d)
}

// IncSend records a delivered direct send.
func (m *Metrics) IncSend() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sends, 1)
}

// IncSendDrop records a send to an unregistered endpoint.
func (m *Metrics) IncSendDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sendDrops, 1)
}

// IncResponse records a delivered response.
func (m *Metrics) IncResponse() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.responses, 1)
}

// IncResponseDrop records a response without a pending handler.
func (m *Metrics) IncResponseDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.responseDrops, 1)
}

// IncListenerPublish records a message enqueued to a listener.
func (m *Metrics) IncListenerPublish() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.listenerPublishes, 1)
}

// IncListenerDrop records a message discarded by a closed listener.
func (m *Metrics) IncListenerDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.listenerDrops, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Publishes:         atomic.LoadUint64(&m.publishes),
		Deliveries:        atomic.LoadUint64(&m.deliveries),
		Sends:             atomic.LoadUint64(&m.sends),
		SendDrops:         atomic.LoadUint64(&m.sendDrops),
		Responses:         atomic.LoadUint64(&m.responses),
		ResponseDrops:     atomic.LoadUint64(&m.responseDrops),
		ListenerPublishes: atomic.LoadUint64(&m.listenerPublishes),
		ListenerDrops:     atomic.LoadUint64(&m.listenerDrops),
		DispatchLatency:   m.dispatchLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		lo := atomic.LoadUint64(&l.min)
		if lo != 0 && nanos >= lo {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, lo, nanos) {
			break
		}
	}

	for {
		hi := atomic.LoadUint64(&l.max)
		if nanos <= hi {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, hi, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(atomic.LoadUint64(&l.sum) / count),
	}
}
