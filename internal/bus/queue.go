package bus

import (
	"context"
	"iter"
	"sync"

	"anttrader/internal/obs"
	"anttrader/pkg/exception"

	"github.com/edwingeng/deque"
	"github.com/yanun0323/logs"
)

// pipe is an unbounded single-consumer FIFO shared by a sender and a receiver.
type pipe struct {
	mu      sync.Mutex
	items   deque.Deque
	signal  chan struct{}
	closed  bool // sender side gone
	dropped bool // receiver side gone
}

func newPipe() *pipe {
	return &pipe{
		items:  deque.NewDeque(),
		signal: make(chan struct{}, 1),
	}
}

func (p *pipe) send(msg BusMessage) bool {
	p.mu.Lock()
	if p.closed || p.dropped {
		p.mu.Unlock()
		return false
	}
	p.items.PushBack(msg)
	p.mu.Unlock()

	p.notify()
	return true
}

func (p *pipe) notify() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *pipe) closeSender() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.notify()
}

func (p *pipe) dropReceiver() {
	p.mu.Lock()
	p.dropped = true
	p.items = deque.NewDeque()
	p.mu.Unlock()
}

func (p *pipe) receiverDropped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Receiver is the consuming end of a Listener. Only one goroutine may read from it.
type Receiver struct {
	p *pipe
}

// Recv blocks until a message is available. It returns false once the sender
// side is closed and drained, or ctx is done.
func (r *Receiver) Recv(ctx context.Context) (BusMessage, bool) {
	for {
		r.p.mu.Lock()
		if !r.p.items.Empty() {
			msg := r.p.items.PopFront().(BusMessage)
			r.p.mu.Unlock()
			return msg, true
		}
		done := r.p.closed || r.p.dropped
		r.p.mu.Unlock()

		if done {
			return BusMessage{}, false
		}

		select {
		case <-ctx.Done():
			return BusMessage{}, false
		case <-r.p.signal:
		}
	}
}

// Run consumes messages until the context is done or the sender side is closed.
func (r *Receiver) Run(ctx context.Context, handler func(BusMessage)) {
	for msg := range Stream(ctx, r) {
		handler(msg)
	}
}

// Len returns the number of buffered messages.
func (r *Receiver) Len() int {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	return r.p.items.Len()
}

// Close drops the receiver and everything still buffered.
func (r *Receiver) Close() {
	r.p.dropReceiver()
}

// Stream exposes rx as a lazy sequence. The sequence ends when the sender side
// is closed or ctx is done.
func Stream(ctx context.Context, rx *Receiver) iter.Seq[BusMessage] {
	return func(yield func(BusMessage) bool) {
		for {
			msg, ok := rx.Recv(ctx)
			if !ok || !yield(msg) {
				return
			}
		}
	}
}

// Listener bridges the synchronous bus to one asynchronous consumer through
// an unbounded queue. Publish never blocks.
type Listener struct {
	mu      sync.Mutex
	tx      *pipe
	rx      *Receiver
	metrics *obs.Metrics
}

// NewListener creates a listener whose receiver has not been taken yet.
func NewListener() *Listener {
	p := newPipe()
	return &Listener{
		tx: p,
		rx: &Receiver{p: p},
	}
}

// SetMetrics records listener activity into m.
func (l *Listener) SetMetrics(m *obs.Metrics) {
	l.mu.Lock()
	l.metrics = m
	l.mu.Unlock()
}

// IsClosed reports whether the current sender has no live receiver.
func (l *Listener) IsClosed() bool {
	l.mu.Lock()
	tx := l.tx
	l.mu.Unlock()
	return tx.receiverDropped()
}

// Publish enqueues a message. After Close the message is discarded.
func (l *Listener) Publish(topic string, payload []byte) {
	l.mu.Lock()
	tx, metrics := l.tx, l.metrics
	l.mu.Unlock()

	if !tx.send(BusMessage{Topic: topic, Payload: payload}) {
		logs.Errorf("failed to send message on '%s': listener closed", topic)
		metrics.IncListenerDrop()
		return
	}
	metrics.IncListenerPublish()
}

// GetStreamReceiver hands out the consuming end. It succeeds only once.
func (l *Listener) GetStreamReceiver() (*Receiver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rx == nil {
		return nil, exception.ErrStreamReceiverTaken
	}
	rx := l.rx
	l.rx = nil
	return rx, nil
}

// Close drops the receiver if still held, ends the stream of a receiver
// already handed out, and swaps in a disconnected sender.
func (l *Listener) Close() {
	logs.Debug("closing listener")

	l.mu.Lock()
	if l.rx != nil {
		l.rx.Close()
		l.rx = nil
	}
	l.tx.closeSender()

	disconnected := newPipe()
	disconnected.dropped = true
	l.tx = disconnected
	l.mu.Unlock()

	logs.Debug("listener closed")
}
