package arena

import "sync"

// outbox is the per-connection outbound queue. Enqueues never block and
// per-player FIFO order is preserved; a single forwarder goroutine drains the
// queue to the wire. The queue is unbounded, so a stalled socket lags but
// never rejects a message.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	closed bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// enqueue appends a message. Messages enqueued after close are dropped.
func (o *outbox) enqueue(msg []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.queue = append(o.queue, msg)
	o.cond.Signal()
}

// next blocks until a message is available or the outbox is closed. It
// returns false once the queue is closed and fully drained.
func (o *outbox) next() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) == 0 && !o.closed {
		o.cond.Wait()
	}
	if len(o.queue) == 0 {
		return nil, false
	}
	msg := o.queue[0]
	o.queue = o.queue[1:]
	return msg, true
}

// close wakes the forwarder; queued messages are still delivered before the
// forwarder stops.
func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.cond.Broadcast()
}
