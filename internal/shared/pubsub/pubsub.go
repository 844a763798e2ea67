// Package pubsub is a small in-process fan-out of typed events.
//
// Publishing never blocks: each subscriber has a bounded queue and, when it
// is full, the oldest queued event is dropped to make room for the newest.
package pubsub

import "sync"

// PubSub fans out values of type T to every current subscriber.
type PubSub[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]chan T
	next   uint64
	qLen   int
	closed bool
}

// New creates a PubSub whose subscriptions buffer queueLen events.
func New[T any](queueLen int) *PubSub[T] {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &PubSub[T]{
		subs: make(map[uint64]chan T),
		qLen: queueLen,
	}
}

// Subscribe returns a receive channel and a function that ends the
// subscription and closes the channel. Subscribing to a closed PubSub yields
// an already-closed channel.
func (p *PubSub[T]) Subscribe() (<-chan T, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan T, p.qLen)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	key := p.next
	p.next++
	p.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { p.unsubscribe(key) })
	}
}

func (p *PubSub[T]) unsubscribe(key uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.subs[key]; ok {
		delete(p.subs, key)
		close(ch)
	}
}

// Publish delivers v to every subscriber and reports how many received it
// without an older event being dropped.
func (p *PubSub[T]) Publish(v T) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	clean := 0
	for _, ch := range p.subs {
		select {
		case ch <- v:
			clean++
			continue
		default:
		}
		// drop oldest if queue full
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
	return clean
}

// Subscribers returns the number of live subscriptions.
func (p *PubSub[T]) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close ends every subscription. Later publishes are no-ops.
func (p *PubSub[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for key, ch := range p.subs {
		delete(p.subs, key)
		close(ch)
	}
}
