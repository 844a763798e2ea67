package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

// Forever makes Dispatch and Consume wait without a deadline.
const Forever time.Duration = -1

// DefaultBackpressureWarn is the queue length at which producers are warned.
const DefaultBackpressureWarn = 100

// Callback runs on the consumer goroutine with the argument given to
// Dispatch.
type Callback func(arg any)

// Message is a queued callback and its argument. The dispatcher never
// inspects or releases Arg; a message dropped by Close simply never runs.
type Message struct {
	Callback Callback
	Arg      any
}

// Dispatcher is a bounded FIFO queue that marshals callbacks onto the
// goroutine calling Consume.
type Dispatcher struct {
	name  string
	queue chan Message

	done      chan struct{}
	closeOnce sync.Once

	warnAt  int
	warnLog rate.Sometimes

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger.Named("dispatcher") }
}

// WithMetrics adds metrics tracking
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = metrics }
}

// WithBackpressureWarning sets the queue length that triggers a warning.
// Zero or negative disables the warning.
func WithBackpressureWarning(n int) Option {
	return func(d *Dispatcher) { d.warnAt = n }
}

// New creates a dispatcher holding at most capacity pending messages.
func New(name string, capacity int, opts ...Option) *Dispatcher {
	if capacity <= 0 {
		capacity = 1
	}
	d := &Dispatcher{
		name:    name,
		queue:   make(chan Message, capacity),
		done:    make(chan struct{}),
		warnAt:  DefaultBackpressureWarn,
		warnLog: rate.Sometimes{Interval: time.Second},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the dispatcher name
func (d *Dispatcher) Name() string {
	return d.name
}

// Len returns the number of queued messages
func (d *Dispatcher) Len() int {
	return len(d.queue)
}

// Cap returns the queue capacity
func (d *Dispatcher) Cap() int {
	return cap(d.queue)
}

// Dispatch enqueues cb. On a full queue it blocks up to timeout (0 means
// do not wait, Forever means no deadline). It reports false on timeout or
// when the dispatcher is closed; the caller decides whether to retry.
func (d *Dispatcher) Dispatch(cb Callback, arg any, timeout time.Duration) bool {
	if cb == nil {
		d.logger.Error("dispatch of nil callback", zap.String("dispatcher", d.name))
		return false
	}
	if d.Closed() {
		d.metrics.RecordDispatch(d.name, "closed", d.Len())
		return false
	}

	msg := Message{Callback: cb, Arg: arg}

	switch {
	case timeout < 0:
		select {
		case d.queue <- msg:
			return d.queued()
		case <-d.done:
			d.metrics.RecordDispatch(d.name, "closed", d.Len())
			return false
		}
	case timeout == 0:
		select {
		case d.queue <- msg:
			return d.queued()
		default:
			return d.timedOut()
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case d.queue <- msg:
		return d.queued()
	case <-d.done:
		d.metrics.RecordDispatch(d.name, "closed", d.Len())
		return false
	case <-timer.C:
		return d.timedOut()
	}
}

// DispatchContext enqueues cb, waiting for space until ctx is done.
func (d *Dispatcher) DispatchContext(ctx context.Context, cb Callback, arg any) bool {
	if cb == nil {
		d.logger.Error("dispatch of nil callback", zap.String("dispatcher", d.name))
		return false
	}
	if d.Closed() {
		return false
	}
	select {
	case d.queue <- Message{Callback: cb, Arg: arg}:
		return d.queued()
	case <-d.done:
		return false
	case <-ctx.Done():
		return d.timedOut()
	}
}

// Consume waits up to timeout for one message and runs it on the calling
// goroutine. It reports false when nothing arrived in time; that is normal
// idle behavior.
func (d *Dispatcher) Consume(timeout time.Duration) bool {
	var msg Message

	switch {
	case timeout < 0:
		select {
		case msg = <-d.queue:
		case <-d.done:
			return false
		}
	case timeout == 0:
		select {
		case msg = <-d.queue:
		default:
			return false
		}
	default:
		timer := time.NewTimer(timeout)
		select {
		case msg = <-d.queue:
			timer.Stop()
		case <-d.done:
			timer.Stop()
			return false
		case <-timer.C:
			return false
		}
	}

	if d.Closed() {
		// dropped, never executed
		return false
	}

	d.run(msg)
	return true
}

// Drain runs every message already queued without waiting and returns how
// many ran.
func (d *Dispatcher) Drain() int {
	n := 0
	for d.Consume(0) {
		n++
	}
	return n
}

// Run consumes messages until ctx is done or the dispatcher is closed.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case msg := <-d.queue:
			if d.Closed() {
				return
			}
			d.run(msg)
		}
	}
}

// Close stops the dispatcher. Pending and later messages are dropped
// without running; their arguments are left to the caller's convention.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
		if n := d.Len(); n > 0 {
			d.logger.Debug("closing with pending messages",
				zap.String("dispatcher", d.name),
				zap.Int("dropped", n),
			)
		}
	})
}

// Closed reports whether Close was called
func (d *Dispatcher) Closed() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) run(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatched callback panicked",
				zap.String("dispatcher", d.name),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
		d.metrics.RecordConsume(d.name, d.Len())
	}()
	msg.Callback(msg.Arg)
}

func (d *Dispatcher) queued() bool {
	depth := d.Len()
	d.metrics.RecordDispatch(d.name, "queued", depth)
	if d.warnAt > 0 && depth >= d.warnAt {
		d.warnLog.Do(func() {
			d.logger.Warn("backpressure: consumer is not keeping up",
				zap.String("dispatcher", d.name),
				zap.Int("queued", depth),
			)
		})
	}
	return true
}

func (d *Dispatcher) timedOut() bool {
	d.metrics.RecordDispatch(d.name, "timeout", d.Len())
	d.logger.Debug("dispatch timed out: queue full",
		zap.String("dispatcher", d.name),
		zap.Int("capacity", d.Cap()),
	)
	return false
}
