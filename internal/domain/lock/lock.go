package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

// Forever makes Acquire wait without a deadline. Callers passing it accept
// the deadlock risk.
const Forever time.Duration = -1

// Owner identifies a holder. Goroutines have no identity, so reentrance is
// keyed by an explicit token: acquiring again with the same Owner nests.
type Owner uint64

var ownerSeq atomic.Uint64

// NewOwner mints a fresh owner token. The zero Owner is never returned.
func NewOwner() Owner {
	return Owner(ownerSeq.Add(1))
}

// Lock is a named, reentrant mutex guarding one shared resource.
type Lock struct {
	name string
	sem  chan struct{} // holds one token while the lock is held

	mu    sync.Mutex
	owner Owner // Protected by mu
	depth int   // Protected by mu

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a standalone lock. Most callers obtain locks from a
// Coordinator instead so that every driver shares the same instance.
func New(name string, logger *logging.Logger, metrics *monitoring.Metrics) *Lock {
	return &Lock{
		name:    name,
		sem:     make(chan struct{}, 1),
		logger:  logging.OrNop(logger),
		metrics: metrics,
	}
}

// Name returns the resource name
func (l *Lock) Name() string {
	return l.name
}

// Acquire takes the lock for owner within timeout. A zero timeout tries
// once, Forever waits indefinitely. Re-acquiring while already holding the
// lock nests and always succeeds.
func (l *Lock) Acquire(owner Owner, timeout time.Duration) bool {
	if owner == 0 {
		l.logger.Error("acquire with zero owner", zap.String("lock", l.name))
		return false
	}
	if l.reenter(owner) {
		return true
	}
	if !l.take(timeout) {
		l.timedOut(owner)
		return false
	}
	l.hold(owner)
	return true
}

// AcquireContext takes the lock for owner, waiting until ctx is done.
func (l *Lock) AcquireContext(ctx context.Context, owner Owner) bool {
	if owner == 0 {
		l.logger.Error("acquire with zero owner", zap.String("lock", l.name))
		return false
	}
	if l.reenter(owner) {
		return true
	}
	select {
	case l.sem <- struct{}{}:
		l.hold(owner)
		return true
	case <-ctx.Done():
		l.timedOut(owner)
		return false
	}
}

// Release gives up one level of ownership. Releasing a lock that owner does
// not hold is logged and reports false.
func (l *Lock) Release(owner Owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 || l.owner != owner {
		l.logger.Warn("release by non-holder",
			zap.String("lock", l.name),
			zap.Uint64("owner", uint64(owner)),
			zap.Uint64("holder", uint64(l.owner)),
		)
		return false
	}

	l.depth--
	if l.depth == 0 {
		l.owner = 0
		<-l.sem
	}
	return true
}

// HeldBy reports whether owner currently holds the lock
func (l *Lock) HeldBy(owner Owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth > 0 && l.owner == owner
}

// Depth returns the current nesting depth, 0 when free
func (l *Lock) Depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth
}

// With runs fn while holding the lock and releases it on every exit path,
// panics included. It reports false, without running fn, when the lock
// could not be acquired within timeout.
func (l *Lock) With(owner Owner, timeout time.Duration, fn func()) bool {
	if !l.Acquire(owner, timeout) {
		return false
	}
	defer l.Release(owner)
	fn()
	return true
}

// Hold acquires the lock and returns a Guard for deferred release.
func (l *Lock) Hold(owner Owner, timeout time.Duration) (*Guard, bool) {
	if !l.Acquire(owner, timeout) {
		return nil, false
	}
	return &Guard{lock: l, owner: owner}, true
}

func (l *Lock) reenter(owner Owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth > 0 && l.owner == owner {
		l.depth++
		l.metrics.RecordLock(l.name, "reentered")
		return true
	}
	return false
}

func (l *Lock) hold(owner Owner) {
	l.mu.Lock()
	l.owner = owner
	l.depth = 1
	l.mu.Unlock()
	l.metrics.RecordLock(l.name, "acquired")
}

func (l *Lock) take(timeout time.Duration) bool {
	switch {
	case timeout < 0:
		l.sem <- struct{}{}
		return true
	case timeout == 0:
		select {
		case l.sem <- struct{}{}:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case l.sem <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (l *Lock) timedOut(owner Owner) {
	l.metrics.RecordLock(l.name, "timeout")
	l.logger.Debug("acquire timed out",
		zap.String("lock", l.name),
		zap.Uint64("owner", uint64(owner)),
	)
}

// Guard releases a held lock exactly once.
type Guard struct {
	lock  *Lock
	owner Owner
	once  sync.Once
}

// Release releases the guarded lock. Further calls are no-ops.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() { g.lock.Release(g.owner) })
}
