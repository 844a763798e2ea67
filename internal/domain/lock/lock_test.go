package lock

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

func TestAcquireRelease(t *testing.T) {
	l := New("spi2", nil, nil)
	owner := NewOwner()

	require.True(t, l.Acquire(owner, 0))
	assert.True(t, l.HeldBy(owner))
	assert.True(t, l.Release(owner))
	assert.False(t, l.HeldBy(owner))
	assert.Equal(t, 0, l.Depth())
}

func TestReentrantAcquire(t *testing.T) {
	l := New("graphics", nil, nil)
	owner := NewOwner()

	require.True(t, l.Acquire(owner, Forever))
	require.True(t, l.Acquire(owner, 0))
	assert.Equal(t, 2, l.Depth())

	other := NewOwner()
	assert.False(t, l.Acquire(other, 0), "nested hold still excludes others")

	require.True(t, l.Release(owner))
	assert.False(t, l.Acquire(other, 0))
	require.True(t, l.Release(owner))
	assert.True(t, l.Acquire(other, 0))
}

func TestTimeoutReturnsFalse(t *testing.T) {
	metrics := monitoring.NewMetrics()
	l := New("spi2", nil, metrics)
	holder := NewOwner()
	require.True(t, l.Acquire(holder, 0))

	start := time.Now()
	assert.False(t, l.Acquire(NewOwner(), 30*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LockAcquisitions.WithLabelValues("spi2", "timeout")))
}

func TestReleaseByNonHolder(t *testing.T) {
	l := New("i2c0", nil, nil)
	holder := NewOwner()

	assert.False(t, l.Release(holder), "unheld")
	require.True(t, l.Acquire(holder, 0))
	assert.False(t, l.Release(NewOwner()), "wrong owner")
	assert.True(t, l.HeldBy(holder))
}

func TestZeroOwnerRejected(t *testing.T) {
	l := New("i2c0", nil, nil)
	assert.False(t, l.Acquire(0, 0))
	assert.False(t, l.AcquireContext(context.Background(), 0))
}

func TestAcquireContext(t *testing.T) {
	l := New("spi3", nil, nil)
	holder := NewOwner()
	require.True(t, l.Acquire(holder, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, l.AcquireContext(ctx, NewOwner()))

	acquired := make(chan bool)
	waiter := NewOwner()
	go func() { acquired <- l.AcquireContext(context.Background(), waiter) }()

	time.Sleep(10 * time.Millisecond)
	require.True(t, l.Release(holder))
	assert.True(t, <-acquired)
	assert.True(t, l.HeldBy(waiter))
}

func TestWithReleasesOnPanic(t *testing.T) {
	l := New("graphics", nil, nil)
	owner := NewOwner()

	assert.Panics(t, func() {
		l.With(owner, 0, func() { panic("render failed") })
	})
	assert.Equal(t, 0, l.Depth())

	ran := false
	assert.True(t, l.With(owner, 0, func() { ran = true }))
	assert.True(t, ran)
}

func TestWithSkipsOnContention(t *testing.T) {
	l := New("spi2", nil, nil)
	require.True(t, l.Acquire(NewOwner(), 0))

	ran := false
	assert.False(t, l.With(NewOwner(), 5*time.Millisecond, func() { ran = true }))
	assert.False(t, ran)
}

func TestGuardReleasesOnce(t *testing.T) {
	l := New("spi2", nil, nil)
	owner := NewOwner()

	require.True(t, l.Acquire(owner, 0))
	g, ok := l.Hold(owner, 0)
	require.True(t, ok)
	assert.Equal(t, 2, l.Depth())

	g.Release()
	g.Release()
	assert.Equal(t, 1, l.Depth())

	var nilGuard *Guard
	nilGuard.Release()
}

func TestMutualExclusionUnderStress(t *testing.T) {
	l := New("spi2", nil, nil)

	var inside atomic.Int32
	var violations atomic.Int32
	var entered atomic.Int32

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			owner := NewOwner()
			for i := 0; i < 50; i++ {
				if !l.Acquire(owner, 5*time.Millisecond) {
					continue
				}
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				entered.Add(1)
				time.Sleep(time.Duration(rng.Intn(200)) * time.Microsecond)
				inside.Add(-1)
				l.Release(owner)
			}
		}(int64(w))
	}
	wg.Wait()

	assert.Zero(t, violations.Load())
	assert.Positive(t, entered.Load())
}

func TestCoordinatorSharesInstances(t *testing.T) {
	c := NewCoordinator(nil)

	a := c.Get(SPI(2))
	b := c.Get("spi2")
	assert.Same(t, a, b)

	c.Get(Graphics)
	c.Get(I2C(0))
	assert.Equal(t, []string{"graphics", "i2c0", "spi2"}, c.Names())
}

func TestCoordinatorConcurrentGet(t *testing.T) {
	c := NewCoordinator(nil)

	locks := make([]*Lock, 16)
	var wg sync.WaitGroup
	for i := range locks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locks[i] = c.Get(Graphics)
		}(i)
	}
	wg.Wait()

	for _, l := range locks {
		assert.Same(t, locks[0], l)
	}
}
