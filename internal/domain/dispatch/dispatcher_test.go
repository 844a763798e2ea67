package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

func TestDispatchThenConsume(t *testing.T) {
	d := New("ui", 4)

	calls := 0
	var got any
	require.True(t, d.Dispatch(func(arg any) {
		calls++
		got = arg
	}, "payload", 0))

	assert.True(t, d.Consume(0))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "payload", got)

	assert.False(t, d.Consume(0))
	assert.Equal(t, 1, calls)
}

func TestFIFOOrder(t *testing.T) {
	const n = 50
	d := New("ui", n)

	var order []int
	for i := 0; i < n; i++ {
		require.True(t, d.Dispatch(func(arg any) { order = append(order, arg.(int)) }, i, 0))
	}
	for i := 0; i < n; i++ {
		require.True(t, d.Consume(0))
	}

	expected := make([]int, n)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, order)
}

func TestConsumeTimesOutOnEmpty(t *testing.T) {
	d := New("ui", 1)

	start := time.Now()
	assert.False(t, d.Consume(30*time.Millisecond))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestFullQueueBlocksThenTimesOut(t *testing.T) {
	metrics := monitoring.NewMetrics()
	d := New("ui", 1, WithMetrics(metrics))
	noop := func(any) {}

	require.True(t, d.Dispatch(noop, nil, 0))
	assert.False(t, d.Dispatch(noop, nil, 0))

	start := time.Now()
	assert.False(t, d.Dispatch(noop, nil, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DispatchTotal.WithLabelValues("ui", "timeout")))
}

func TestBlockedProducerProceedsWhenSpaceFrees(t *testing.T) {
	d := New("ui", 1)
	require.True(t, d.Dispatch(func(any) {}, nil, 0))

	result := make(chan bool)
	go func() { result <- d.Dispatch(func(any) {}, nil, Forever) }()

	time.Sleep(10 * time.Millisecond)
	require.True(t, d.Consume(0))
	assert.True(t, <-result)
	assert.Equal(t, 1, d.Len())
}

func TestDispatchContext(t *testing.T) {
	d := New("ui", 1)
	require.True(t, d.DispatchContext(context.Background(), func(any) {}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.False(t, d.DispatchContext(ctx, func(any) {}, nil))
}

func TestCloseDropsPending(t *testing.T) {
	d := New("ui", 4)

	ran := false
	require.True(t, d.Dispatch(func(any) { ran = true }, nil, 0))
	d.Close()
	d.Close()

	assert.False(t, d.Consume(0))
	assert.False(t, ran)
	assert.False(t, d.Dispatch(func(any) {}, nil, Forever))
	assert.True(t, d.Closed())
}

func TestCloseWakesBlockedConsumer(t *testing.T) {
	d := New("ui", 1)

	result := make(chan bool)
	go func() { result <- d.Consume(Forever) }()

	time.Sleep(10 * time.Millisecond)
	d.Close()
	assert.False(t, <-result)
}

func TestPanickingCallbackIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d := New("ui", 2, WithLogger(logging.Wrap(zap.New(core))))

	require.True(t, d.Dispatch(func(any) { panic("boom") }, nil, 0))
	ran := false
	require.True(t, d.Dispatch(func(any) { ran = true }, nil, 0))

	assert.True(t, d.Consume(0))
	assert.True(t, d.Consume(0))
	assert.True(t, ran)
	assert.Equal(t, 1, logs.FilterMessage("dispatched callback panicked").Len())
}

func TestDrain(t *testing.T) {
	d := New("ui", 8)
	count := 0
	for i := 0; i < 5; i++ {
		d.Dispatch(func(any) { count++ }, nil, 0)
	}
	assert.Equal(t, 5, d.Drain())
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, d.Drain())
}

func TestRunConsumesFromOtherGoroutines(t *testing.T) {
	d := New("ui", 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(consumer)
	}()

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				wg.Add(1)
				ok := d.Dispatch(func(arg any) {
					defer wg.Done()
					mu.Lock()
					seen[arg.(int)] = true
					mu.Unlock()
				}, p*100+i, Forever)
				if !ok {
					wg.Done()
				}
			}
		}(p)
	}
	wg.Wait()

	mu.Lock()
	assert.Len(t, seen, 100)
	mu.Unlock()

	cancel()
	<-consumer
}

func TestBackpressureWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := New("ui", 8,
		WithLogger(logging.Wrap(zap.New(core))),
		WithBackpressureWarning(3),
	)

	for i := 0; i < 6; i++ {
		require.True(t, d.Dispatch(func(any) {}, nil, 0))
	}

	assert.Equal(t, 1, logs.FilterMessage("backpressure: consumer is not keeping up").Len(),
		"warning is throttled")
}

func TestNilCallbackRejected(t *testing.T) {
	d := New("ui", 1)
	assert.False(t, d.Dispatch(nil, nil, 0))
	assert.False(t, d.DispatchContext(context.Background(), nil, nil))
	assert.Equal(t, 0, d.Len())
}
