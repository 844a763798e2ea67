package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

func TestStartStop(t *testing.T) {
	r := NewRegistry(nil)
	var started, stopped int

	require.True(t, r.Add(Manifest{
		ID:      "gps",
		OnStart: func(*Instance) error { started++; return nil },
		OnStop:  func(*Instance) { stopped++ },
	}))
	assert.Equal(t, StateRegistered, r.State("gps"))

	require.True(t, r.Start("gps"))
	assert.Equal(t, StateStarted, r.State("gps"))
	inst, ok := r.Find("gps")
	require.True(t, ok)
	assert.Equal(t, "gps", inst.ID())

	require.True(t, r.Stop("gps"))
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, stopped)
	assert.Equal(t, StateRegistered, r.State("gps"))
	assert.Equal(t, StateStopped, inst.State())
	_, ok = r.Find("gps")
	assert.False(t, ok)
}

func TestStartUnknown(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.Start("missing"))
	assert.Equal(t, StateUnregistered, r.State("missing"))
}

func TestStartTwiceRefused(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewRegistry(logging.Wrap(zap.New(core)))

	calls := 0
	r.Add(Manifest{ID: "wifi", OnStart: func(*Instance) error { calls++; return nil }})

	require.True(t, r.Start("wifi"))
	first, _ := r.Find("wifi")
	assert.False(t, r.Start("wifi"))
	second, _ := r.Find("wifi")

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, logs.FilterMessage("service already running").Len())
}

func TestRestartGetsNewInstance(t *testing.T) {
	r := NewRegistry(nil)
	r.Add(Manifest{ID: "wifi"})

	require.True(t, r.Start("wifi"))
	first, _ := r.Find("wifi")
	require.True(t, r.Stop("wifi"))
	require.True(t, r.Start("wifi"))
	second, _ := r.Find("wifi")

	assert.NotEqual(t, first.InstanceID(), second.InstanceID())
}

func TestStartFailureRemovesInstance(t *testing.T) {
	r := NewRegistry(nil)
	r.Add(Manifest{ID: "modem", OnStart: func(*Instance) error { return errors.New("no sim") }})

	assert.False(t, r.Start("modem"))
	assert.Equal(t, StateRegistered, r.State("modem"))
	_, ok := r.Find("modem")
	assert.False(t, ok)
	assert.Empty(t, r.List())
}

func TestStartPanicRemovesInstance(t *testing.T) {
	r := NewRegistry(nil)
	r.Add(Manifest{ID: "modem", OnStart: func(*Instance) error { panic("driver crashed") }})

	assert.False(t, r.Start("modem"))
	_, ok := r.Find("modem")
	assert.False(t, ok)
}

func TestServiceFindsItselfDuringStart(t *testing.T) {
	r := NewRegistry(nil)
	var seen State
	r.Add(Manifest{
		ID: "self",
		OnStart: func(inst *Instance) error {
			found, ok := r.Find("self")
			if !ok || found != inst {
				return errors.New("instance not visible")
			}
			seen = r.State("self")
			return nil
		},
	})

	require.True(t, r.Start("self"))
	assert.Equal(t, StateStarting, seen)
}

func TestStopNotRunning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewRegistry(logging.Wrap(zap.New(core)))
	r.Add(Manifest{ID: "gps"})

	assert.False(t, r.Stop("gps"))
	assert.False(t, r.Stop("missing"))
	assert.Equal(t, 2, logs.FilterMessage("stop of service that is not running").Len())
}

func TestAddReplaces(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewRegistry(logging.Wrap(zap.New(core)))

	var which string
	r.Add(Manifest{ID: "gps", OnStart: func(*Instance) error { which = "first"; return nil }})
	r.Add(Manifest{ID: "gps", OnStart: func(*Instance) error { which = "second"; return nil }})

	require.True(t, r.Start("gps"))
	assert.Equal(t, "second", which)
	assert.Equal(t, 1, logs.FilterMessage("service manifest replaced").Len())
	assert.False(t, r.Add(Manifest{}))
}

func TestListAndStopAllOrder(t *testing.T) {
	r := NewRegistry(nil)
	var stopped []string
	for _, id := range []string{"loader", "sdcard", "statusbar"} {
		id := id
		require.True(t, r.AddAndStart(Manifest{
			ID:     id,
			OnStop: func(*Instance) { stopped = append(stopped, id) },
		}))
	}

	var ids []string
	for _, inst := range r.List() {
		ids = append(ids, inst.ID())
	}
	assert.Equal(t, []string{"loader", "sdcard", "statusbar"}, ids)
	assert.Equal(t, []string{"loader", "sdcard", "statusbar"}, r.Manifests())

	assert.Equal(t, 3, r.StopAll())
	assert.Equal(t, []string{"statusbar", "sdcard", "loader"}, stopped)
	assert.Empty(t, r.List())
}

func TestInstanceData(t *testing.T) {
	r := NewRegistry(nil)
	r.AddAndStart(Manifest{
		ID:      "counter",
		OnStart: func(inst *Instance) error { inst.SetData(0); return nil },
	})
	inst, _ := r.Find("counter")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst.Update(func(v any) any { return v.(int) + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, inst.Data())
	info := inst.Describe()
	assert.Equal(t, "counter", info.ID)
	assert.Equal(t, "started", info.State)
}

func TestConcurrentStartSameID(t *testing.T) {
	r := NewRegistry(nil)
	var calls atomic.Int32
	r.Add(Manifest{ID: "wifi", OnStart: func(*Instance) error {
		calls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return nil
	}})

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Start("wifi") {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistryMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	r := NewRegistry(nil).WithMetrics(metrics)

	r.AddAndStart(Manifest{ID: "a"})
	r.AddAndStart(Manifest{ID: "b"})
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ServicesRunning))

	r.Stop("a")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ServicesRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ServiceTransitions.WithLabelValues("a", "stopped")))
}
