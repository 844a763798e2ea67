package statusbar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/dispatch"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
	"github.com/GriffinCanCode/tactility/internal/hal/sim"
)

func TestPowerIcon(t *testing.T) {
	tests := []struct {
		level int32
		want  Icon
	}{
		{0, "power_0"},
		{4, "power_0"},
		{5, "power_10"},
		{14, "power_10"},
		{15, "power_20"},
		{54, "power_50"},
		{55, "power_60"},
		{94, "power_90"},
		{95, "power_100"},
		{100, "power_100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PowerIcon(tt.level), "level %d", tt.level)
	}
}

func TestSdCardIcon(t *testing.T) {
	assert.Equal(t, IconSdCard, SdCardIcon(device.SdStateMounted))
	for _, s := range []device.SdState{device.SdStateUnknown, device.SdStateUnmounted, device.SdStateError} {
		assert.Equal(t, IconSdCardAlert, SdCardIcon(s))
	}
}

type fixture struct {
	updater  *Updater
	ui       *dispatch.Dispatcher
	graphics *lock.Lock
	power    *sim.Power
	card     *sim.SdCard
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	devices := device.NewRegistry(nil)
	power := sim.NewPower("battery")
	card := sim.NewSdCard("sdcard", lock.New("spi2", nil, nil))
	require.True(t, devices.Register(power))
	require.True(t, devices.Register(card))

	ui := dispatch.New("ui", 8)
	graphics := lock.New(lock.Graphics, nil, nil)
	return fixture{
		updater:  New(devices, ui, graphics, lock.NewOwner(), nil),
		ui:       ui,
		graphics: graphics,
		power:    power,
		card:     card,
	}
}

func TestUpdateAppliesOnUIGoroutine(t *testing.T) {
	f := newFixture(t)
	f.power.SetChargeLevel(50)

	f.updater.Update()
	assert.Empty(t, f.updater.Bar().Icons(), "nothing applied before the UI consumes")

	assert.Equal(t, 2, f.ui.Drain())
	assert.Equal(t, map[Slot]Icon{
		SlotPower:  "power_50",
		SlotSdCard: IconSdCardAlert,
	}, f.updater.Bar().Icons())
}

func TestUpdateDispatchesOnlyChanges(t *testing.T) {
	f := newFixture(t)
	f.updater.Update()
	f.ui.Drain()

	f.updater.Update()
	assert.Zero(t, f.ui.Len())

	f.card.Insert()
	require.NoError(t, f.card.Mount("/sdcard"))
	f.updater.Update()
	assert.Equal(t, 1, f.ui.Drain())
	assert.Equal(t, IconSdCard, f.updater.Bar().Icon(SlotSdCard))
}

func TestUpdateRetriesWhenQueueFull(t *testing.T) {
	f := newFixture(t)
	f.updater.timeout = 0
	for i := 0; i < f.ui.Cap(); i++ {
		require.True(t, f.ui.Dispatch(func(any) {}, nil, 0))
	}

	f.updater.Update()
	f.ui.Drain()
	assert.Empty(t, f.updater.Bar().Icons())

	f.updater.Update()
	f.ui.Drain()
	assert.Equal(t, []Slot{SlotPower, SlotSdCard}, f.updater.Bar().Slots())
}

func TestApplyWaitsForGraphicsLock(t *testing.T) {
	f := newFixture(t)
	f.updater.Update()

	renderer := lock.NewOwner()
	require.True(t, f.graphics.Acquire(renderer, 0))
	done := make(chan struct{})
	go func() {
		f.ui.Drain()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("applied while graphics lock was held")
	default:
	}
	f.graphics.Release(renderer)
	<-done
	assert.Len(t, f.updater.Bar().Icons(), 2)
}

func TestBarHidesNone(t *testing.T) {
	b := NewBar()
	b.Set(SlotPower, "power_10")
	b.Set(SlotPower, IconNone)
	assert.Empty(t, b.Icons())
}
