package sim

import (
	"sync"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
)

// Battery voltage range used to derive the charge level
const (
	minBatteryMillivolts = 3200
	maxBatteryMillivolts = 4200
)

// Power is a simulated battery gauge. Readings are derived from the
// battery voltage the way an ADC-only board estimates charge.
type Power struct {
	device.Base

	mu        sync.Mutex
	millivolt int32 // Protected by mu
	current   int32 // Protected by mu, mA, negative when discharging
	charging  bool  // Protected by mu
}

// NewPower creates a full, discharging battery
func NewPower(name string) *Power {
	return &Power{
		Base:      device.NewBase(device.TypePower, name, "simulated battery"),
		millivolt: maxBatteryMillivolts,
		current:   -120,
	}
}

// SetVoltage sets the battery voltage in mV
func (p *Power) SetVoltage(mv int32) {
	p.mu.Lock()
	p.millivolt = mv
	p.mu.Unlock()
}

// SetChargeLevel sets the voltage that corresponds to percent
func (p *Power) SetChargeLevel(percent int32) {
	percent = clamp(percent, 0, 100)
	p.SetVoltage(minBatteryMillivolts + (maxBatteryMillivolts-minBatteryMillivolts)*percent/100)
}

// SetCharging sets the charger state and a matching current
func (p *Power) SetCharging(charging bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charging = charging
	if charging {
		p.current = 450
	} else {
		p.current = -120
	}
}

func (p *Power) Supports(metric device.MetricType) bool {
	switch metric {
	case device.MetricIsCharging, device.MetricCurrent, device.MetricBatteryVoltage, device.MetricChargeLevel:
		return true
	default:
		return false
	}
}

func (p *Power) Metric(metric device.MetricType) (int32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch metric {
	case device.MetricIsCharging:
		if p.charging {
			return 1, true
		}
		return 0, true
	case device.MetricCurrent:
		return p.current, true
	case device.MetricBatteryVoltage:
		return p.millivolt, true
	case device.MetricChargeLevel:
		span := int32(maxBatteryMillivolts - minBatteryMillivolts)
		return clamp((p.millivolt-minBatteryMillivolts)*100/span, 0, 100), true
	default:
		return 0, false
	}
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ device.Power = (*Power)(nil)
