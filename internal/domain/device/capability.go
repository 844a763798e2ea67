package device

import (
	"time"

	"github.com/GriffinCanCode/tactility/internal/domain/lock"
)

// Display is a panel the graphics engine renders to.
type Display interface {
	Device
	Start() error
	Stop() error
	Resolution() (width, height int)
	SupportsBacklightDuty() bool
	SetBacklightDuty(duty uint8) error
	BacklightDuty() uint8
	// BusLock is the lock of the bus the panel is wired to. Start, Stop and
	// SetBacklightDuty take it and fail when it is not acquired in time.
	BusLock() *lock.Lock
	// Touch returns the touch controller bundled with the panel, if any.
	Touch() (Touch, bool)
}

// TouchPoint is one sample read from a touch controller.
type TouchPoint struct {
	X, Y    int
	Pressed bool
}

// Touch is a touch controller.
type Touch interface {
	Device
	Start() error
	Stop() error
	Read() (TouchPoint, bool)
}

// Keyboard is a hardware keyboard.
type Keyboard interface {
	Device
	Start() error
	Stop() error
	IsAttached() bool
	// ReadKey returns the next pending key press, if any.
	ReadKey() (rune, bool)
}

// Encoder is a rotary encoder or trackball.
type Encoder interface {
	Device
	// Delta returns the movement since the previous call.
	Delta() int
	Pressed() bool
}

// MetricType selects a Power reading.
type MetricType int

const (
	MetricIsCharging MetricType = iota + 1
	MetricCurrent
	MetricBatteryVoltage
	MetricChargeLevel
)

// String returns the string representation of the metric type
func (m MetricType) String() string {
	switch m {
	case MetricIsCharging:
		return "is_charging"
	case MetricCurrent:
		return "current"
	case MetricBatteryVoltage:
		return "battery_voltage"
	case MetricChargeLevel:
		return "charge_level"
	default:
		return "unknown"
	}
}

// Power is a battery gauge or power-management IC. It is polled from
// background goroutines and queried from the UI goroutine, so
// implementations must synchronize internally.
type Power interface {
	Device
	Supports(metric MetricType) bool
	// Metric returns the reading: 0/1 for charging, mA, mV or percent.
	Metric(metric MetricType) (int32, bool)
}

// SdState is the health of an SD card
type SdState int

const (
	SdStateUnknown SdState = iota
	SdStateMounted
	SdStateUnmounted
	SdStateError
)

// String returns the string representation of the state
func (s SdState) String() string {
	switch s {
	case SdStateMounted:
		return "mounted"
	case SdStateUnmounted:
		return "unmounted"
	case SdStateError:
		return "error"
	default:
		return "unknown"
	}
}

// SdCard is a removable card. State is polled from a background goroutine
// while the UI goroutine queries it too, so implementations must
// synchronize internally.
type SdCard interface {
	Device
	Mount(path string) error
	Unmount() error
	State() SdState
	MountPath() string
	// BusLock is the lock of the bus the card sits on. It may be shared with
	// a display panel; callers probing the card hold it for the duration.
	BusLock() *lock.Lock
}

// I2cBus is one I2C port.
type I2cBus interface {
	Device
	Port() int
	// Probe reports whether a device acknowledges address. The bus lock is
	// taken internally with the given timeout; a timeout reports false.
	Probe(address uint8, timeout time.Duration) bool
	BusLock() *lock.Lock
}
