package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
)

// DisplayBusTimeout bounds how long a panel transaction waits for its bus
const DisplayBusTimeout = 50 * time.Millisecond

// Display is a simulated panel with an optional bundled touch controller.
// Every panel transaction holds the bus lock, which a board may share with
// other devices on the same SPI host.
type Display struct {
	device.Base

	width, height int
	touch         *Touch
	bus           *lock.Lock
	owner         lock.Owner
	timeout       time.Duration

	mu      sync.Mutex
	started bool  // Protected by mu
	duty    uint8 // Protected by mu
}

// NewDisplay creates a panel of the given resolution on bus. touch may be
// nil.
func NewDisplay(name string, width, height int, bus *lock.Lock, touch *Touch) *Display {
	return &Display{
		Base:    device.NewBase(device.TypeDisplay, name, "simulated display"),
		width:   width,
		height:  height,
		touch:   touch,
		bus:     bus,
		owner:   lock.NewOwner(),
		timeout: DisplayBusTimeout,
		duty:    255,
	}
}

// WithBusTimeout sets how long transactions wait for the bus
func (d *Display) WithBusTimeout(timeout time.Duration) *Display {
	d.timeout = timeout
	return d
}

// transact runs fn while holding the bus lock
func (d *Display) transact(op string, fn func()) error {
	ok := d.bus.With(d.owner, d.timeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		fn()
	})
	if !ok {
		return fmt.Errorf("%s %s: %w", op, d.Name(), ErrBusTimeout)
	}
	return nil
}

func (d *Display) Start() error {
	return d.transact("start", func() { d.started = true })
}

func (d *Display) Stop() error {
	return d.transact("stop", func() { d.started = false })
}

// Started reports whether Start was called more recently than Stop
func (d *Display) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *Display) Resolution() (int, int) {
	return d.width, d.height
}

func (d *Display) SupportsBacklightDuty() bool {
	return true
}

func (d *Display) SetBacklightDuty(duty uint8) error {
	return d.transact("set backlight", func() { d.duty = duty })
}

func (d *Display) BacklightDuty() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duty
}

func (d *Display) BusLock() *lock.Lock {
	return d.bus
}

func (d *Display) Touch() (device.Touch, bool) {
	if d.touch == nil {
		return nil, false
	}
	return d.touch, true
}

// Touch is a simulated touch controller holding the latest sample.
type Touch struct {
	device.Base

	mu      sync.Mutex
	started bool              // Protected by mu
	point   device.TouchPoint // Protected by mu
	fresh   bool              // Protected by mu
}

// NewTouch creates a touch controller
func NewTouch(name string) *Touch {
	return &Touch{Base: device.NewBase(device.TypeTouch, name, "simulated touch")}
}

func (t *Touch) Start() error {
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()
	return nil
}

func (t *Touch) Stop() error {
	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
	return nil
}

// Press records a touch sample
func (t *Touch) Press(x, y int) {
	t.set(device.TouchPoint{X: x, Y: y, Pressed: true})
}

// Lift records the end of a touch
func (t *Touch) Lift() {
	t.mu.Lock()
	p := t.point
	t.mu.Unlock()
	p.Pressed = false
	t.set(p)
}

func (t *Touch) set(p device.TouchPoint) {
	t.mu.Lock()
	t.point = p
	t.fresh = true
	t.mu.Unlock()
}

// Read returns the sample recorded since the previous Read, if any. A
// stopped controller reports nothing.
func (t *Touch) Read() (device.TouchPoint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || !t.fresh {
		return device.TouchPoint{}, false
	}
	t.fresh = false
	return t.point, true
}

var (
	_ device.Display = (*Display)(nil)
	_ device.Touch   = (*Touch)(nil)
)
