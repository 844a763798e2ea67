package sim

import (
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
)

const keyBuffer = 32

// Keyboard is a simulated keyboard. Key presses beyond the buffer are
// dropped, as on a real matrix scanner without room.
type Keyboard struct {
	device.Base

	keys chan rune

	mu       sync.Mutex
	started  bool // Protected by mu
	attached bool // Protected by mu
}

// NewKeyboard creates an attached keyboard
func NewKeyboard(name string) *Keyboard {
	return &Keyboard{
		Base:     device.NewBase(device.TypeKeyboard, name, "simulated keyboard"),
		keys:     make(chan rune, keyBuffer),
		attached: true,
	}
}

func (k *Keyboard) Start() error {
	k.mu.Lock()
	k.started = true
	k.mu.Unlock()
	return nil
}

func (k *Keyboard) Stop() error {
	k.mu.Lock()
	k.started = false
	k.mu.Unlock()
	return nil
}

func (k *Keyboard) IsAttached() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.attached
}

// SetAttached simulates plugging the keyboard in or out
func (k *Keyboard) SetAttached(attached bool) {
	k.mu.Lock()
	k.attached = attached
	k.mu.Unlock()
}

// Press queues key presses. It reports how many were buffered.
func (k *Keyboard) Press(keys string) int {
	n := 0
	for _, r := range keys {
		select {
		case k.keys <- r:
			n++
		default:
			return n
		}
	}
	return n
}

func (k *Keyboard) ReadKey() (rune, bool) {
	select {
	case r := <-k.keys:
		return r, true
	default:
		return 0, false
	}
}

// Encoder is a simulated rotary encoder
type Encoder struct {
	device.Base

	delta   atomic.Int64
	pressed atomic.Bool
}

// NewEncoder creates an encoder at rest
func NewEncoder(name string) *Encoder {
	return &Encoder{Base: device.NewBase(device.TypeEncoder, name, "simulated encoder")}
}

// Rotate adds steps; negative is counter-clockwise
func (e *Encoder) Rotate(steps int) {
	e.delta.Add(int64(steps))
}

// SetPressed sets the push button state
func (e *Encoder) SetPressed(pressed bool) {
	e.pressed.Store(pressed)
}

func (e *Encoder) Delta() int {
	return int(e.delta.Swap(0))
}

func (e *Encoder) Pressed() bool {
	return e.pressed.Load()
}

var (
	_ device.Keyboard = (*Keyboard)(nil)
	_ device.Encoder  = (*Encoder)(nil)
)
