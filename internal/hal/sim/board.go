package sim

import (
	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
)

// Default panel resolution of the simulated board
const (
	DisplayWidth  = 320
	DisplayHeight = 240
)

// Board is a simulated device tree. The display and the SD card share the
// SPI2 bus lock, as on boards that wire both to one SPI host.
type Board struct {
	Display  *Display
	Touch    *Touch
	Keyboard *Keyboard
	Encoder  *Encoder
	Power    *Power
	SdCard   *SdCard
	I2c      []*I2cBus
}

// NewBoard creates the simulated board with locks from locks
func NewBoard(locks *lock.Coordinator) *Board {
	touch := NewTouch("touch")
	spi := locks.Get(lock.SPI(2))

	b := &Board{
		Display:  NewDisplay("display", DisplayWidth, DisplayHeight, spi, touch),
		Touch:    touch,
		Keyboard: NewKeyboard("keyboard"),
		Encoder:  NewEncoder("encoder"),
		Power:    NewPower("battery"),
		SdCard:   NewSdCard("sdcard", spi),
	}
	for port := 0; port < 2; port++ {
		b.I2c = append(b.I2c, NewI2cBus(port, locks.Get(lock.I2C(port))))
	}
	return b
}

// Name identifies the board in logs
func (b *Board) Name() string {
	return "simulator"
}

// Devices lists every device in registration order
func (b *Board) Devices() []device.Device {
	out := make([]device.Device, 0, 6+len(b.I2c))
	for _, bus := range b.I2c {
		out = append(out, bus)
	}
	return append(out, b.Display, b.Touch, b.Keyboard, b.Encoder, b.Power, b.SdCard)
}
