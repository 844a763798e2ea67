package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
)

// I2cBus is a simulated I2C port with register-backed peripherals.
type I2cBus struct {
	device.Base

	port int
	bus  *lock.Lock

	mu       sync.Mutex
	devices  map[uint8]map[uint8]byte // Protected by mu, address -> registers
	lastAddr uint8                    // Protected by mu
}

// NewI2cBus creates an empty bus on port guarded by bus
func NewI2cBus(port int, bus *lock.Lock) *I2cBus {
	return &I2cBus{
		Base:    device.NewBase(device.TypeI2cBus, lock.I2C(port), "simulated i2c bus"),
		port:    port,
		bus:     bus,
		devices: make(map[uint8]map[uint8]byte),
	}
}

// Attach places a peripheral at address with the given registers
func (b *I2cBus) Attach(address uint8, registers map[uint8]byte) {
	regs := make(map[uint8]byte, len(registers))
	for k, v := range registers {
		regs[k] = v
	}

	b.mu.Lock()
	b.devices[address] = regs
	b.mu.Unlock()
}

// Detach removes the peripheral at address
func (b *I2cBus) Detach(address uint8) {
	b.mu.Lock()
	delete(b.devices, address)
	b.mu.Unlock()
}

func (b *I2cBus) Port() int {
	return b.port
}

func (b *I2cBus) BusLock() *lock.Lock {
	return b.bus
}

func (b *I2cBus) Probe(address uint8, timeout time.Duration) bool {
	found := false
	b.bus.With(lock.NewOwner(), timeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		_, found = b.devices[address]
		b.lastAddr = address
	})
	return found
}

// ReadRegister reads one register of the peripheral at address
func (b *I2cBus) ReadRegister(address, register uint8, timeout time.Duration) (byte, error) {
	var (
		value byte
		err   error
	)
	ok := b.bus.With(lock.NewOwner(), timeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastAddr = address
		regs, present := b.devices[address]
		if !present {
			err = fmt.Errorf("read 0x%02x: %w", address, ErrNoDevice)
			return
		}
		value = regs[register]
	})
	if !ok {
		return 0, fmt.Errorf("read 0x%02x on %s: %w", address, b.Name(), ErrBusTimeout)
	}
	return value, err
}

// WriteRegister writes one register of the peripheral at address
func (b *I2cBus) WriteRegister(address, register, value uint8, timeout time.Duration) error {
	var err error
	ok := b.bus.With(lock.NewOwner(), timeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastAddr = address
		regs, present := b.devices[address]
		if !present {
			err = fmt.Errorf("write 0x%02x: %w", address, ErrNoDevice)
			return
		}
		regs[register] = value
	})
	if !ok {
		return fmt.Errorf("write 0x%02x on %s: %w", address, b.Name(), ErrBusTimeout)
	}
	return err
}

// LastAddress returns the address of the most recent transaction
func (b *I2cBus) LastAddress() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAddr
}

var _ device.I2cBus = (*I2cBus)(nil)
