package sim

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/tactility/internal/domain/device"
	"github.com/GriffinCanCode/tactility/internal/domain/lock"
)

// SdCard is a simulated card slot sitting on a shared bus.
type SdCard struct {
	device.Base

	bus *lock.Lock

	mu       sync.Mutex
	inserted bool           // Protected by mu
	state    device.SdState // Protected by mu
	path     string         // Protected by mu
}

// NewSdCard creates an empty slot on bus
func NewSdCard(name string, bus *lock.Lock) *SdCard {
	return &SdCard{
		Base:  device.NewBase(device.TypeSdCard, name, "simulated sd card"),
		bus:   bus,
		state: device.SdStateUnmounted,
	}
}

// Insert puts a card in the slot
func (s *SdCard) Insert() {
	s.mu.Lock()
	s.inserted = true
	s.mu.Unlock()
}

// Eject pulls the card. A mounted card goes to the error state until it is
// unmounted.
func (s *SdCard) Eject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = false
	if s.state == device.SdStateMounted {
		s.state = device.SdStateError
	}
}

// Inserted reports whether a card is in the slot
func (s *SdCard) Inserted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserted
}

func (s *SdCard) Mount(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inserted {
		return fmt.Errorf("mount %s: %w", path, ErrNoCard)
	}
	s.state = device.SdStateMounted
	s.path = path
	return nil
}

func (s *SdCard) Unmount() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == device.SdStateUnmounted {
		return nil
	}
	s.state = device.SdStateUnmounted
	s.path = ""
	return nil
}

func (s *SdCard) State() device.SdState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SdCard) MountPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *SdCard) BusLock() *lock.Lock {
	return s.bus
}

var _ device.SdCard = (*SdCard)(nil)
