package device

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

// Registry is the catalog of live devices. Every mutation and enumeration
// is serialized by one lock, and enumerations return copies so callers can
// iterate while another goroutine registers or unregisters.
type Registry struct {
	mu      sync.RWMutex
	devices []Device // Protected by mu, in registration order
	nextID  uint32

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		logger: logger.Named("devices"),
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Register adds d, assigning an ID first if d has none. A device whose ID
// is already present is not added again; that indicates a caller bug and is
// logged.
func (r *Registry) Register(d Device) bool {
	if d == nil {
		r.logger.Error("register of nil device")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := d.base()
	if ID(atomic.LoadUint32(&b.id)) == Unassigned {
		atomic.StoreUint32(&b.id, atomic.AddUint32(&r.nextID, 1))
	}

	id := d.ID()
	if r.indexOf(id) >= 0 {
		r.logger.Warn("device already registered",
			zap.String("name", d.Name()),
			zap.Uint32("id", uint32(id)),
		)
		return false
	}

	r.devices = append(r.devices, d)
	r.updateMetrics(d.Type())
	r.logger.Info("registered device",
		zap.String("name", d.Name()),
		zap.Uint32("id", uint32(id)),
		zap.Stringer("type", d.Type()),
	)
	return true
}

// Unregister removes d by ID. Removing an absent device is a no-op.
func (r *Registry) Unregister(d Device) bool {
	if d == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(d.ID())
	if i < 0 {
		r.logger.Debug("unregister of unknown device",
			zap.String("name", d.Name()),
			zap.Uint32("id", uint32(d.ID())),
		)
		return false
	}

	r.devices = append(r.devices[:i], r.devices[i+1:]...)
	r.updateMetrics(d.Type())
	r.logger.Info("unregistered device",
		zap.String("name", d.Name()),
		zap.Uint32("id", uint32(d.ID())),
	)
	return true
}

// FindByID returns the device with id
func (r *Registry) FindByID(id ID) (Device, bool) {
	return r.find(func(d Device) bool { return d.ID() == id })
}

// FindByName returns the first device named name
func (r *Registry) FindByName(name string) (Device, bool) {
	return r.find(func(d Device) bool { return d.Name() == name })
}

// FindAll returns a copy of every device of type t
func (r *Registry) FindAll(t Type) []Device {
	return r.filter(func(d Device) bool { return d.Type() == t })
}

// All returns a copy of every registered device
func (r *Registry) All() []Device {
	return r.filter(func(Device) bool { return true })
}

// Has reports whether any device of type t is registered
func (r *Registry) Has(t Type) bool {
	_, ok := r.find(func(d Device) bool { return d.Type() == t })
	return ok
}

// Len returns the number of registered devices
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

func (r *Registry) find(match func(Device) bool) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if match(d) {
			return d, true
		}
	}
	return nil, false
}

func (r *Registry) filter(match func(Device) bool) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		if match(d) {
			out = append(out, d)
		}
	}
	return out
}

// indexOf must hold mu
func (r *Registry) indexOf(id ID) int {
	for i, d := range r.devices {
		if d.ID() == id {
			return i
		}
	}
	return -1
}

// updateMetrics must hold mu
func (r *Registry) updateMetrics(t Type) {
	if r.metrics == nil {
		return
	}
	count := 0
	for _, d := range r.devices {
		if d.Type() == t {
			count++
		}
	}
	r.metrics.SetDevices(t.String(), count)
}

// FindFirst returns the first device of type t that implements capability T.
func FindFirst[T Device](r *Registry, t Type) (T, bool) {
	for _, d := range r.FindAll(t) {
		if typed, ok := d.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

// FindAllOf returns every device of type t that implements capability T.
func FindAllOf[T Device](r *Registry, t Type) []T {
	all := r.FindAll(t)
	out := make([]T, 0, len(all))
	for _, d := range all {
		if typed, ok := d.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}
