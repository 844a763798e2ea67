package service

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/tactility/internal/shared/id"
)

// Instance is one running service. It carries an opaque data slot owned by
// the service; access goes through the instance mutex so the service's own
// goroutines and external callers can share it.
type Instance struct {
	manifest   Manifest
	instanceID id.ServiceInstanceID
	startedAt  time.Time

	mu    sync.Mutex
	state State // Protected by mu
	data  any   // Protected by mu
}

func newInstance(manifest Manifest) *Instance {
	return &Instance{
		manifest:   manifest,
		instanceID: id.NewServiceInstanceID(),
		startedAt:  time.Now(),
		state:      StateStarting,
	}
}

// ID returns the manifest id
func (i *Instance) ID() string {
	return i.manifest.ID
}

// InstanceID is unique per start, so a restarted service gets a new one
func (i *Instance) InstanceID() id.ServiceInstanceID {
	return i.instanceID
}

func (i *Instance) Manifest() Manifest {
	return i.manifest
}

func (i *Instance) StartedAt() time.Time {
	return i.startedAt
}

// State returns the current lifecycle state
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Instance) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// Data returns the service data slot
func (i *Instance) Data() any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.data
}

// SetData replaces the service data slot
func (i *Instance) SetData(data any) {
	i.mu.Lock()
	i.data = data
	i.mu.Unlock()
}

// Update replaces the data slot with fn's result while holding the
// instance mutex. fn must not call back into the instance.
func (i *Instance) Update(fn func(current any) any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.data = fn(i.data)
}

// Info is a serializable snapshot of an instance
type Info struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"started_at"`
}

// Describe returns the snapshot of i
func (i *Instance) Describe() Info {
	return Info{
		ID:         i.ID(),
		InstanceID: i.instanceID.String(),
		State:      i.State().String(),
		StartedAt:  i.startedAt,
	}
}
