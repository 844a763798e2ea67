package app

import (
	"sync"

	"github.com/GriffinCanCode/tactility/internal/shared/bundle"
	"github.com/GriffinCanCode/tactility/internal/shared/id"
)

// Context is the per-launch state of an app: its manifest, launch
// parameters and the result it produces before it stops.
type Context struct {
	manifest   Manifest
	launchID   LaunchID
	instanceID id.AppInstanceID
	params     *bundle.Bundle
	starter    Starter

	mu         sync.Mutex
	state      State          // Protected by mu
	result     Result         // Protected by mu
	resultData *bundle.Bundle // Protected by mu
	hasResult  bool           // Protected by mu
	data       any            // Protected by mu
}

func newContext(m Manifest, launchID LaunchID, params *bundle.Bundle, starter Starter) *Context {
	return &Context{
		manifest:   m,
		launchID:   launchID,
		instanceID: id.NewAppInstanceID(),
		params:     params.Clone(),
		starter:    starter,
		state:      StateCreated,
	}
}

func (c *Context) Manifest() Manifest {
	return c.manifest
}

func (c *Context) LaunchID() LaunchID {
	return c.launchID
}

func (c *Context) InstanceID() id.AppInstanceID {
	return c.instanceID
}

// Params is a private copy of the launch parameters
func (c *Context) Params() bundle.Reader {
	return c.params
}

// Starter starts further apps. It is nil when the stack runs without a
// Loader.
func (c *Context) Starter() Starter {
	return c.starter
}

// State returns the lifecycle state
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SetResult records the outcome delivered to the starting app when this
// app stops. A later call replaces an earlier one.
func (c *Context) SetResult(result Result, data *bundle.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.resultData = data
	c.hasResult = true
}

// Result returns the recorded result, if any
func (c *Context) Result() (Result, *bundle.Bundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.resultData, c.hasResult
}

// Data returns the app's private data slot
func (c *Context) Data() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// SetData replaces the app's private data slot
func (c *Context) SetData(data any) {
	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
}

// Info is a serializable view of a launched app
type Info struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	LaunchID   LaunchID `json:"launch_id"`
	InstanceID string   `json:"instance_id"`
	State      string   `json:"state"`
}

// Describe returns the snapshot of c
func (c *Context) Describe() Info {
	return Info{
		ID:         c.manifest.ID,
		Name:       c.manifest.Name,
		LaunchID:   c.launchID,
		InstanceID: c.instanceID.String(),
		State:      c.State().String(),
	}
}
