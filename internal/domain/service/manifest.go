package service

// Manifest describes a service: its unique id and lifecycle hooks. Both
// hooks are optional.
type Manifest struct {
	ID string

	// OnStart runs after the instance is visible to Registry.Find. A non-nil
	// error aborts the start and the instance is discarded.
	OnStart func(inst *Instance) error

	// OnStop runs before the instance is removed.
	OnStop func(inst *Instance)
}

// State is the lifecycle state of a service id
type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateStarting
	StateStarted
	StateStopping
	StateStopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unregistered"
	}
}

// Running reports whether an instance exists in this state
func (s State) Running() bool {
	return s == StateStarting || s == StateStarted || s == StateStopping
}
