package app

import "github.com/GriffinCanCode/tactility/internal/shared/bundle"

// LaunchID identifies one start request. It is handed to the starter
// immediately so a later OnResult can be matched to its request.
type LaunchID uint32

// Result is the outcome an app reports to the app that started it
type Result int

const (
	ResultOk Result = iota
	ResultCancelled
	ResultError
)

// String returns the string representation of the result
func (r Result) String() string {
	switch r {
	case ResultOk:
		return "ok"
	case ResultCancelled:
		return "cancelled"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a launched app
type State int

const (
	StateCreated State = iota
	StateStarted
	StateShown
	StateHidden
	StateStopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateShown:
		return "shown"
	case StateHidden:
		return "hidden"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// App is a foreground component. All callbacks run on the UI goroutine
// with the graphics lock held.
type App interface {
	OnStart(ctx *Context)
	// OnShow builds the app's screen inside parent
	OnShow(ctx *Context, parent any)
	OnHide(ctx *Context)
	OnStop(ctx *Context)
	// OnResult delivers the result of an app this app started
	OnResult(ctx *Context, launchID LaunchID, result Result, data *bundle.Bundle)
}

// Base implements every App callback as a no-op. Apps embed it and
// override what they need.
type Base struct{}

func (Base) OnStart(*Context)                                    {}
func (Base) OnShow(*Context, any)                                {}
func (Base) OnHide(*Context)                                     {}
func (Base) OnStop(*Context)                                     {}
func (Base) OnResult(*Context, LaunchID, Result, *bundle.Bundle) {}

// Starter launches and stops apps asynchronously
type Starter interface {
	Start(appID string, params *bundle.Bundle) (LaunchID, bool)
	Stop() bool
}
