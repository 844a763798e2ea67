package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/domain/dispatch"
	"github.com/GriffinCanCode/tactility/internal/domain/service"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/shared/bundle"
)

// LoaderServiceID is the service id of the loader
const LoaderServiceID = "Loader"

// DefaultLoaderTimeout bounds how long a request waits for room in the UI
// queue
const DefaultLoaderTimeout = time.Second

// Loader accepts start/stop requests from any goroutine and performs them
// on the UI goroutine through the UI dispatcher.
type Loader struct {
	stack   *Stack
	ui      *dispatch.Dispatcher
	timeout time.Duration
	logger  *logging.Logger
}

// NewLoader creates a loader driving stack. Apps launched through the stack
// get the loader as their Starter.
func NewLoader(stack *Stack, ui *dispatch.Dispatcher, logger *logging.Logger) *Loader {
	l := &Loader{
		stack:   stack,
		ui:      ui,
		timeout: DefaultLoaderTimeout,
		logger:  logger.Named("loader"),
	}
	stack.starter = l
	return l
}

// WithTimeout sets the dispatch timeout of requests
func (l *Loader) WithTimeout(d time.Duration) *Loader {
	l.timeout = d
	return l
}

// Stack returns the driven stack
func (l *Loader) Stack() *Stack {
	return l.stack
}

// Start requests a launch of appID and returns immediately. The returned
// launch id matches the OnResult the caller receives once the app stops.
// false means the request could not be queued.
func (l *Loader) Start(appID string, params *bundle.Bundle) (LaunchID, bool) {
	launchID := l.stack.NextLaunchID()
	params = params.Clone()

	queued := l.ui.Dispatch(func(any) {
		l.stack.StartWithID(launchID, appID, params)
	}, nil, l.timeout)
	if !queued {
		l.logger.Warn("start request dropped",
			zap.String("id", appID),
			zap.Duration("timeout", l.timeout),
		)
		return 0, false
	}
	return launchID, true
}

// Stop requests a stop of the foreground app
func (l *Loader) Stop() bool {
	queued := l.ui.Dispatch(func(any) { l.stack.Stop() }, nil, l.timeout)
	if !queued {
		l.logger.Warn("stop request dropped", zap.Duration("timeout", l.timeout))
	}
	return queued
}

// StopAll stops every app on the UI goroutine and waits up to timeout for
// it to finish. Calling it from the UI goroutine itself only times out.
func (l *Loader) StopAll(timeout time.Duration) bool {
	done := make(chan struct{})
	queued := l.ui.Dispatch(func(any) {
		l.stack.StopAll()
		close(done)
	}, nil, timeout)
	if !queued {
		l.logger.Warn("stop all request dropped")
		return false
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		l.logger.Warn("apps did not stop in time", zap.Duration("timeout", timeout))
		return false
	}
}

// Manifest is the service manifest of the loader. Stopping the service
// stops every app.
func (l *Loader) Manifest() service.Manifest {
	return service.Manifest{
		ID: LoaderServiceID,
		OnStart: func(inst *service.Instance) error {
			inst.SetData(l)
			return nil
		},
		OnStop: func(*service.Instance) {
			l.StopAll(l.timeout)
		},
	}
}

var _ Starter = (*Loader)(nil)
